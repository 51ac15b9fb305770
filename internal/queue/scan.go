package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/go-playground/validator"
)

// DefaultScanQueue receives a message whenever a scanner finished writing
// to the graph.
const DefaultScanQueue = "scan_completed"

// ScanCompleted is published by the scanners.
type ScanCompleted struct {
	Scanner    string    `json:"scanner" validate:"required,oneof=jenkins github github_action jfrog"`
	Status     string    `json:"status" validate:"required,oneof=success failed"`
	Target     string    `json:"target,omitempty"`
	FinishedAt time.Time `json:"finished_at"`
}

var validate = validator.New()

// ParseScanCompleted decodes and validates a message body.
func ParseScanCompleted(body []byte) (ScanCompleted, error) {
	var msg ScanCompleted
	if err := json.Unmarshal(body, &msg); err != nil {
		return msg, fmt.Errorf("decode scan message: %w", err)
	}
	if err := validate.Struct(msg); err != nil {
		return msg, fmt.Errorf("invalid scan message: %w", err)
	}
	return msg, nil
}

// Invalidator drops cached data derived from the graph.
type Invalidator interface {
	Invalidate()
}

// Reloader redraws every open view.
type Reloader interface {
	ReloadAll(ctx context.Context, stabilize bool) error
}

// ScanProcessor refreshes the viewer after a successful scan: menus are
// rebuilt from fresh data and every view is reloaded with stabilization.
type ScanProcessor struct {
	Vocabulary Invalidator
	Views      Reloader
}

// Process handles one message body. Failed scans are logged and dropped.
// An error means the message should be retried.
func (p *ScanProcessor) Process(ctx context.Context, body []byte) error {
	msg, err := ParseScanCompleted(body)
	if err != nil {
		return &PermanentError{Err: err}
	}

	if msg.Status != "success" {
		logger.Warn("[Queue] Scan failed, keeping current graph", "scanner", msg.Scanner, "target", msg.Target)
		return nil
	}

	logger.Info("[Queue] Scan completed", "scanner", msg.Scanner, "target", msg.Target)

	p.Vocabulary.Invalidate()
	if err := p.Views.ReloadAll(ctx, true); err != nil {
		err = fmt.Errorf("reload views: %w", err)
		// the data store rejected the query or its answer; retrying the
		// same message cannot change that
		var rejected *common.QueryFailedError
		var shape *common.DataShapeError
		if errors.As(err, &rejected) || errors.As(err, &shape) {
			return &PermanentError{Err: err}
		}
		return err
	}
	return nil
}

// PermanentError marks a message that will never succeed; it goes to the
// dead-letter queue without retries.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }
