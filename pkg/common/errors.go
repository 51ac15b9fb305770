package common

import (
	"fmt"
	"strings"
)

// TransportError reports a network failure or a non-2xx response from the
// data store. The previous view is kept when it occurs.
type TransportError struct {
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("could not load graph: status %d: %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("could not load graph: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// DataShapeError reports an envelope that is missing expected fields.
type DataShapeError struct {
	Path   string
	Reason string
}

func (e *DataShapeError) Error() string {
	return fmt.Sprintf("malformed result at %s: %s", e.Path, e.Reason)
}

// QueryFailedError reports a statement the data store rejected.
type QueryFailedError struct {
	Statement string
	Errors    []StatusError
}

func (e *QueryFailedError) Error() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, se := range e.Errors {
		if se.Code != "" {
			msgs = append(msgs, se.Code+": "+se.Message)
		} else {
			msgs = append(msgs, se.Message)
		}
	}
	return "query rejected: " + strings.Join(msgs, "; ")
}
