// Package config reads the process configuration from the environment and
// builds the graph transport it selects.
package config

import (
	"context"
	"fmt"
	"time"

	"github.com/cicdguard/backend/internal/queue"
	"github.com/cicdguard/backend/internal/util"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/render"
	"github.com/cicdguard/backend/pkg/transport"
	"github.com/cicdguard/backend/pkg/transport/age"
	"github.com/cicdguard/backend/pkg/transport/neo4j"

	"github.com/go-playground/validator"
)

const (
	BackendNeo4j = "neo4j"
	BackendAGE   = "age"
)

// Config holds every setting of the server and the CLI.
type Config struct {
	Port      string `validate:"required,numeric"`
	Debug     bool
	LogFormat string `validate:"omitempty,oneof=text json logfmt"`

	Backend       string `validate:"required,oneof=neo4j age"`
	Neo4jURL      string
	Neo4jUser     string
	Neo4jPassword string
	DatabaseURL   string
	AGEGraph      string

	ResultLimit      int `validate:"min=1"`
	StabilizeFor     time.Duration
	TransportRetries int `validate:"min=1"`
	TransportTimeout time.Duration

	QueueEnabled bool
	QueueURL     string
	ScanQueue    string
}

// Load reads the configuration. LoadEnv should have been called before.
func Load() (Config, error) {
	cfg := Config{
		Port:      util.GetEnvString("PORT", "8080"),
		Debug:     util.GetEnvBool("DEBUG", false),
		LogFormat: util.GetEnvString("LOG_FORMAT", "text"),

		Backend:       util.GetEnvString("GRAPH_BACKEND", BackendNeo4j),
		Neo4jURL:      util.GetEnvString("NEO4J_URL", "http://localhost:7474"),
		Neo4jUser:     util.GetEnv("NEO4J_USER"),
		Neo4jPassword: util.GetEnv("NEO4J_PASSWORD"),
		DatabaseURL:   util.GetEnv("DATABASE_URL"),
		AGEGraph:      util.GetEnvString("AGE_GRAPH", "cicdguard"),

		ResultLimit:      util.GetEnvInt("RESULT_LIMIT", 2000),
		StabilizeFor:     util.GetEnvDuration("STABILIZE_MS", render.DefaultStabilizeFor),
		TransportRetries: util.GetEnvInt("TRANSPORT_RETRIES", 3),
		TransportTimeout: util.GetEnvDuration("TRANSPORT_TIMEOUT", 30*time.Second),

		QueueEnabled: util.GetEnv("RABBITMQ_HOST") != "",
		QueueURL:     queue.URLFromEnv(),
		ScanQueue:    util.GetEnvString("SCAN_QUEUE", queue.DefaultScanQueue),
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	switch {
	case cfg.Backend == BackendNeo4j && cfg.Neo4jURL == "":
		return cfg, fmt.Errorf("invalid configuration: NEO4J_URL is required for the neo4j backend")
	case cfg.Backend == BackendAGE && cfg.DatabaseURL == "":
		return cfg, fmt.Errorf("invalid configuration: DATABASE_URL is required for the age backend")
	}
	return cfg, nil
}

// DefaultStatement is the bounded whole-graph query used when no filter
// is active.
func (c Config) DefaultStatement() cypher.Statement {
	return cypher.WholeGraph(c.ResultLimit)
}

// NewTransport connects to the configured graph backend. Transport errors
// are retried TransportRetries times.
func NewTransport(ctx context.Context, c Config) (transport.Transport, error) {
	var t transport.Transport
	switch c.Backend {
	case BackendAGE:
		client, err := age.NewClient(ctx, age.NewClientParams{
			DatabaseURL: c.DatabaseURL,
			Graph:       c.AGEGraph,
		})
		if err != nil {
			return nil, fmt.Errorf("connect to age: %w", err)
		}
		t = client
	default:
		client, err := neo4j.NewClient(neo4j.NewClientParams{
			BaseURL:  c.Neo4jURL,
			User:     c.Neo4jUser,
			Password: c.Neo4jPassword,
			Timeout:  c.TransportTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create neo4j client: %w", err)
		}
		t = client
	}
	return transport.WithRetry(t, c.TransportRetries, 200*time.Millisecond), nil
}
