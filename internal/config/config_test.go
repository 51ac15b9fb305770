package config

import (
	"context"
	"testing"
	"time"

	"github.com/cicdguard/backend/pkg/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "")
	t.Setenv("RABBITMQ_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, BackendNeo4j, cfg.Backend)
	assert.Equal(t, 2000, cfg.ResultLimit)
	assert.Equal(t, 200*time.Millisecond, cfg.StabilizeFor)
	assert.False(t, cfg.QueueEnabled)
	assert.Equal(t, "scan_completed", cfg.ScanQueue)
	assert.Equal(t, "MATCH (n) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r LIMIT $limit", cfg.DefaultStatement().Text)
	assert.Equal(t, 2000, cfg.DefaultStatement().Parameters["limit"])
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("RESULT_LIMIT", "50")
	t.Setenv("STABILIZE_MS", "750")
	t.Setenv("RABBITMQ_HOST", "broker")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.ResultLimit)
	assert.Equal(t, 750*time.Millisecond, cfg.StabilizeFor)
	assert.True(t, cfg.QueueEnabled)
	assert.Contains(t, cfg.QueueURL, "broker:5672")
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "unknown backend", key: "GRAPH_BACKEND", val: "gremlin"},
		{name: "non numeric port", key: "PORT", val: "http"},
		{name: "zero limit", key: "RESULT_LIMIT", val: "0"},
		{name: "bad log format", key: "LOG_FORMAT", val: "xml"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.val)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadAGERequiresDatabaseURL(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "age")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	assert.Error(t, err)
}

func TestNewTransportNeo4j(t *testing.T) {
	t.Setenv("GRAPH_BACKEND", "neo4j")
	cfg, err := Load()
	require.NoError(t, err)

	tr, err := NewTransport(context.Background(), cfg)
	require.NoError(t, err)
	defer tr.Close()

	_, ok := tr.(*transport.Retrying)
	assert.True(t, ok)
}
