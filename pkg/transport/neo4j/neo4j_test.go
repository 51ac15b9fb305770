package neo4j

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const graphResponse = `{
  "results": [{
    "columns": ["n", "r"],
    "data": [{
      "graph": {
        "nodes": [{"id": "1", "labels": ["Jenkins_Job"], "properties": {"name": "build"}}],
        "relationships": []
      }
    }]
  }],
  "errors": []
}`

func TestExecuteSendsGraphRequest(t *testing.T) {
	var got requestBody
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, commitPath, r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "neo4j", user)
		assert.Equal(t, "secret", pass)
		assert.Contains(t, r.Header.Get("Accept"), "application/json")
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(graphResponse))
	}))
	defer srv.Close()

	c, err := NewClient(NewClientParams{BaseURL: srv.URL + "/", User: "neo4j", Password: "secret"})
	require.NoError(t, err)
	defer c.Close()

	env, err := c.Execute(context.Background(), cypher.WholeGraph(2000))
	require.NoError(t, err)

	require.Len(t, got.Statements, 1)
	assert.Equal(t, "MATCH (n) OPTIONAL MATCH (n)-[r]->(m) RETURN n,r LIMIT $limit", got.Statements[0].Statement)
	assert.Equal(t, float64(2000), got.Statements[0].Parameters["limit"])
	assert.Equal(t, []string{"graph"}, got.Statements[0].ResultDataContents)
	assert.False(t, got.Statements[0].IncludeStats)

	require.Len(t, env.Results, 1)
	assert.Equal(t, common.ID("1"), env.Results[0].Data[0].Graph.Nodes[0].ID)
}

func TestExecuteNon2xxIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c, err := NewClient(NewClientParams{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), cypher.WholeGraph(1))
	var transportErr *common.TransportError
	require.ErrorAs(t, err, &transportErr)
	assert.Equal(t, http.StatusServiceUnavailable, transportErr.StatusCode)
}

func TestExecuteUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(NewClientParams{BaseURL: url})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), cypher.WholeGraph(1))
	var transportErr *common.TransportError
	assert.ErrorAs(t, err, &transportErr)
}

func TestExecuteRejectedStatement(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":[],"errors":[{"code":"Neo.ClientError.Statement.SyntaxError","message":"Invalid input"}]}`))
	}))
	defer srv.Close()

	c, err := NewClient(NewClientParams{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), cypher.Statement{Text: "MATCH"})
	var queryErr *common.QueryFailedError
	require.ErrorAs(t, err, &queryErr)
	assert.Equal(t, "MATCH", queryErr.Statement)
	assert.Contains(t, err.Error(), "SyntaxError")
}

func TestExecuteInvalidJSONIsDataShapeError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>`))
	}))
	defer srv.Close()

	c, err := NewClient(NewClientParams{BaseURL: srv.URL})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), cypher.WholeGraph(1))
	var shapeErr *common.DataShapeError
	assert.ErrorAs(t, err, &shapeErr)
}

func TestExecuteCanceledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(graphResponse))
	}))
	defer srv.Close()

	c, err := NewClient(NewClientParams{BaseURL: srv.URL})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Execute(ctx, cypher.WholeGraph(1))
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestNewClientRejectsRelativeURL(t *testing.T) {
	_, err := NewClient(NewClientParams{BaseURL: "localhost:7474"})
	assert.Error(t, err)
}

func TestTruncateKeepsRunesWhole(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{in: "short", n: 10, want: "short"},
		{in: "abcdef", n: 3, want: "abc..."},
		{in: "aé", n: 2, want: "a..."},
		{in: "日本", n: 4, want: "日..."},
		{in: "日本", n: 1, want: "..."},
	}
	for _, tt := range tests {
		got := truncate(tt.in, tt.n)
		assert.Equal(t, tt.want, got, tt.in)
		assert.True(t, utf8.ValidString(got), tt.in)
	}

	long := strings.Repeat("é", 150)
	assert.True(t, utf8.ValidString(truncate(long, 200)))
}
