// Package age executes statements against PostgreSQL with the Apache AGE
// extension, converting agtype rows into the same envelope the HTTP
// transport produces.
package age

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/cicdguard/backend/pkg/common"
	"github.com/cicdguard/backend/pkg/cypher"
	"github.com/cicdguard/backend/pkg/logger"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const dollarTag = "$cypher$"

var graphNamePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Client is a transport.Transport backed by a pgx pool.
type Client struct {
	pool  *pgxpool.Pool
	graph string
}

// NewClientParams contains configuration for creating a Client.
type NewClientParams struct {
	DatabaseURL string
	Graph       string
	MaxConns    int32
}

// NewClient opens a pool whose connections have AGE loaded.
func NewClient(ctx context.Context, params NewClientParams) (*Client, error) {
	if !graphNamePattern.MatchString(params.Graph) {
		return nil, fmt.Errorf("invalid graph name %q", params.Graph)
	}

	cfg, err := pgxpool.ParseConfig(params.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if params.MaxConns > 0 {
		cfg.MaxConns = params.MaxConns
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		if _, err := conn.Exec(ctx, "LOAD 'age'"); err != nil {
			return err
		}
		_, err := conn.Exec(ctx, `SET search_path = ag_catalog, "$user", public`)
		return err
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Client{pool: pool, graph: params.Graph}, nil
}

// buildSQL wraps a statement in a cypher() call. Parameters are inlined
// since AGE only binds them for prepared statements.
func buildSQL(graph string, stmt cypher.Statement) (string, error) {
	text := cypher.Inline(stmt)
	if strings.Contains(text, dollarTag) {
		return "", fmt.Errorf("statement contains reserved delimiter %s", dollarTag)
	}
	cols := returnColumns(text)
	if len(cols) == 0 {
		return "", fmt.Errorf("statement has no RETURN clause")
	}
	defs := make([]string, len(cols))
	for i := range cols {
		defs[i] = fmt.Sprintf("c%d agtype", i)
	}
	return fmt.Sprintf(
		"SELECT * FROM ag_catalog.cypher('%s', %s %s %s) AS (%s)",
		graph, dollarTag, text, dollarTag, strings.Join(defs, ", "),
	), nil
}

// Execute runs stmt and returns one fragment per row.
func (c *Client) Execute(ctx context.Context, stmt cypher.Statement) (*common.Envelope, error) {
	sql, err := buildSQL(c.graph, stmt)
	if err != nil {
		return nil, &common.QueryFailedError{
			Statement: stmt.Text,
			Errors:    []common.StatusError{{Message: err.Error()}},
		}
	}

	start := time.Now()
	rows, err := c.pool.Query(ctx, sql)
	if err != nil {
		return nil, classify(ctx, stmt, err)
	}
	defer rows.Close()

	cols := returnColumns(cypher.Inline(stmt))
	result := common.Result{Columns: cols, Data: []common.Fragment{}}
	for rowIdx := 0; rows.Next(); rowIdx++ {
		values := make([]*string, len(cols))
		dest := make([]any, len(cols))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, &common.DataShapeError{Path: fmt.Sprintf("results[0].data[%d]", rowIdx), Reason: err.Error()}
		}

		g := &common.FragmentGraph{Nodes: []common.RawNode{}, Relationships: []common.RawEdge{}}
		for i, v := range values {
			if v == nil {
				continue
			}
			path := fmt.Sprintf("results[0].data[%d].%s", rowIdx, cols[i])
			if err := parseValue(*v, path, g); err != nil {
				return nil, err
			}
		}
		result.Data = append(result.Data, common.Fragment{Graph: g})
	}
	if err := rows.Err(); err != nil {
		return nil, classify(ctx, stmt, err)
	}

	logger.Debug("[AGE] Statement executed", "rows", len(result.Data), "duration", time.Since(start))

	return &common.Envelope{Results: []common.Result{result}}, nil
}

// classify splits database errors into rejected statements and transport
// failures.
func classify(ctx context.Context, stmt cypher.Statement, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return &common.QueryFailedError{
			Statement: stmt.Text,
			Errors:    []common.StatusError{{Code: pgErr.Code, Message: pgErr.Message}},
		}
	}
	return &common.TransportError{Err: err}
}

// Close closes the pool.
func (c *Client) Close() error {
	c.pool.Close()
	return nil
}
