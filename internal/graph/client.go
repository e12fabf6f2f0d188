// Package graph wraps the graph database holding saved shopping lists and
// the purchase history derived from them.
package graph

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is what the list repository needs from a graph database.
type Client interface {
	ExecuteWrite(ctx context.Context, cypher string, params map[string]any) (Result, error)
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result holds every record returned by a statement.
type Result struct {
	Records []Record
}

// Single returns the only record of the result.
func (r Result) Single() (Record, error) {
	if len(r.Records) != 1 {
		return nil, fmt.Errorf("%w: got %d records", ErrUnexpectedRecords, len(r.Records))
	}
	return r.Records[0], nil
}

// Record maps returned column names to values.
type Record map[string]any

// String returns the column as a string, or "" when absent or not textual.
func (r Record) String(key string) string {
	switch v := r[key].(type) {
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return ""
	}
}

// Float returns numeric columns as float64.
func (r Record) Float(key string) float64 {
	switch v := r[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int64:
		return float64(v)
	case int:
		return float64(v)
	default:
		return 0
	}
}

// Int returns numeric columns as int64, truncating floats.
func (r Record) Int(key string) int64 {
	switch v := r[key].(type) {
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	default:
		return 0
	}
}

// Time returns temporal columns; the driver yields time.Time for DateTime values.
func (r Record) Time(key string) time.Time {
	if v, ok := r[key].(time.Time); ok {
		return v
	}
	return time.Time{}
}

// Options configures a Bolt connection.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	QueryTimeout   time.Duration
}

var (
	// ErrMissingURI indicates the graph URI is not provided.
	ErrMissingURI = errors.New("graph URI is required")
	// ErrUnexpectedRecords is returned by Result.Single.
	ErrUnexpectedRecords = errors.New("graph: unexpected record count")
)
