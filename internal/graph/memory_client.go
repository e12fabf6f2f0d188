package graph

import (
	"context"
	"maps"
	"sync"
)

// Mode distinguishes read and write statements recorded by MemoryClient.
type Mode string

const (
	ModeRead  Mode = "read"
	ModeWrite Mode = "write"
)

// Call is one statement received by MemoryClient.
type Call struct {
	Mode   Mode
	Query  string
	Params map[string]any
}

// MemoryClient is a scripted Client for tests. Each executed statement pops
// the next queued result for its mode; an empty queue yields an empty result.
type MemoryClient struct {
	mu           sync.Mutex
	calls        []Call
	queued       map[Mode][]Result
	err          error
	connectivity error
	closed       bool
}

// NewMemoryClient returns a client with nothing queued.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{queued: make(map[Mode][]Result)}
}

// Queue appends results returned, in order, by statements of the given mode.
func (m *MemoryClient) Queue(mode Mode, results ...Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queued[mode] = append(m.queued[mode], results...)
	return m
}

// Fail makes every subsequent statement return err.
func (m *MemoryClient) Fail(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// FailConnectivity makes VerifyConnectivity return err.
func (m *MemoryClient) FailConnectivity(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryClient) ExecuteWrite(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(ModeWrite, cypher, params)
}

func (m *MemoryClient) ExecuteRead(_ context.Context, cypher string, params map[string]any) (Result, error) {
	return m.execute(ModeRead, cypher, params)
}

func (m *MemoryClient) execute(mode Mode, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.err != nil {
		return Result{}, m.err
	}
	m.calls = append(m.calls, Call{Mode: mode, Query: cypher, Params: maps.Clone(params)})

	queue := m.queued[mode]
	if len(queue) == 0 {
		return Result{}, nil
	}
	m.queued[mode] = queue[1:]
	return queue[0], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Calls returns the statements received so far, optionally filtered by mode.
func (m *MemoryClient) Calls(modes ...Mode) []Call {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Call, 0, len(m.calls))
	for _, c := range m.calls {
		if len(modes) == 0 || containsMode(modes, c.Mode) {
			out = append(out, c)
		}
	}
	return out
}

// Closed reports whether Close was called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

func containsMode(modes []Mode, mode Mode) bool {
	for _, m := range modes {
		if m == mode {
			return true
		}
	}
	return false
}
