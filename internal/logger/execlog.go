package logger

import (
	"bytes"
	"io"
	"sync"
)

// ExecutionLog buffers a run's log lines so they can be stored as an
// artifact once the run finishes, optionally mirroring them to a console.
type ExecutionLog struct {
	mu  sync.Mutex
	buf bytes.Buffer
	tee io.Writer
}

// NewExecutionLog returns a buffer that also copies writes to tee when it is
// non-nil.
func NewExecutionLog(tee io.Writer) *ExecutionLog {
	return &ExecutionLog{tee: tee}
}

func (e *ExecutionLog) Write(p []byte) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.buf.Write(p)
	if err != nil {
		return n, err
	}
	if e.tee != nil {
		// console failures must not break the artifact copy
		_, _ = e.tee.Write(p)
	}
	return n, nil
}

// Bytes returns a copy of everything written so far.
func (e *ExecutionLog) Bytes() []byte {
	e.mu.Lock()
	defer e.mu.Unlock()
	return bytes.Clone(e.buf.Bytes())
}

// Logger returns a Logger writing to the execution log at the given level.
func (e *ExecutionLog) Logger(level LogLevel, json bool) Logger {
	return NewLogger(&Config{
		Level:      level,
		Output:     e,
		JSON:       json,
		TimeFormat: ExecutionLogTimeFormat,
	})
}
