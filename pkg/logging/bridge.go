package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"os"
	"sync"
)

// The log forwarding bridge relays records from a child process to the
// parent's sinks. The child side is an ordinary JSON Logger writing one
// LogEntry per line into a pipe; the parent side is a Listener that decodes
// each line and re-emits it into the parent logger at the record's original
// level.

// NewForwarder builds the child side of the bridge: a JSON logger emitting
// records at level or above into w.
func NewForwarder(w io.Writer, level Level) *Logger {
	l := NewLogger(level, true)
	l.SetOutput(w)
	return l
}

// Listener is the parent side of the bridge. It owns a background goroutine
// that drains the pipe until EOF and replays every record into the target
// logger. EOF is deterministic: the parent closes its duplicate of the write
// end right after spawning the child, so the pipe closes when the child
// exits.
type Listener struct {
	r      io.ReadCloser
	target *Logger
	done   chan struct{}
	once   sync.Once
}

// NewListener wraps the read end of the bridge pipe.
func NewListener(r io.ReadCloser, target *Logger) *Listener {
	return &Listener{
		r:      r,
		target: target,
		done:   make(chan struct{}),
	}
}

// Start launches the background listener goroutine.
func (l *Listener) Start() {
	go l.run()
}

func (l *Listener) run() {
	defer close(l.done)
	// ReadBytes has no line-length cap. A fixed-size scanner would stop
	// draining on the first oversized record, dropping everything after it
	// and eventually blocking the child on a full pipe.
	reader := bufio.NewReader(l.r)
	for {
		line, err := reader.ReadBytes('\n')
		if trimmed := bytes.TrimSpace(line); len(trimmed) > 0 {
			l.replay(trimmed)
		}
		if err != nil {
			if err != io.EOF && !errors.Is(err, os.ErrClosed) && !errors.Is(err, io.ErrClosedPipe) {
				l.target.Emit(WARN, "log bridge read failed", map[string]any{"error": err.Error()})
			}
			return
		}
	}
}

func (l *Listener) replay(line []byte) {
	var entry LogEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		// Not one of ours; pass it through rather than lose it.
		l.target.Emit(INFO, string(line), nil)
		return
	}
	l.target.Emit(ParseLevel(entry.Level), entry.Message, entry.Fields)
}

// Stop drains the bridge to EOF, then releases the pipe. It must only be
// called once the child has exited (every harness path guarantees that), so
// the wait is bounded. Idempotent.
func (l *Listener) Stop() {
	l.once.Do(func() {
		<-l.done
		_ = l.r.Close()
	})
}

// Abort force-stops the listener without waiting for EOF, dropping any
// undelivered records. Used as a teardown safety net when the parent process
// itself is going away. Idempotent with Stop.
func (l *Listener) Abort() {
	l.once.Do(func() {
		_ = l.r.Close()
		<-l.done
	})
}
