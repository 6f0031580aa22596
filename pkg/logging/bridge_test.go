package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"testing"
)

func TestBridgeRoundTrip(t *testing.T) {
	var sink bytes.Buffer
	parent := NewLogger(DEBUG, true)
	parent.SetOutput(&sink)

	r, w := io.Pipe()
	listener := NewListener(r, parent)
	listener.Start()

	// Child side: forwarder at INFO or above
	forwarder := NewForwarder(w, INFO)
	forwarder.Debug("dropped by forwarder level")
	forwarder.Info("forwarded info", map[string]any{"job": "a"})
	forwarder.Warn("forwarded warn")

	// EOF signals the end of the child's records
	w.Close()
	listener.Stop()

	var entries []LogEntry
	for _, line := range strings.Split(strings.TrimSpace(sink.String()), "\n") {
		if line == "" {
			continue
		}
		var e LogEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad sink line %q: %v", line, err)
		}
		entries = append(entries, e)
	}

	if len(entries) != 2 {
		t.Fatalf("Expected 2 replayed records, got %d: %v", len(entries), entries)
	}
	if entries[0].Level != "INFO" || entries[0].Message != "forwarded info" {
		t.Errorf("First record replayed wrong: %+v", entries[0])
	}
	if entries[0].Fields["job"] != "a" {
		t.Errorf("Fields should survive the bridge, got %v", entries[0].Fields)
	}
	if entries[1].Level != "WARN" || entries[1].Message != "forwarded warn" {
		t.Errorf("Second record replayed wrong: %+v", entries[1])
	}
}

func TestBridgePassesThroughUnparsableLines(t *testing.T) {
	var sink bytes.Buffer
	parent := NewLogger(DEBUG, true)
	parent.SetOutput(&sink)

	r, w := io.Pipe()
	listener := NewListener(r, parent)
	listener.Start()

	io.WriteString(w, "plain text line\n")
	w.Close()
	listener.Stop()

	if !strings.Contains(sink.String(), "plain text line") {
		t.Errorf("Unparsable lines should not be lost, sink: %s", sink.String())
	}
}

func TestBridgeForwardsOversizedRecords(t *testing.T) {
	var sink bytes.Buffer
	parent := NewLogger(DEBUG, true)
	parent.SetOutput(&sink)

	r, w := io.Pipe()
	listener := NewListener(r, parent)
	listener.Start()

	// Well past any fixed scanner token cap
	big := strings.Repeat("x", 80*1024)
	forwarder := NewForwarder(w, INFO)
	forwarder.Info(big)
	forwarder.Warn("after the big one")

	w.Close()
	listener.Stop()

	if !strings.Contains(sink.String(), big) {
		t.Error("Oversized record should be replayed, not dropped")
	}
	if !strings.Contains(sink.String(), "after the big one") {
		t.Error("Records after an oversized one should still be replayed")
	}
}

func TestBridgeStopIsIdempotent(t *testing.T) {
	parent := NewLogger(DEBUG, true)
	parent.SetOutput(io.Discard)

	r, w := io.Pipe()
	listener := NewListener(r, parent)
	listener.Start()

	w.Close()
	listener.Stop()
	listener.Stop()
	listener.Abort()
}

func TestBridgeAbortUnblocksWithoutEOF(t *testing.T) {
	parent := NewLogger(DEBUG, true)
	parent.SetOutput(io.Discard)

	r, _ := io.Pipe()
	listener := NewListener(r, parent)
	listener.Start()

	// Write end still open: Abort must not wait for EOF
	done := make(chan struct{})
	go func() {
		listener.Abort()
		close(done)
	}()
	<-done
}
