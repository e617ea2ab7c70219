package transcriber

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"
)

type fakeConn struct {
	frames chan Frame
	mu     sync.Mutex
	closed bool
	sent   [][]byte
}

func newFakeConn() *fakeConn {
	return &fakeConn{frames: make(chan Frame, 16)}
}

func (c *fakeConn) SendAudio(chunk []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return io.ErrClosedPipe
	}
	c.sent = append(c.sent, chunk)
	return nil
}

func (c *fakeConn) ReadFrame() (Frame, error) {
	frame, ok := <-c.frames
	if !ok {
		return Frame{}, io.EOF
	}
	return frame, nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.frames)
	}
	return nil
}

type fakeTransport struct {
	conn       *fakeConn
	available  bool
	connectErr error
}

func (t *fakeTransport) Connect(_ context.Context) (Conn, error) {
	if t.connectErr != nil {
		return nil, t.connectErr
	}
	return t.conn, nil
}

func (t *fakeTransport) Available() bool { return t.available }

func waitUntil(t *testing.T, timeout time.Duration, cond func() bool, message string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal(message)
}

func TestSession_DispatchesPartialAndCommitted(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}

	var mu sync.Mutex
	var partials, committed []string
	sess := NewSession("case-1", transport, Callbacks{
		OnPartial: func(text string) {
			mu.Lock()
			partials = append(partials, text)
			mu.Unlock()
		},
		OnCommitted: func(text string) {
			mu.Lock()
			committed = append(committed, text)
			mu.Unlock()
		},
	})

	sess.Start(context.Background())
	if sess.State() != StateStreaming {
		t.Fatalf("expected streaming state, got %s", sess.State())
	}

	conn.frames <- Frame{Type: FramePartial, Text: " hello "}
	conn.frames <- Frame{Type: FrameCommitted, Text: "patient  is   stable"}

	waitUntil(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(partials) == 1 && len(committed) == 1
	}, "expected one partial and one committed callback")

	mu.Lock()
	defer mu.Unlock()
	if partials[0] != "hello" {
		t.Fatalf("unexpected partial text: %q", partials[0])
	}
	if committed[0] != "patient is stable" {
		t.Fatalf("unexpected committed text: %q", committed[0])
	}
	sess.Stop()
}

func TestSession_EmptyCommittedIsDropped(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}

	var mu sync.Mutex
	var committed []string
	sess := NewSession("case-1", transport, Callbacks{
		OnCommitted: func(text string) {
			mu.Lock()
			committed = append(committed, text)
			mu.Unlock()
		},
	})
	sess.Start(context.Background())

	conn.frames <- Frame{Type: FrameCommitted, Text: "  00:00:00,000  "}
	conn.frames <- Frame{Type: FrameCommitted, Text: "real text"}

	waitUntil(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(committed) == 1
	}, "expected only the non-empty committed callback")

	mu.Lock()
	if committed[0] != "real text" {
		t.Fatalf("unexpected committed text: %q", committed[0])
	}
	mu.Unlock()
	sess.Stop()
}

func TestSession_ErrorFramesAreNotSurfaced(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}

	var mu sync.Mutex
	var callbacks int
	sess := NewSession("case-1", transport, Callbacks{
		OnPartial:   func(string) { mu.Lock(); callbacks++; mu.Unlock() },
		OnCommitted: func(string) { mu.Lock(); callbacks++; mu.Unlock() },
	})
	sess.Start(context.Background())

	conn.frames <- Frame{Type: FrameError, Detail: "quota_exceeded"}
	conn.frames <- Frame{Type: FrameSessionStarted, SessionID: "prov-1"}
	conn.frames <- Frame{Type: FrameCommitted, Text: "after errors"}

	waitUntil(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return callbacks == 1
	}, "expected exactly one callback from the committed frame")
	sess.Stop()
}

func TestSession_SendAudioOnlyWhileStreaming(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}
	sess := NewSession("case-1", transport, Callbacks{})

	// Disconnected: silently ignored.
	sess.SendAudio([]byte{1})

	sess.Start(context.Background())
	sess.SendAudio([]byte{2})

	sess.Stop()
	sess.SendAudio([]byte{3})

	conn.mu.Lock()
	defer conn.mu.Unlock()
	if len(conn.sent) != 1 || conn.sent[0][0] != 2 {
		t.Fatalf("expected only the streaming-state chunk, got %v", conn.sent)
	}
}

func TestSession_StopAwaitsListener(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}

	var mu sync.Mutex
	var committed int
	sess := NewSession("case-1", transport, Callbacks{
		OnCommitted: func(string) {
			mu.Lock()
			committed++
			mu.Unlock()
		},
	})
	sess.Start(context.Background())
	conn.frames <- Frame{Type: FrameCommitted, Text: "before stop"}
	waitUntil(t, time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return committed == 1
	}, "expected committed callback before stop")

	sess.Stop()
	if sess.State() != StateClosed {
		t.Fatalf("expected closed state, got %s", sess.State())
	}

	// No callback may fire after Stop returned.
	mu.Lock()
	after := committed
	mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if committed != after {
		t.Fatal("callback fired after Stop returned")
	}
}

func TestSession_StopIsIdempotent(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}
	sess := NewSession("case-1", transport, Callbacks{})
	sess.Start(context.Background())
	sess.Stop()
	sess.Stop()
	if sess.State() != StateClosed {
		t.Fatalf("expected closed state, got %s", sess.State())
	}
}

func TestSession_DegradedWithoutCredential(t *testing.T) {
	transport := &fakeTransport{available: false}
	sess := NewSession("case-1", transport, Callbacks{})

	sess.Start(context.Background())
	if sess.State() != StateDisconnected {
		t.Fatalf("expected disconnected state, got %s", sess.State())
	}

	// Audio submission in degraded mode must not panic.
	sess.SendAudio([]byte{1, 2, 3})

	sess.Stop()
	if sess.State() != StateClosed {
		t.Fatalf("expected closed state after stop, got %s", sess.State())
	}
}

func TestSession_ConnectFailureStaysDisconnected(t *testing.T) {
	transport := &fakeTransport{available: true, connectErr: errors.New("dial failed")}
	sess := NewSession("case-1", transport, Callbacks{})

	sess.Start(context.Background())
	if sess.State() != StateDisconnected {
		t.Fatalf("expected disconnected state, got %s", sess.State())
	}
}

func TestSession_TransportFailureClosesSession(t *testing.T) {
	conn := newFakeConn()
	transport := &fakeTransport{conn: conn, available: true}
	sess := NewSession("case-1", transport, Callbacks{})
	sess.Start(context.Background())

	// Remote close: the listener exits cleanly and the session closes.
	_ = conn.Close()
	waitUntil(t, time.Second, func() bool { return sess.State() == StateClosed }, "expected session to close after transport failure")
}

func TestCleanCommittedText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"hello world", "hello world"},
		{"  spaced   out  ", "spaced out"},
		{"00:00:00,000", ""},
		{"before 00:00:00,000 after", "before after"},
		{"00:00:00,000 00:00:00,000 text", "text"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := CleanCommittedText(tt.in); got != tt.want {
			t.Fatalf("CleanCommittedText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
