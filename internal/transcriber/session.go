package transcriber

import (
	"context"
	"log/slog"
	"strings"
	"sync"
)

type State int

const (
	StateDisconnected State = iota
	StateConnecting
	StateStreaming
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateStreaming:
		return "streaming"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// timestampPlaceholder sometimes appears in committed transcripts in place
// of silence; it is stripped before the text reaches extraction.
const timestampPlaceholder = "00:00:00,000"

// Session owns one live transcription connection for a case. A background
// listener reads inbound frames independently of audio submission, so
// sending is never blocked by receiving. Stop cancels the listener and
// awaits it, guaranteeing no callback fires after Stop returns.
type Session struct {
	caseID    string
	transport Transport
	callbacks Callbacks

	mu           sync.Mutex
	state        State
	conn         Conn
	cancel       context.CancelFunc
	listenerDone chan struct{}
}

func NewSession(caseID string, transport Transport, callbacks Callbacks) *Session {
	return &Session{
		caseID:    caseID,
		transport: transport,
		callbacks: callbacks,
		state:     StateDisconnected,
	}
}

// State returns the current session state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Start connects and begins streaming. When no credential is configured or
// the connection fails, the session logs and stays disconnected (degraded
// no-op mode) instead of failing the caller.
func (s *Session) Start(ctx context.Context) {
	s.mu.Lock()
	if s.state != StateDisconnected {
		s.mu.Unlock()
		slog.Warn("transcript session start ignored", "case_id", s.caseID, "state", s.state.String())
		return
	}
	if !s.transport.Available() {
		s.mu.Unlock()
		slog.Warn("transcription credential not configured; session stays disconnected", "case_id", s.caseID)
		return
	}
	s.state = StateConnecting
	s.mu.Unlock()

	conn, err := s.transport.Connect(ctx)
	if err != nil {
		slog.Error("transcription connect failed; session stays disconnected", "error", err, "case_id", s.caseID)
		s.mu.Lock()
		s.state = StateDisconnected
		s.mu.Unlock()
		return
	}

	listenCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	s.mu.Lock()
	s.conn = conn
	s.cancel = cancel
	s.listenerDone = done
	s.state = StateStreaming
	s.mu.Unlock()

	go s.listen(listenCtx, conn, done)
	slog.Info("transcript session streaming", "case_id", s.caseID)
}

// SendAudio forwards an audio chunk to the provider. Valid only while
// streaming; calls in any other state are silently ignored.
func (s *Session) SendAudio(chunk []byte) {
	s.mu.Lock()
	if s.state != StateStreaming {
		s.mu.Unlock()
		return
	}
	conn := s.conn
	s.mu.Unlock()

	if err := conn.SendAudio(chunk); err != nil {
		slog.Error("failed to send audio chunk", "error", err, "case_id", s.caseID)
	}
}

// Stop cancels the listener and awaits its completion before closing the
// connection. After Stop returns, no callback will fire.
func (s *Session) Stop() {
	s.mu.Lock()
	switch s.state {
	case StateDisconnected:
		s.state = StateClosed
		s.mu.Unlock()
		return
	case StateClosed, StateClosing:
		s.mu.Unlock()
		return
	}
	s.state = StateClosing
	conn := s.conn
	cancel := s.cancel
	done := s.listenerDone
	s.mu.Unlock()

	cancel()
	// Closing the connection unblocks a listener stuck in ReadFrame.
	_ = conn.Close()
	<-done

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	slog.Info("transcript session closed", "case_id", s.caseID)
}

func (s *Session) listen(ctx context.Context, conn Conn, done chan struct{}) {
	defer close(done)
	for {
		frame, err := conn.ReadFrame()
		if err != nil {
			if ctx.Err() != nil {
				slog.Info("transcription listener stopped", "case_id", s.caseID)
			} else {
				slog.Warn("transcription connection lost", "error", err, "case_id", s.caseID)
				s.mu.Lock()
				if s.state == StateStreaming {
					s.state = StateClosed
				}
				s.mu.Unlock()
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		s.dispatch(frame)
	}
}

func (s *Session) dispatch(frame Frame) {
	switch frame.Type {
	case FramePartial:
		if s.callbacks.OnPartial != nil {
			s.callbacks.OnPartial(strings.TrimSpace(frame.Text))
		}
	case FrameCommitted:
		text := CleanCommittedText(frame.Text)
		if text != "" && s.callbacks.OnCommitted != nil {
			s.callbacks.OnCommitted(text)
		}
	case FrameSessionStarted:
		slog.Info("transcription provider session started", "case_id", s.caseID, "provider_session_id", frame.SessionID)
	case FrameError:
		slog.Error("transcription provider error", "case_id", s.caseID, "detail", frame.Detail)
	default:
		slog.Debug("ignoring transcription frame", "case_id", s.caseID, "frame_type", string(frame.Type))
	}
}

// CleanCommittedText strips timing placeholder tokens and collapses
// whitespace. Returns "" when nothing meaningful remains.
func CleanCommittedText(text string) string {
	text = strings.TrimSpace(text)
	for strings.Contains(text, timestampPlaceholder) {
		text = strings.TrimSpace(strings.ReplaceAll(text, timestampPlaceholder, ""))
	}
	return strings.Join(strings.Fields(text), " ")
}
