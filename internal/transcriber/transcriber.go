package transcriber

import "context"

// FrameType identifies an inbound transcription protocol frame.
type FrameType string

const (
	FramePartial        FrameType = "partial_transcript"
	FrameCommitted      FrameType = "committed_transcript"
	FrameSessionStarted FrameType = "session_started"
	FrameError          FrameType = "error"
)

// Frame is one inbound message from the transcription provider, already
// decoded from the wire by the transport.
type Frame struct {
	Type      FrameType
	Text      string
	SessionID string
	Detail    string
}

// Conn is a live connection to the transcription provider.
type Conn interface {
	SendAudio(chunk []byte) error
	ReadFrame() (Frame, error)
	Close() error
}

// Transport dials transcription connections. Available reports whether a
// credential is configured; an unavailable transport puts sessions into
// degraded no-op mode.
type Transport interface {
	Connect(ctx context.Context) (Conn, error)
	Available() bool
}

// Callbacks receive transcript text from a session's listener. OnPartial is
// advisory and may be superseded; OnCommitted is the only trigger into
// extraction.
type Callbacks struct {
	OnPartial   func(text string)
	OnCommitted func(text string)
}
