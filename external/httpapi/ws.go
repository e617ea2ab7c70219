package httpapi

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/relaylabs/relay/internal/eventbus"
	"github.com/relaylabs/relay/internal/session"
)

func isNotFound(err error) bool {
	return errors.Is(err, session.ErrCaseNotFound)
}

// handleStreamSocket is the ambulance-side socket: binary messages carry
// PCM audio in, case events stream out as JSON.
func (s *Server) handleStreamSocket(c *gin.Context) {
	caseID := c.Param("id")
	if err := s.cases.StartStream(c.Request.Context(), caseID); err != nil {
		switch {
		case isNotFound(err):
			c.JSON(http.StatusNotFound, failure("case not found"))
		case errors.Is(err, session.ErrStreamActive):
			c.JSON(http.StatusConflict, failure("stream already active"))
		case errors.Is(err, session.ErrCaseCompleted):
			c.JSON(http.StatusConflict, failure("case already completed"))
		default:
			c.JSON(http.StatusInternalServerError, failure("failed to start stream"))
		}
		return
	}

	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.cases.StopStream(caseID)
		slog.Error("stream socket upgrade failed", "error", err, "case_id", caseID)
		return
	}

	sub := s.bus.Subscribe(caseID)
	done := make(chan struct{})
	go s.writeEvents(conn, sub, done)

	defer func() {
		close(done)
		s.bus.Unsubscribe(caseID, sub)
		s.cases.StopStream(caseID)
		_ = conn.Close()
	}()

	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				slog.Warn("stream socket closed unexpectedly", "error", err, "case_id", caseID)
			}
			return
		}
		if messageType == websocket.BinaryMessage {
			s.cases.SendAudio(caseID, data)
		}
	}
}

// handleHospitalSocket is the hospital-side socket: a read-only feed of
// every case event.
func (s *Server) handleHospitalSocket(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Error("hospital socket upgrade failed", "error", err)
		return
	}

	sub := s.bus.SubscribeAll()
	done := make(chan struct{})
	go s.writeEvents(conn, sub, done)

	defer func() {
		close(done)
		s.bus.UnsubscribeAll(sub)
		_ = conn.Close()
	}()

	// Inbound messages are ignored; the read loop only detects the close.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writeEvents is the socket's single writer goroutine. The bus never closes
// subscription channels, so the handler signals shutdown through done.
func (s *Server) writeEvents(conn *websocket.Conn, sub *eventbus.Subscription, done <-chan struct{}) {
	for {
		select {
		case ev := <-sub.Events():
			if err := conn.WriteJSON(ev); err != nil {
				_ = conn.Close()
				return
			}
		case <-done:
			return
		}
	}
}
