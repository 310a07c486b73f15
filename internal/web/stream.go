package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/hpungsan/spark/internal/errors"
	"github.com/hpungsan/spark/internal/matcher"
	"github.com/hpungsan/spark/internal/ops"
)

const (
	streamPongWait  = 60 * time.Second
	streamPingEvery = 50 * time.Second
	streamWriteWait = 10 * time.Second
)

// The default origin check rejects cross-site pages; native clients send no
// Origin header.
var upgrader = websocket.Upgrader{}

// streamInbound is a client message. Type is "key" for a typed character or
// "reset" to clear the typing buffer, e.g. after the caret moved.
type streamInbound struct {
	Type string `json:"type"`
	Char string `json:"char,omitempty"`
	App  string `json:"app,omitempty"`
	Seq  int64  `json:"seq,omitempty"`
}

type streamOutbound struct {
	Type     string            `json:"type"`
	Seq      int64             `json:"seq,omitempty"`
	Context  string            `json:"context,omitempty"`
	Decision *matcher.Decision `json:"decision,omitempty"`
	Code     string            `json:"code,omitempty"`
	Message  string            `json:"message,omitempty"`
}

// HandleStream handles GET /api/stream. Every connection is its own input
// context: keystrokes in, one decision per keystroke out.
func (h *Handlers) HandleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Debug("stream upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	inputKey := "ws:" + uuid.NewString()
	defer h.engine.ForgetInput(h.owner, inputKey)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	if err := conn.SetReadDeadline(time.Now().Add(streamPongWait)); err != nil {
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(streamPongWait))
	})

	writeCh := make(chan streamOutbound, 32)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		ticker := time.NewTicker(streamPingEvery)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case out := <-writeCh:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteJSON(out); err != nil {
					return
				}
			case <-ticker.C:
				if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
					return
				}
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			}
		}
	}()
	defer func() {
		cancel()
		<-writerDone
	}()

	push := func(out streamOutbound) bool {
		select {
		case writeCh <- out:
			return true
		case <-writerDone:
			return false
		}
	}

	h.logger.Debug("stream opened", slog.String("context", inputKey))
	if !push(streamOutbound{Type: "ready", Context: inputKey}) {
		return
	}

	for {
		var msg streamInbound
		if err := conn.ReadJSON(&msg); err != nil {
			h.logger.Debug("stream closed", slog.String("context", inputKey))
			return
		}

		switch msg.Type {
		case "key":
			ch, err := ops.ParseKeyChar(msg.Char)
			if err != nil {
				if !push(streamError(msg.Seq, err)) {
					return
				}
				continue
			}
			d := h.engine.OnKeystroke(h.owner, inputKey, ch, msg.App)
			if !push(streamOutbound{Type: "decision", Seq: msg.Seq, Decision: &d}) {
				return
			}
		case "reset":
			h.engine.ForgetInput(h.owner, inputKey)
		default:
			if !push(streamError(msg.Seq, errors.NewValidation("type", "unknown message type: "+msg.Type))) {
				return
			}
		}
	}
}

func streamError(seq int64, err error) streamOutbound {
	sErr, ok := errors.As(err)
	if !ok {
		sErr = errors.NewInternal(err)
	}
	return streamOutbound{Type: "error", Seq: seq, Code: string(sErr.Code), Message: sErr.Message}
}
