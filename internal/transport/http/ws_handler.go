package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"admission-quiz-service/internal/app"
	"admission-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
)

// QuizHandler serves one quiz session per websocket connection. The
// connection's lifetime bounds the session's ticker: closing the socket
// cancels the clock on every path.
type QuizHandler struct {
	service  *app.Service
	upgrader websocket.Upgrader
}

func NewQuizHandler(service *app.Service) *QuizHandler {
	return &QuizHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type authenticatePayload struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
}

type answerPayload struct {
	QuestionID int    `json:"questionId"`
	Option     string `json:"option"`
}

type navigatePayload struct {
	Index int `json:"index"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

// ServeQuiz upgrades the request and drives a full session over the socket.
func (h *QuizHandler) ServeQuiz(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	session, err := h.service.NewSession(ctx)
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "quiz is unavailable right now"}})
		return
	}

	send := make(chan outboundMessage[any], 16)
	writerDone := make(chan struct{})
	runnerDone := make(chan struct{})

	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				// Keep draining so producers never block on a dead socket.
				for range send {
				}
				return
			}
		}
	}()

	push := func(msg outboundMessage[any]) {
		select {
		case send <- msg:
		case <-ctx.Done():
		}
	}

	go func() {
		defer close(runnerDone)
		session.Run(ctx, time.Second, func(snap app.Snapshot) {
			push(outboundMessage[any]{Type: "state", Payload: snap})
		})
	}()

	push(outboundMessage[any]{Type: "state", Payload: session.Snapshot()})

	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		ev, perr := decodeEvent(inbound)
		if perr != nil {
			push(outboundMessage[any]{Type: "error", Payload: errorPayload{Message: perr.Error()}})
			continue
		}

		snap, err := applyEvent(ctx, session, ev)
		if err != nil {
			push(outboundMessage[any]{Type: "error", Payload: describeError(err)})
		}
		push(outboundMessage[any]{Type: "state", Payload: snap})

		if snap.State == app.StateExited {
			break
		}
	}

	cancel()
	<-runnerDone
	close(send)
	<-writerDone
}

// applyEvent feeds the session and converts any panic into the generic error
// terminal, so an unexpected fault still leaves the student an exit and no
// running timer.
func applyEvent(ctx context.Context, session *app.Session, ev app.Event) (snap app.Snapshot, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("session fault: %v", rec)
			snap = session.Fail("")
			err = nil
		}
	}()
	return session.Apply(ctx, ev)
}

func decodeEvent(msg inboundMessage) (app.Event, error) {
	switch msg.Type {
	case "authenticate":
		var p authenticatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid authenticate payload")
		}
		return app.Authenticate{StudentID: p.StudentID, StudentName: p.StudentName}, nil
	case "acknowledge":
		return app.Acknowledge{}, nil
	case "answer":
		var p answerPayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid answer payload")
		}
		return app.Answer{QuestionID: p.QuestionID, Option: p.Option}, nil
	case "navigate":
		var p navigatePayload
		if err := json.Unmarshal(msg.Payload, &p); err != nil {
			return nil, errors.New("invalid navigate payload")
		}
		return app.Navigate{Index: p.Index}, nil
	case "submit":
		return app.Submit{}, nil
	case "exit":
		return app.ExitNow{}, nil
	}
	return nil, errors.New("unsupported message type")
}

func describeError(err error) errorPayload {
	var ve *domain.ValidationError
	if errors.As(err, &ve) {
		return errorPayload{Field: ve.Field, Message: ve.Error()}
	}
	if errors.Is(err, domain.ErrPersistence) {
		return errorPayload{Message: "your attempt could not be saved"}
	}
	return errorPayload{Message: err.Error()}
}

// ResultsHandler streams the ledger to dashboard views: the full contents on
// connect, then one message per append, replacing storage-event polling.
type ResultsHandler struct {
	ledger   app.Ledger
	upgrader websocket.Upgrader
}

func NewResultsHandler(ledger app.Ledger) *ResultsHandler {
	return &ResultsHandler{
		ledger: ledger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

func (h *ResultsHandler) ServeResults(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	records, err := h.ledger.ListAll(r.Context())
	if err != nil {
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: "results are unavailable"}})
		return
	}
	if err := conn.WriteJSON(outboundMessage[[]domain.AttemptRecord]{Type: "results", Payload: records}); err != nil {
		return
	}

	updates, cancel := h.ledger.Subscribe()
	defer cancel()

	closeSignals := make(chan struct{})
	pumpDone := make(chan struct{})

	go func() {
		defer close(pumpDone)
		for {
			select {
			case record, ok := <-updates:
				if !ok {
					return
				}
				if err := conn.WriteJSON(outboundMessage[domain.AttemptRecord]{Type: "append", Payload: record}); err != nil {
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	// Reads are discarded; the loop exists to notice the peer going away.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-pumpDone
}
