package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"flag-quiz-service/internal/app"
	"flag-quiz-service/internal/domain"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
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

type answerPayload struct {
	Name string `json:"name"`
}

type outboundMessage struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// wsClient is one player's connection. Only the read loop calls handlers,
// so stopWatch needs no lock.
type wsClient struct {
	service      *app.QuizService
	playerID     string
	send         chan outboundMessage
	closeSignals chan struct{}
	writerDone   chan struct{}
	watchers     sync.WaitGroup
	stopWatch    func()
}

type messageHandler func(ctx context.Context, payload json.RawMessage) error

// ServeWS upgrades HTTP requests to websockets and wires them into the quiz use cases.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	playerID := r.URL.Query().Get("playerId")
	if playerID == "" {
		http.Error(w, "missing playerId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("ws upgrade failed")
		return
	}
	defer conn.Close()

	c := &wsClient{
		service:      h.service,
		playerID:     playerID,
		send:         make(chan outboundMessage, 16),
		closeSignals: make(chan struct{}),
		writerDone:   make(chan struct{}),
		stopWatch:    func() {},
	}

	// Single writer goroutine; gorilla connections allow one concurrent writer.
	go func() {
		defer close(c.writerDone)
		for msg := range c.send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Debug().Err(err).Str("player", playerID).Msg("ws write error")
				_ = conn.Close()
				return
			}
		}
	}()

	handlers := map[string]messageHandler{
		"start":  c.handleStart,
		"answer": c.handleAnswer,
		"next":   c.handleNext,
		"finish": c.handleFinish,
		"quit":   c.handleQuit,
	}

	// Resume a game left running by an earlier connection.
	if session, err := h.service.Session(playerID); err == nil {
		c.emit("question", session.View())
		c.watch(session)
	}

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		handle, ok := handlers[inbound.Type]
		if !ok {
			c.emit("error", errorPayload{Message: "unsupported message type"})
			continue
		}
		if err := handle(ctx, inbound.Payload); err != nil {
			c.emit("error", errorPayload{Message: err.Error()})
		}
	}

	c.stopWatch()
	close(c.closeSignals)
	c.watchers.Wait()
	close(c.send)
	<-c.writerDone
}

func (c *wsClient) handleStart(ctx context.Context, payload json.RawMessage) error {
	var req app.StartRequest
	if err := json.Unmarshal(payload, &req); err != nil {
		return errors.New("invalid start payload")
	}
	view, err := c.service.Start(ctx, c.playerID, req)
	if err != nil {
		return err
	}
	session, err := c.service.Session(c.playerID)
	if err != nil {
		return err
	}
	c.watch(session)
	c.emit("question", view)
	return nil
}

func (c *wsClient) handleAnswer(ctx context.Context, payload json.RawMessage) error {
	var req answerPayload
	if err := json.Unmarshal(payload, &req); err != nil {
		return errors.New("invalid answer payload")
	}
	outcome, err := c.service.Answer(ctx, c.playerID, req.Name)
	if err != nil {
		return err
	}
	c.emit("answerResult", outcome)
	return nil
}

// handleNext shows the results once a bounded game has no questions left.
func (c *wsClient) handleNext(ctx context.Context, _ json.RawMessage) error {
	view, err := c.service.Next(ctx, c.playerID)
	if errors.Is(err, domain.ErrQuizComplete) {
		return c.handleFinish(ctx, nil)
	}
	if err != nil {
		return err
	}
	c.emit("question", view)
	return nil
}

func (c *wsClient) handleFinish(ctx context.Context, _ json.RawMessage) error {
	summary, err := c.service.Finish(ctx, c.playerID)
	if err != nil {
		return err
	}
	c.emit("results", summary)
	return nil
}

func (c *wsClient) handleQuit(_ context.Context, _ json.RawMessage) error {
	c.stopWatch()
	c.service.Quit(c.playerID)
	return nil
}

// watch forwards the summary of a game the service finishes in the
// background. Starting a new game stops the previous watcher.
func (c *wsClient) watch(session *app.Session) {
	c.stopWatch()
	stop := make(chan struct{})
	var once sync.Once
	c.stopWatch = func() { once.Do(func() { close(stop) }) }

	c.watchers.Add(1)
	go func() {
		defer c.watchers.Done()
		select {
		case summary := <-session.Results():
			c.emit("results", summary)
		case <-stop:
		case <-c.closeSignals:
		}
	}()
}

func (c *wsClient) emit(typ string, payload any) {
	select {
	case c.send <- outboundMessage{Type: typ, Payload: payload}:
	case <-c.writerDone:
	}
}
