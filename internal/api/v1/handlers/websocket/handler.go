package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/deepgram/qabot/internal/api/v1/middleware"
	"github.com/deepgram/qabot/internal/connections"
	"github.com/deepgram/qabot/internal/services/conversation"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var (
	upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     sameOrigin,
	}
)

// sameOrigin accepts requests without an Origin header and those from the serving host
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return u.Host == r.Host
}

type client struct {
	conn      *websocket.Conn
	sessionID string
	timeouts  connections.TimeoutConfig
	writeMu   sync.Mutex
}

func (c *client) send(resp AssistantResponse) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(c.timeouts.WriteWait))
	return c.conn.WriteJSON(resp)
}

// HandleChatWebSocket runs turns for the request's session over a socket,
// reporting run progress as it is polled
func HandleChatWebSocket(conversationService *conversation.Service, manager *connections.Manager, w http.ResponseWriter, r *http.Request) {
	sessionID := middleware.GetSessionID(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to upgrade chat connection")
		return
	}

	c := &client{conn: conn, sessionID: sessionID, timeouts: manager.GetTimeouts()}
	manager.AddConnection(conn, sessionID)

	ctx, cancel := context.WithCancel(context.Background())
	var turns sync.WaitGroup
	defer func() {
		cancel()
		turns.Wait()
		manager.RemoveConnection(conn)
		conn.Close()
		log.Debug().Str("session_id", sessionID).Msg("Chat connection closed")
	}()

	log.Debug().
		Str("session_id", sessionID).
		Int("session_connections", manager.SessionConnectionCount(sessionID)).
		Int("connections", manager.GetConnectionCount()).
		Msg("Chat connection opened")

	conn.SetReadDeadline(time.Now().Add(c.timeouts.PongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(c.timeouts.PongWait))
	})

	go c.keepAlive(ctx)

	for {
		conn.SetReadDeadline(time.Now().Add(c.timeouts.PongWait))
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Str("session_id", sessionID).Msg("Unexpected chat connection closure")
			}
			return
		}

		var msg UserMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Warn().Err(err).Str("session_id", sessionID).Msg("Client sent malformed chat message")
			c.send(AssistantResponse{
				RequestID: uuid.New().String(),
				Content:   "Invalid message format",
				Status:    StatusError,
			})
			continue
		}

		turns.Add(1)
		go func() {
			defer turns.Done()
			c.runTurn(ctx, conversationService, msg)
		}()
	}
}

func (c *client) runTurn(ctx context.Context, conversationService *conversation.Service, msg UserMessage) {
	requestID := uuid.New().String()

	observe := func(ev conversation.Event) {
		switch ev.State {
		case conversation.StateRunSubmitted, conversation.StatePolling:
			if err := c.send(AssistantResponse{
				RequestID: requestID,
				MessageID: msg.MessageID,
				Content:   string(ev.Status),
				Status:    StatusStreaming,
				RunStatus: string(ev.Status),
			}); err != nil {
				log.Debug().Err(err).Str("request_id", requestID).Msg("Failed to send progress update")
			}
		}
	}

	_, reply, err := conversationService.Turn(ctx, c.sessionID, msg.Content, observe)

	resp := AssistantResponse{RequestID: requestID, MessageID: msg.MessageID}
	if err != nil {
		resp.Status = StatusError
		resp.Content = conversation.Display(err)
		log.Warn().
			Err(err).
			Str("session_id", c.sessionID).
			Str("request_id", requestID).
			Str("kind", conversation.KindOf(err).String()).
			Msg("Chat turn failed")
	} else {
		resp.Status = StatusComplete
		resp.Content = reply.Content
	}

	if ctx.Err() != nil {
		return
	}
	if err := c.send(resp); err != nil {
		log.Warn().Err(err).Str("request_id", requestID).Msg("Failed to send turn result")
	}
}

func (c *client) keepAlive(ctx context.Context) {
	ticker := time.NewTicker(c.timeouts.PingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			deadline := time.Now().Add(c.timeouts.WriteWait)
			if err := c.conn.WriteControl(websocket.PingMessage, nil, deadline); err != nil {
				return
			}
		case <-ctx.Done():
			return
		}
	}
}
