package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"aigateway/pkg/types"
)

const wsWriteWait = 10 * time.Second

// wsPongWait is how long a connection may stay silent between reads; NewMux
// captures it. Pongs and every handled frame renew the deadline.
var wsPongWait = 60 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// checkOrigin accepts same-origin upgrades, plus the CORS allow-list when
// CORS is enabled.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	if !corsEnabled {
		return false
	}
	for _, o := range corsAllowedOrigins {
		if o == "*" || strings.EqualFold(o, origin) {
			return true
		}
	}
	return false
}

// wsConn serializes writes; gorilla allows one concurrent writer.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (c *wsConn) write(f types.ChatFrame) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	_ = c.conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
	return c.conn.WriteJSON(f)
}

func (c *wsConn) ping() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteWait))
}

func errorFrame(sessionID string, status int, msg string) types.ChatFrame {
	return types.ChatFrame{
		Type:      "error",
		SessionID: sessionID,
		Error:     &types.ErrorResponse{Error: msg, Code: status},
	}
}

// chatWS godoc
// @Summary      Websocket chat
// @Description  Frames are types.ChatFrame. Send {"type":"ask"} or {"type":"clear"}; answers arrive in order on the same connection.
// @Tags         chat
// @Param        session_id  query  string  false  "Default session for frames without one"
// @Router       /v1/chat/ws [get]
func (h *handlers) chatWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		zlog.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	wsConnections.Inc()
	defer wsConnections.Dec()

	ctx, cancel := joinContexts(context.WithoutCancel(r.Context()), serverBaseCtx)
	defer cancel()

	c := &wsConn{conn: conn}
	defer conn.Close()

	conn.SetReadLimit(maxBodyBytes)
	_ = conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(h.pongWait))
	})

	go func() {
		t := time.NewTicker(h.pongWait * 9 / 10)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				if err := c.ping(); err != nil {
					return
				}
			}
		}
	}()

	defaultSession := r.URL.Query().Get("session_id")
	log := zlog.With().Str("remote", r.RemoteAddr).Logger()
	log.Debug().Msg("websocket chat open")

	for {
		var in types.ChatFrame
		if err := conn.ReadJSON(&in); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().Err(err).Msg("websocket read")
			}
			return
		}
		wsFramesTotal.WithLabelValues(frameLabel(in.Type)).Inc()
		if in.SessionID == "" {
			in.SessionID = defaultSession
		}
		out := h.handleFrame(ctx, in)
		if err := c.write(out); err != nil {
			log.Warn().Err(err).Msg("websocket write")
			return
		}
		if ctx.Err() != nil {
			return
		}
		if err := conn.SetReadDeadline(time.Now().Add(h.pongWait)); err != nil {
			return
		}
	}
}

func frameLabel(t string) string {
	switch t {
	case "ask", "clear", "ping":
		return t
	default:
		return "unknown"
	}
}

func (h *handlers) handleFrame(ctx context.Context, in types.ChatFrame) types.ChatFrame {
	switch in.Type {
	case "ping":
		return types.ChatFrame{Type: "pong", SessionID: in.SessionID}
	case "ask", "clear":
	default:
		return errorFrame(in.SessionID, http.StatusBadRequest, "unknown frame type")
	}
	if strings.TrimSpace(in.SessionID) == "" {
		return errorFrame("", http.StatusBadRequest, "session_id is required")
	}
	if in.Type == "clear" {
		if _, err := h.svc.Clear(ctx, in.SessionID); err != nil {
			return errorFrame(in.SessionID, statusFor(err), err.Error())
		}
		return types.ChatFrame{Type: "cleared", SessionID: in.SessionID}
	}

	askCtx := ctx
	if requestTimeout > 0 {
		var cancel context.CancelFunc
		askCtx, cancel = context.WithTimeout(ctx, requestTimeout)
		defer cancel()
	}
	ex, err := h.svc.Ask(askCtx, in.SessionID, in.Text, in.FileContextID)
	if err != nil {
		status := statusFor(err)
		if errors.Is(err, context.Canceled) {
			status = http.StatusServiceUnavailable
		}
		return errorFrame(in.SessionID, status, err.Error())
	}
	resp := ToQueryResponse(ex)
	return types.ChatFrame{Type: "answer", SessionID: in.SessionID, Answer: &resp}
}
