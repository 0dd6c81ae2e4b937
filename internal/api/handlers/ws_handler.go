package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/events"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/utils"
)

const (
	wsReadTimeout  = 60 * time.Second
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 25 * time.Second
)

type WSHandler struct {
	interviews services.InterviewService
	links      services.LinkService
	admin      services.AdminService
	events     events.Subscriber
	log        *logrus.Logger
	upgrader   websocket.Upgrader
}

func NewWSHandler(interviews services.InterviewService, links services.LinkService, admin services.AdminService, sub events.Subscriber, allowedOrigins []string, log *logrus.Logger) *WSHandler {
	return &WSHandler{
		interviews: interviews,
		links:      links,
		admin:      admin,
		events:     sub,
		log:        log,
		upgrader: websocket.Upgrader{
			CheckOrigin: originChecker(allowedOrigins),
		},
	}
}

// originChecker accepts requests without an Origin header (non-browser
// clients), any listed origin, or everything when "*" is listed.
func originChecker(allowed []string) func(r *http.Request) bool {
	set := map[string]struct{}{}
	for _, o := range allowed {
		set[strings.TrimRight(strings.TrimSpace(o), "/")] = struct{}{}
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if _, ok := set["*"]; ok {
			return true
		}
		_, ok := set[strings.TrimRight(origin, "/")]
		return ok
	}
}

type wsClientMsg struct {
	Type string `json:"type"` // start|message
	TurnRequestBody
}

type wsServerMsg struct {
	Type     string `json:"type"` // reply|error
	Code     string `json:"code,omitempty"`
	Message  string `json:"message"`
	Messages any    `json:"messages,omitempty"`
	Ended    bool   `json:"ended,omitempty"`
}

type wsConn struct {
	c  *websocket.Conn
	mu sync.Mutex
}

func (w *wsConn) write(messageType int, b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	_ = w.c.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return w.c.WriteMessage(messageType, b)
}

func (w *wsConn) writeJSON(v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return w.write(websocket.TextMessage, b)
}

func (w *wsConn) writeError(err error) error {
	msg := wsServerMsg{Type: "error", Code: string(utils.CodeOf(err)), Message: err.Error()}
	var ae *utils.AppError
	if errors.As(err, &ae) && ae.Message != "" {
		msg.Message = ae.Message
	}
	return w.writeJSON(msg)
}

// keepAlive pings until ctx is done so idle connections survive proxies.
func (w *wsConn) keepAlive(ctx context.Context) {
	t := time.NewTicker(wsPingInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := w.write(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func extendDeadlineOnPong(conn *websocket.Conn) {
	_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsReadTimeout))
	})
}

// CandidateWS runs turns over a websocket. The access token may be given as
// the "token" query parameter once instead of in every message.
func (h *WSHandler) CandidateWS(c *gin.Context) {
	const op = "WSHandler.CandidateWS"

	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing session_id", nil))
		return
	}
	accessToken := c.Query("token")
	if accessToken != "" {
		if err := h.links.Verify(accessToken, sessionID); err != nil {
			writeError(c, err)
			return
		}
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	go wc.keepAlive(ctx)

	log := h.log.WithField("session_id", sessionID)
	extendDeadlineOnPong(conn)

	for {
		_, data, rerr := conn.ReadMessage()
		if rerr != nil {
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsReadTimeout))

		var msg wsClientMsg
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = wc.writeError(utils.E(utils.CodeInvalidArgument, op, "invalid json", err))
			continue
		}

		req := msg.toRequest()
		req.SessionID = sessionID
		switch msg.Type {
		case "start":
			req.Start = true
		case "message", "":
		default:
			_ = wc.writeError(utils.E(utils.CodeInvalidArgument, op, "unknown message type", nil))
			continue
		}
		if req.Hints.AccessToken == "" {
			req.Hints.AccessToken = accessToken
		} else if req.Hints.AccessToken != accessToken {
			if err := h.links.Verify(req.Hints.AccessToken, sessionID); err != nil {
				_ = wc.writeError(err)
				continue
			}
		}

		res, err := h.interviews.HandleTurn(ctx, req)
		if err != nil {
			log.WithError(err).Warn("websocket turn rejected")
			_ = wc.writeError(err)
			continue
		}

		out := wsServerMsg{Type: "reply", Message: res.Message, Ended: res.Ended}
		if len(res.Messages) > 0 {
			out.Messages = res.Messages
		}
		if err := wc.writeJSON(out); err != nil {
			return
		}
		if res.Ended {
			_ = wc.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "interview ended"))
			return
		}
	}
}

// MonitorWS forwards live transcript events of one session to the owning
// employer.
func (h *WSHandler) MonitorWS(c *gin.Context) {
	const op = "WSHandler.MonitorWS"

	token, ok := requireEmployerToken(c)
	if !ok {
		return
	}
	sessionID := strings.TrimSpace(c.Param("session_id"))
	if sessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "missing session_id", nil))
		return
	}
	if _, err := h.admin.AuthorizeSession(c.Request.Context(), token, sessionID); err != nil {
		writeError(c, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	wc := &wsConn{c: conn}
	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	stream, unsubscribe, err := h.events.Subscribe(ctx, sessionID)
	if err != nil {
		h.log.WithError(err).WithField("session_id", sessionID).Warn("event subscribe failed")
		_ = wc.writeError(utils.E(utils.CodeUnavailable, op, "live events unavailable", err))
		return
	}
	defer unsubscribe()
	go wc.keepAlive(ctx)

	// drain client frames to notice the close
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		extendDeadlineOnPong(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-readDone:
			return
		case <-ctx.Done():
			return
		case payload, ok := <-stream:
			if !ok {
				return
			}
			if err := wc.write(websocket.TextMessage, payload); err != nil {
				return
			}
		}
	}
}
