package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yoockh/interviewer/internal/events"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/utils"
)

func wsURL(srv *httptest.Server, path string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + path
}

func wsServer(h *WSHandler, token string) *httptest.Server {
	r := gin.New()
	r.GET("/ws/interview/:session_id", h.CandidateWS)
	r.GET("/admin/ws/interviews/:session_id", withEmployer(token), h.MonitorWS)
	return httptest.NewServer(r)
}

func TestCandidateWSRunsTurns(t *testing.T) {
	interviews := &fakeInterviews{}
	links := &fakeLinks{}
	h := NewWSHandler(interviews, links, &fakeAdmin{}, events.NewMemoryBus(), nil, nullLogger())
	srv := wsServer(h, "")
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/interview/s-1?token=tok"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "start"}))
	var reply wsServerMsg
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "reply", reply.Type)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "message", "message": "Ana"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "echo: Ana", reply.Message)

	assert.Equal(t, []string{"tok@s-1"}, links.verified)
	require.Equal(t, 2, interviews.count())
	last := interviews.last()
	assert.Equal(t, "s-1", last.SessionID)
	assert.Equal(t, "tok", last.Hints.AccessToken)
	assert.Equal(t, "Ana", last.Message)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, "error", reply.Type)
	assert.Equal(t, string(utils.CodeInvalidArgument), reply.Code)
}

func TestCandidateWSClosesWhenEnded(t *testing.T) {
	interviews := &fakeInterviews{res: &services.TurnResult{Message: "Thank you.", Ended: true}}
	h := NewWSHandler(interviews, &fakeLinks{}, &fakeAdmin{}, events.NewMemoryBus(), nil, nullLogger())
	srv := wsServer(h, "")
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/interview/s-1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"message": "no questions"}))
	var reply wsServerMsg
	require.NoError(t, conn.ReadJSON(&reply))
	assert.True(t, reply.Ended)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure))
}

func TestCandidateWSRejectsBadToken(t *testing.T) {
	links := &fakeLinks{verify: utils.E(utils.CodeUnauthorized, "LinkService.Verify", "invalid access token", nil)}
	h := NewWSHandler(&fakeInterviews{}, links, &fakeAdmin{}, events.NewMemoryBus(), nil, nullLogger())
	srv := wsServer(h, "")
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/ws/interview/s-1?token=bad"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMonitorWSForwardsEvents(t *testing.T) {
	bus := events.NewMemoryBus()
	h := NewWSHandler(&fakeInterviews{}, &fakeLinks{}, &fakeAdmin{}, bus, nil, nullLogger())
	srv := wsServer(h, "acme")
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, "/admin/ws/interviews/s-1"), nil)
	require.NoError(t, err)
	defer conn.Close()

	ev := events.Event{Type: events.TypeTurn, SessionID: "s-1", Stage: models.StageTechnical.String(), Turns: []models.Turn{{Speaker: models.SpeakerCandidate, Text: "hi"}}}
	// the subscription is registered right after the upgrade, so keep
	// publishing until the first event arrives
	done := make(chan struct{})
	defer close(done)
	go func() {
		tick := time.NewTicker(10 * time.Millisecond)
		defer tick.Stop()
		for {
			select {
			case <-done:
				return
			case <-tick.C:
				_ = bus.Publish(context.Background(), "s-1", ev)
			}
		}
	}()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)

	var got events.Event
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, "technical", got.Stage)
	assert.Equal(t, "s-1", got.SessionID)
}

func TestMonitorWSChecksOwnership(t *testing.T) {
	admin := &fakeAdmin{err: utils.E(utils.CodeForbidden, "AdminService.AuthorizeSession", "interview belongs to another employer", utils.ErrOwnershipMismatch)}
	h := NewWSHandler(&fakeInterviews{}, &fakeLinks{}, admin, events.NewMemoryBus(), nil, nullLogger())
	srv := wsServer(h, "acme")
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "/admin/ws/interviews/s-1"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"https://app.example/"})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://app.example")
	assert.True(t, check(req))

	req.Header.Set("Origin", "https://evil.example")
	assert.False(t, check(req))

	assert.True(t, originChecker([]string{"*"})(req))
}
