package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/utils"
)

type InterviewHandler struct {
	interviews services.InterviewService
	links      services.LinkService
}

func NewInterviewHandler(interviews services.InterviewService, links services.LinkService) *InterviewHandler {
	return &InterviewHandler{interviews: interviews, links: links}
}

// TurnRequestBody is the candidate message payload. Hint fields sit next to
// the message at the top level.
type TurnRequestBody struct {
	SessionID string `json:"sessionId"`
	Message   string `json:"message"`
	Start     bool   `json:"start"`
	services.SessionHints
}

func (b TurnRequestBody) toRequest() services.TurnRequest {
	return services.TurnRequest{
		SessionID: strings.TrimSpace(b.SessionID),
		Message:   b.Message,
		Start:     b.Start,
		Hints:     b.SessionHints,
	}
}

func (h *InterviewHandler) Message(c *gin.Context) {
	const op = "InterviewHandler.Message"

	var body TurnRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "invalid request body", err))
		return
	}

	res, err := runTurn(c, h.interviews, h.links, body.toRequest())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// runTurn checks the link signature, when an access token is present, before
// the turn reaches the session registry.
func runTurn(c *gin.Context, interviews services.InterviewService, links services.LinkService, req services.TurnRequest) (*services.TurnResult, error) {
	const op = "handlers.runTurn"

	if req.SessionID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}
	if req.Hints.AccessToken != "" {
		if err := links.Verify(req.Hints.AccessToken, req.SessionID); err != nil {
			return nil, err
		}
	}
	return interviews.HandleTurn(c.Request.Context(), req)
}
