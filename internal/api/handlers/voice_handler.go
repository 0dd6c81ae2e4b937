package handlers

import (
	"bytes"
	"io"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/prompts"
	"github.com/yoockh/interviewer/internal/providers/stt"
	"github.com/yoockh/interviewer/internal/services"
	"github.com/yoockh/interviewer/internal/storage"
	"github.com/yoockh/interviewer/internal/utils"
)

const maxAudioBytes = 10 << 20

type VoiceHandler struct {
	interviews services.InterviewService
	links      services.LinkService
	speech     stt.Provider     // nil disables voice turns
	archive    storage.Uploader // optional
	log        *logrus.Logger
	now        func() time.Time
}

func NewVoiceHandler(interviews services.InterviewService, links services.LinkService, speech stt.Provider, archive storage.Uploader, log *logrus.Logger) *VoiceHandler {
	return &VoiceHandler{
		interviews: interviews,
		links:      links,
		speech:     speech,
		archive:    archive,
		log:        log,
		now:        time.Now,
	}
}

type VoiceTurnResponse struct {
	services.TurnResult
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	AudioPath  string  `json:"audioPath,omitempty"`
}

// Turn accepts a multipart form with an "audio" file plus the same fields as
// the text turn endpoint.
func (h *VoiceHandler) Turn(c *gin.Context) {
	const op = "VoiceHandler.Turn"

	if h.speech == nil {
		writeError(c, utils.E(utils.CodeNotFound, op, "voice turns are not enabled", nil))
		return
	}

	body := TurnRequestBody{
		SessionID: c.PostForm("sessionId"),
		Start:     c.PostForm("start") == "true",
		SessionHints: services.SessionHints{
			Role:           c.PostForm("role"),
			RoleID:         c.PostForm("roleId"),
			EmployerToken:  c.PostForm("employerToken"),
			CandidateEmail: c.PostForm("candidateEmail"),
			AccessToken:    c.PostForm("accessToken"),
			Language:       c.PostForm("language"),
		},
	}
	req := body.toRequest()
	if req.SessionID == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil))
		return
	}

	fh, err := c.FormFile("audio")
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file is required", err))
		return
	}
	if fh.Size > maxAudioBytes {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "audio file too large", nil))
		return
	}
	f, err := fh.Open()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio", err))
		return
	}
	audio, err := io.ReadAll(io.LimitReader(f, maxAudioBytes))
	_ = f.Close()
	if err != nil {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "failed to read audio", err))
		return
	}

	ctx := c.Request.Context()
	log := h.log.WithField("session_id", req.SessionID)

	if req.Hints.AccessToken != "" {
		if err := h.links.Verify(req.Hints.AccessToken, req.SessionID); err != nil {
			writeError(c, err)
			return
		}
	}

	var audioPath string
	if h.archive != nil {
		name := storage.AudioObjectName(req.SessionID, h.now(), filepath.Ext(fh.Filename))
		contentType := fh.Header.Get("Content-Type")
		if contentType == "" {
			contentType = "audio/webm"
		}
		audioPath, err = h.archive.Upload(ctx, name, contentType, bytes.NewReader(audio))
		if err != nil {
			log.WithError(err).Warn("audio archive failed")
			audioPath = ""
		}
	}

	text, confidence, err := h.speech.Transcribe(ctx, audio, prompts.NormalizeLanguage(req.Hints.Language))
	if err != nil {
		writeError(c, utils.E(utils.CodeUnavailable, op, "transcription failed", err))
		return
	}
	text = strings.TrimSpace(text)
	if text == "" {
		writeError(c, utils.E(utils.CodeInvalidArgument, op, "no speech recognized", nil))
		return
	}
	req.Message = text

	res, err := h.interviews.HandleTurn(ctx, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, VoiceTurnResponse{
		TurnResult: *res,
		Transcript: text,
		Confidence: confidence,
		AudioPath:  audioPath,
	})
}
