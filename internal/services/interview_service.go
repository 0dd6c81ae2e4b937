package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/events"
	"github.com/yoockh/interviewer/internal/logger"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/prompts"
	"github.com/yoockh/interviewer/internal/providers/llm"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/utils"
)

// RatingDispatcher hands finished interviews to the rating workers.
type RatingDispatcher interface {
	Enqueue(ctx context.Context, job models.RatingJob) error
}

type TurnRequest struct {
	SessionID string
	Message   string
	Hints     SessionHints
	Start     bool
}

type TurnResult struct {
	Message  string        `json:"message"`
	Messages []models.Turn `json:"messages,omitempty"`
	Ended    bool          `json:"ended"`
}

type InterviewService interface {
	HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error)
}

type InterviewConfig struct {
	// StageLimits[stage] answered questions move the interview to the next
	// stage. Missing entries default to 1.
	StageLimits     []int
	TurnMaxAttempts int
	TurnRetryDelay  time.Duration
}

type interviewService struct {
	registry   SessionRegistry
	interviews pgrepo.InterviewRepository
	messages   pgrepo.MessageRepository
	llm        llm.Provider
	parser     ReplyParser
	ratings    RatingDispatcher
	events     events.Publisher
	log        *logrus.Logger
	cfg        InterviewConfig

	locks          *sessionLocks
	now            func() time.Time
	sleep          func(ctx context.Context, d time.Duration) error
	enqueueTimeout time.Duration
}

// defaultEnqueueTimeout caps how long a terminating turn waits on the rating
// queue while it still holds the session lock.
const defaultEnqueueTimeout = 2 * time.Second

func NewInterviewService(
	registry SessionRegistry,
	interviews pgrepo.InterviewRepository,
	messages pgrepo.MessageRepository,
	provider llm.Provider,
	parser ReplyParser,
	ratings RatingDispatcher,
	publisher events.Publisher,
	log *logrus.Logger,
	cfg InterviewConfig,
) InterviewService {
	if parser == nil {
		parser = MarkerParser{}
	}
	if cfg.TurnMaxAttempts < 1 {
		cfg.TurnMaxAttempts = 1
	}
	return &interviewService{
		registry:   registry,
		interviews: interviews,
		messages:   messages,
		llm:        provider,
		parser:     parser,
		ratings:    ratings,
		events:     publisher,
		log:        log,
		cfg:        cfg,
		locks:      newSessionLocks(),
		now:        func() time.Time { return time.Now().UTC() },
		sleep:      sleepCtx,

		enqueueTimeout: defaultEnqueueTimeout,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isControlPhrase(text string) bool {
	lower := strings.ToLower(text)
	return strings.Contains(lower, "next stage") || strings.Contains(lower, "skip")
}

func (s *interviewService) stageLimit(stage models.Stage) int {
	if int(stage) < len(s.cfg.StageLimits) {
		return s.cfg.StageLimits[stage]
	}
	return 1
}

// HandleTurn runs one inbound message through the interview state machine.
// Errors are returned only for request and tenancy problems; upstream
// failures come back in-band as the interviewer message.
func (s *interviewService) HandleTurn(ctx context.Context, req TurnRequest) (*TurnResult, error) {
	const op = "InterviewService.HandleTurn"

	if strings.TrimSpace(req.SessionID) == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "sessionId is required", nil)
	}

	unlock := s.locks.Lock(req.SessionID)
	defer unlock()

	st, err := s.registry.Resolve(ctx, req.SessionID, req.Hints)
	if err != nil {
		return nil, err
	}

	text := strings.TrimSpace(req.Message)
	loc := prompts.For(st.Language)
	log := s.log.WithFields(logrus.Fields{"session_id": st.SessionID, "stage": st.Stage.String()})

	switch {
	case text == "" && len(st.History) == 0 && !st.Ended:
		return s.greet(ctx, st, loc, req.Start, log)
	case text == "":
		return s.probe(ctx, st, req.Start, log)
	case st.Ended:
		return &TurnResult{Message: loc.EndedMessage, Ended: true}, nil
	}

	var turns []models.Turn
	if len(st.History) == 0 {
		turns = append(turns, models.Turn{Speaker: models.SpeakerInterviewer, Text: loc.Greeting(st.CandidateName)})
	}

	switch {
	case len(st.History)+len(turns) == 1:
		return s.nameStep(ctx, st, loc, text, turns, log)
	case isControlPhrase(text):
		return s.skipStage(ctx, st, loc, text, log)
	default:
		return s.converse(ctx, st, loc, text, log)
	}
}

func (s *interviewService) greet(ctx context.Context, st *models.SessionState, loc prompts.Locale, start bool, log *logrus.Entry) (*TurnResult, error) {
	greeting := models.Turn{Speaker: models.SpeakerInterviewer, Text: loc.Greeting(st.CandidateName)}
	if err := s.persist(ctx, st, greeting); err != nil {
		log.WithError(err).Error("persist greeting failed")
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	if start {
		if err := s.markStarted(ctx, st); err != nil {
			log.WithError(err).Warn("mark started failed")
		}
	}
	st.Append(greeting.Speaker, greeting.Text)
	if err := s.commit(ctx, st, log, greeting); err != nil {
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	return &TurnResult{Message: greeting.Text, Messages: st.History, Ended: st.Ended}, nil
}

// probe reports the transcript without changing it.
func (s *interviewService) probe(ctx context.Context, st *models.SessionState, start bool, log *logrus.Entry) (*TurnResult, error) {
	if start && st.StartedAt == nil {
		if err := s.markStarted(ctx, st); err != nil {
			log.WithError(err).Warn("mark started failed")
		} else if err := s.registry.Save(ctx, st); err != nil {
			log.WithError(err).Warn("save session failed")
		}
	}
	return &TurnResult{Messages: st.History, Ended: st.Ended}, nil
}

func (s *interviewService) nameStep(ctx context.Context, st *models.SessionState, loc prompts.Locale, text string, seed []models.Turn, log *logrus.Entry) (*TurnResult, error) {
	assigned := models.AssignIfAbsent(&st.CandidateName, prompts.ExtractName(text))
	name := st.CandidateName
	if name == "" {
		name = text
	}

	reply := loc.IntroAfterName(name)
	turns := append(seed,
		models.Turn{Speaker: models.SpeakerCandidate, Text: text},
		models.Turn{Speaker: models.SpeakerInterviewer, Text: reply},
	)

	if err := s.persist(ctx, st, turns...); err != nil {
		log.WithError(err).Error("persist name step failed")
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	if assigned && st.Persisted() {
		if err := s.interviews.UpdateCandidateName(ctx, st.InterviewRecordID, st.CandidateName); err != nil {
			log.WithError(err).Warn("update candidate name failed")
		}
	}
	if err := s.markStarted(ctx, st); err != nil {
		log.WithError(err).Warn("mark started failed")
	}

	for _, t := range turns {
		st.Append(t.Speaker, t.Text)
	}
	st.Stage = models.StageIntroduction
	st.QuestionsAskedInStage = 0

	if err := s.commit(ctx, st, log, turns...); err != nil {
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	return &TurnResult{Message: reply, Ended: st.Ended}, nil
}

// skipStage advances one stage without consulting the completion service.
func (s *interviewService) skipStage(ctx context.Context, st *models.SessionState, loc prompts.Locale, text string, log *logrus.Entry) (*TurnResult, error) {
	next := st.Stage + 1
	if next > models.StageEnded {
		next = models.StageEnded
	}
	prompt := loc.StagePrompt(next)
	turns := []models.Turn{
		{Speaker: models.SpeakerCandidate, Text: text},
		{Speaker: models.SpeakerInterviewer, Text: prompt},
	}

	if err := s.persist(ctx, st, turns...); err != nil {
		log.WithError(err).Error("persist skip failed")
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	if err := s.markStarted(ctx, st); err != nil {
		log.WithError(err).Warn("mark started failed")
	}

	for _, t := range turns {
		st.Append(t.Speaker, t.Text)
	}
	st.Stage = next
	st.QuestionsAskedInStage = 0
	log.WithField("next_stage", next.String()).Info("stage skipped")

	var job *models.RatingJob
	if st.Stage >= models.StageEnded {
		job = s.terminate(ctx, st, log)
	}
	if err := s.commit(ctx, st, log, turns...); err != nil {
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	s.dispatchRating(ctx, job, log)
	return &TurnResult{Message: prompt, Ended: st.Ended}, nil
}

func (s *interviewService) converse(ctx context.Context, st *models.SessionState, loc prompts.Locale, text string, log *logrus.Entry) (*TurnResult, error) {
	system := prompts.Interviewer(prompts.InterviewerInput{
		Employer:        st.EmployerName,
		Role:            st.Role,
		RoleDescription: st.RoleDescription,
		Skills:          st.RoleSkills,
		CandidateName:   st.CandidateName,
		Language:        st.Language,
		Stage:           st.Stage,
	})

	raw, err := s.complete(ctx, system, llm.FromTurns(st.History, text))
	if err != nil {
		log.WithError(err).Warn("completion failed")
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}

	reply := s.parser.Parse(raw)

	stage, counter := st.Stage, st.QuestionsAskedInStage
	if reply.QuestionAnswered {
		counter++
		if counter >= s.stageLimit(stage) {
			stage++
			counter = 0
		}
	}
	ending := reply.InterviewEnded || stage >= models.StageEnded

	display := reply.Text
	if ending {
		display = strings.TrimSpace(display + loc.ClosingLine)
	}

	turns := []models.Turn{
		{Speaker: models.SpeakerCandidate, Text: text},
		{Speaker: models.SpeakerInterviewer, Text: display},
	}
	if err := s.persist(ctx, st, turns...); err != nil {
		log.WithError(err).Error("persist turn failed")
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	if err := s.markStarted(ctx, st); err != nil {
		log.WithError(err).Warn("mark started failed")
	}

	for _, t := range turns {
		st.Append(t.Speaker, t.Text)
	}
	if stage != st.Stage {
		log.WithField("next_stage", stage.String()).Info("stage advanced")
	}
	st.Stage, st.QuestionsAskedInStage = stage, counter

	var job *models.RatingJob
	if ending {
		job = s.terminate(ctx, st, log)
	}
	if err := s.commit(ctx, st, log, turns...); err != nil {
		return &TurnResult{Message: loc.Diagnostic(err)}, nil
	}
	s.dispatchRating(ctx, job, log)
	return &TurnResult{Message: display, Ended: st.Ended}, nil
}

// complete calls the completion service, retrying after a fixed delay.
func (s *interviewService) complete(ctx context.Context, system string, msgs []llm.Message) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= s.cfg.TurnMaxAttempts; attempt++ {
		raw, err := s.llm.Complete(ctx, system, msgs)
		if err == nil && strings.TrimSpace(raw) != "" {
			return raw, nil
		}
		if err == nil {
			err = errors.New("empty completion")
		}
		lastErr = err

		if attempt < s.cfg.TurnMaxAttempts {
			if serr := s.sleep(ctx, s.cfg.TurnRetryDelay); serr != nil {
				return "", lastErr
			}
		}
	}
	return "", lastErr
}

// terminate ends the session and returns the rating job to dispatch, if any.
func (s *interviewService) terminate(ctx context.Context, st *models.SessionState, log *logrus.Entry) *models.RatingJob {
	st.Ended = true
	st.Stage = models.StageEnded
	st.QuestionsAskedInStage = 0

	if !st.Persisted() {
		log.Info("interview ended; rating skipped, no interview record")
		return nil
	}
	if err := s.interviews.UpdateStatus(ctx, st.InterviewRecordID, models.InterviewCompleted); err != nil {
		log.WithError(err).Error("mark interview completed failed")
	}
	if st.RatingRequested {
		return nil
	}
	st.RatingRequested = true
	return &models.RatingJob{
		SessionID:   st.SessionID,
		InterviewID: st.InterviewRecordID,
		Language:    st.Language,
		Role:        st.Role,
		History:     append([]models.Turn(nil), st.History...),
	}
}

func (s *interviewService) dispatchRating(ctx context.Context, job *models.RatingJob, log *logrus.Entry) {
	if job == nil || s.ratings == nil {
		return
	}
	// the rating outlives the request, but not the enqueue timeout
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.enqueueTimeout)
	defer cancel()
	log = log.WithField("interview_id", job.InterviewID)
	if err := s.ratings.Enqueue(ctx, *job); err != nil {
		log.WithError(err).Error("rating enqueue failed; recover with `interviewctl rating retry`")
		return
	}
	log.Info("rating enqueued")
}

func (s *interviewService) markStarted(ctx context.Context, st *models.SessionState) error {
	if st.StartedAt != nil {
		return nil
	}
	now := s.now()
	st.StartedAt = &now
	if !st.Persisted() {
		return nil
	}
	return s.interviews.MarkStarted(ctx, st.InterviewRecordID, now)
}

// persist mirrors turns to the transcript store in order. Sessions without a
// record are not mirrored.
func (s *interviewService) persist(ctx context.Context, st *models.SessionState, turns ...models.Turn) error {
	if !st.Persisted() || len(turns) == 0 {
		return nil
	}
	base := s.now()
	msgs := make([]models.InterviewMessage, 0, len(turns))
	for i, t := range turns {
		msgs = append(msgs, models.InterviewMessage{
			ID:          uuid.NewString(),
			InterviewID: st.InterviewRecordID,
			Speaker:     t.Speaker,
			Message:     t.Text,
			CreatedAt:   base.Add(time.Duration(i) * time.Microsecond),
		})
	}
	// one insert so a failed turn leaves no half-written pair behind
	return s.messages.SaveBatch(ctx, msgs)
}

// commit saves the session and publishes the new turns.
func (s *interviewService) commit(ctx context.Context, st *models.SessionState, log *logrus.Entry, turns ...models.Turn) error {
	if err := s.registry.Save(ctx, st); err != nil {
		log.WithError(err).Error("save session failed")
		return err
	}
	if s.events == nil {
		return nil
	}

	ev := events.Event{
		Type:      events.TypeTurn,
		SessionID: st.SessionID,
		Stage:     st.Stage.String(),
		Ended:     st.Ended,
		Turns:     turns,
		At:        s.now(),
	}
	if st.Ended {
		ev.Type = events.TypeEnded
	}
	if err := s.events.Publish(ctx, st.SessionID, ev); err != nil {
		log.WithError(err).Warn("publish event failed")
	}
	if len(turns) > 0 {
		log.WithField("reply", logger.Truncate(turns[len(turns)-1].Text, 80)).Debug("turn handled")
	}
	return nil
}
