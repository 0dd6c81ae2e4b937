package services

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/models"
	"github.com/yoockh/interviewer/internal/prompts"
	"github.com/yoockh/interviewer/internal/providers/llm"
	pgrepo "github.com/yoockh/interviewer/internal/repositories/postgres"
	"github.com/yoockh/interviewer/internal/utils"
)

const RatingFailedComment = "rating generation failed"

type RatingService interface {
	// Generate asks the evaluator for a rating, retrying with a fixed back-off.
	Generate(ctx context.Context, job models.RatingJob) (rating *models.Rating, raw string, err error)
	// Process generates a rating and writes it, or the failure placeholder,
	// to the interview record.
	Process(ctx context.Context, job models.RatingJob) error
	// Retry re-rates a completed interview from its stored transcript.
	Retry(ctx context.Context, sessionID string) error
}

type RatingConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

type ratingService struct {
	llm        llm.Provider
	interviews pgrepo.InterviewRepository
	messages   pgrepo.MessageRepository
	log        *logrus.Logger
	cfg        RatingConfig
	sleep      func(ctx context.Context, d time.Duration) error
}

func NewRatingService(provider llm.Provider, interviews pgrepo.InterviewRepository, messages pgrepo.MessageRepository, log *logrus.Logger, cfg RatingConfig) RatingService {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &ratingService{
		llm:        provider,
		interviews: interviews,
		messages:   messages,
		log:        log,
		cfg:        cfg,
		sleep:      sleepCtx,
	}
}

func (s *ratingService) Generate(ctx context.Context, job models.RatingJob) (*models.Rating, string, error) {
	const op = "RatingService.Generate"

	if len(job.History) == 0 {
		return nil, "", utils.E(utils.CodeInvalidArgument, op, "empty transcript", nil)
	}

	system := prompts.Rating(job.Language, job.Role)
	msgs := llm.FromTurns(job.History, prompts.RatingRequest)

	var lastErr error
	for attempt := 1; attempt <= s.cfg.MaxAttempts; attempt++ {
		raw, err := s.llm.Complete(ctx, system, msgs)
		if err == nil {
			rating, perr := ParseRating(raw)
			if perr == nil {
				block, _ := extractJSONObject(raw)
				return rating, block, nil
			}
			err = perr
		}
		lastErr = err
		s.log.WithFields(logrus.Fields{
			"session_id": job.SessionID,
			"attempt":    attempt,
		}).WithError(err).Warn("rating attempt failed")

		if attempt < s.cfg.MaxAttempts {
			if serr := s.sleep(ctx, s.cfg.Backoff); serr != nil {
				return nil, "", utils.E(utils.CodeTimeout, op, "rating cancelled", serr)
			}
		}
	}
	return nil, "", utils.E(utils.CodeUnavailable, op, "rating generation failed", lastErr)
}

func (s *ratingService) Process(ctx context.Context, job models.RatingJob) error {
	const op = "RatingService.Process"

	if job.InterviewID == "" {
		return utils.E(utils.CodeInvalidArgument, op, "interview_id is required", nil)
	}
	log := s.log.WithFields(logrus.Fields{"session_id": job.SessionID, "interview_id": job.InterviewID})

	rating, raw, err := s.Generate(ctx, job)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		log.WithError(err).Error("rating failed, writing placeholder")
		if werr := s.interviews.UpdateRating(ctx, job.InterviewID, nil, RatingFailedComment, ""); werr != nil {
			return utils.E(utils.CodeInternal, op, "failed to store rating placeholder", werr)
		}
		return nil
	}

	if err := s.interviews.UpdateRating(ctx, job.InterviewID, rating, rating.Comment, raw); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to store rating", err)
	}
	log.WithField("rating", rating.Rating).Info("rating stored")
	return nil
}

func (s *ratingService) Retry(ctx context.Context, sessionID string) error {
	const op = "RatingService.Retry"

	rec, err := s.interviews.GetBySession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return utils.E(utils.CodeNotFound, op, "interview not found", err)
		}
		return utils.E(utils.CodeInternal, op, "failed to get interview", err)
	}
	if rec.Status != models.InterviewCompleted {
		return utils.E(utils.CodeConflict, op, "interview is not completed", nil)
	}

	msgs, err := s.messages.ListByInterview(ctx, rec.ID)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to list messages", err)
	}
	job := models.RatingJob{
		SessionID:   rec.SessionID,
		InterviewID: rec.ID,
		Language:    rec.Language,
		Role:        rec.RoleLabel,
	}
	for _, m := range msgs {
		job.History = append(job.History, models.Turn{Speaker: m.Speaker, Text: m.Message})
	}
	return s.Process(ctx, job)
}
