package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/yoockh/interviewer/internal/models"
)

const (
	DefaultRatingStream = "interview:ratings"
	DefaultRatingGroup  = "rating-workers"
)

// RedisStreamQueue publishes rating jobs to a redis stream.
type RedisStreamQueue struct {
	Redis  *redis.Client
	Stream string
}

func (q *RedisStreamQueue) stream() string {
	if q.Stream == "" {
		return DefaultRatingStream
	}
	return q.Stream
}

func (q *RedisStreamQueue) Enqueue(ctx context.Context, job models.RatingJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return q.Redis.XAdd(ctx, &redis.XAddArgs{
		Stream: q.stream(),
		Values: map[string]any{
			"session_id":   job.SessionID,
			"interview_id": job.InterviewID,
			"job":          string(payload),
		},
	}).Err()
}

// RatingWorkerPool consumes the rating stream with a consumer group. Pending
// entries left by a crashed consumer are re-read on start.
type RatingWorkerPool struct {
	Redis      *redis.Client
	Ratings    RatingProcessor
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string

	wg chan struct{}
}

func (p *RatingWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Ratings == nil {
		return errors.New("RatingWorkerPool missing dependency: Redis/Ratings must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultRatingStream
	}
	if p.Group == "" {
		p.Group = DefaultRatingGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 2
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	p.wg = make(chan struct{}, p.NumWorkers)
	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go func() {
			defer func() { p.wg <- struct{}{} }()
			p.runConsumer(ctx, consumer)
		}()
	}
	return nil
}

// Wait blocks until every consumer has returned after ctx is done.
func (p *RatingWorkerPool) Wait() {
	for i := 0; i < p.NumWorkers; i++ {
		<-p.wg
	}
}

func (p *RatingWorkerPool) runConsumer(ctx context.Context, consumer string) {
	// "0" replays this consumer's pending entries, ">" reads new ones
	cursor := "0"
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, cursor},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) || ctx.Err() != nil {
				continue
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		n := 0
		for _, stream := range res {
			for _, msg := range stream.Messages {
				n++
				if p.handleMsg(ctx, msg) {
					_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
				}
			}
		}
		if cursor == "0" && n == 0 {
			cursor = ">"
		}
	}
}

// handleMsg reports whether the entry can be acknowledged. Malformed entries
// are acknowledged so they do not block the group.
func (p *RatingWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) bool {
	log := p.Logger.WithField("redis_id", msg.ID)

	raw, _ := msg.Values["job"].(string)
	if raw == "" {
		log.Warn("rating entry without job payload")
		return true
	}

	var job models.RatingJob
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.WithError(err).Warn("rating entry payload invalid")
		return true
	}
	log = log.WithFields(logrus.Fields{"session_id": job.SessionID, "interview_id": job.InterviewID})

	if err := p.Ratings.Process(ctx, job); err != nil {
		if ctx.Err() != nil {
			// left pending for the next start
			return false
		}
		log.WithError(err).Error("rating job failed")
		return true
	}
	log.Info("rating job done")
	return true
}
