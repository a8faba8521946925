package workers

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/yoockh/intake/internal/services"
	"github.com/yoockh/intake/internal/utils"
)

// StatusEvent is published on StatusChannel and forwarded to websocket
// clients as-is.
type StatusEvent struct {
	Type          string     `json:"type"`
	Status        string     `json:"status"` // queued|processing|done|failed
	QuestionID    int        `json:"question_id"`
	Transcription *string    `json:"transcription,omitempty"`
	Code          utils.Code `json:"code,omitempty"`
	Message       string     `json:"message,omitempty"`
}

func statusJSON(ev StatusEvent) string {
	b, _ := json.Marshal(ev)
	return string(b)
}

// TranscriptionWorkerPool consumes jobs from the transcription stream and
// runs them through the pipeline.
type TranscriptionWorkerPool struct {
	Redis      *redis.Client
	Pipeline   services.PipelineService
	NumWorkers int

	Logger *logrus.Logger

	Stream         string
	Group          string
	ConsumerPrefix string
}

func (p *TranscriptionWorkerPool) Start(ctx context.Context) error {
	if p.Redis == nil || p.Pipeline == nil {
		return errors.New("TranscriptionWorkerPool missing dependency: Redis/Pipeline must be set")
	}
	if p.Stream == "" {
		p.Stream = DefaultStream
	}
	if p.Group == "" {
		p.Group = DefaultGroup
	}
	if p.ConsumerPrefix == "" {
		p.ConsumerPrefix = "c"
	}
	if p.NumWorkers <= 0 {
		p.NumWorkers = 3
	}
	if p.Logger == nil {
		p.Logger = logrus.New()
	}

	_ = p.Redis.XGroupCreateMkStream(ctx, p.Stream, p.Group, "0").Err() // ignore BUSYGROUP

	for i := 0; i < p.NumWorkers; i++ {
		consumer := p.ConsumerPrefix + "-" + strconv.Itoa(i+1)
		go p.runConsumer(ctx, consumer)
	}
	p.Logger.WithFields(logrus.Fields{
		"stream":  p.Stream,
		"workers": p.NumWorkers,
	}).Info("transcription workers started")
	return nil
}

func (p *TranscriptionWorkerPool) runConsumer(ctx context.Context, consumer string) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		res, err := p.Redis.XReadGroup(ctx, &redis.XReadGroupArgs{
			Group:    p.Group,
			Consumer: consumer,
			Streams:  []string{p.Stream, ">"},
			Count:    10,
			Block:    5 * time.Second,
		}).Result()

		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				return
			}
			p.Logger.WithError(err).WithField("consumer", consumer).Warn("xreadgroup failed")
			time.Sleep(500 * time.Millisecond)
			continue
		}

		for _, stream := range res {
			for _, msg := range stream.Messages {
				p.handleMsg(ctx, msg)
				_ = p.Redis.XAck(ctx, p.Stream, p.Group, msg.ID).Err()
			}
		}
	}
}

func (p *TranscriptionWorkerPool) handleMsg(ctx context.Context, msg redis.XMessage) {
	getStr := func(k string) string {
		v, ok := msg.Values[k]
		if !ok || v == nil {
			return ""
		}
		s, _ := v.(string)
		return s
	}

	sessionID := getStr("session_id")
	questionID, err := strconv.Atoi(getStr("question_id"))
	if sessionID == "" || err != nil {
		p.Logger.WithField("redis_id", msg.ID).Warn("dropping malformed transcription job")
		return
	}

	log := p.Logger.WithFields(logrus.Fields{
		"redis_id":    msg.ID,
		"session_id":  sessionID,
		"question_id": questionID,
	})
	statusCh := StatusChannel(sessionID)

	p.publish(ctx, statusCh, StatusEvent{Type: "status", Status: "processing", QuestionID: questionID})

	res, err := p.Pipeline.Transcribe(ctx, sessionID, questionID)
	if err != nil {
		log.WithError(err).Warn("queued transcription failed")
		ev := StatusEvent{Type: "status", Status: "failed", QuestionID: questionID, Code: utils.CodeOf(err), Message: err.Error()}
		var ae *utils.AppError
		if errors.As(err, &ae) {
			ev.Message = ae.Detail()
		}
		p.publish(ctx, statusCh, ev)
		return
	}

	p.publish(ctx, statusCh, StatusEvent{
		Type:          "transcription",
		Status:        "done",
		QuestionID:    questionID,
		Transcription: &res.Transcription,
	})
}

func (p *TranscriptionWorkerPool) publish(ctx context.Context, channel string, ev StatusEvent) {
	if err := p.Redis.Publish(ctx, channel, statusJSON(ev)).Err(); err != nil {
		p.Logger.WithError(err).WithField("channel", channel).Warn("publish status failed")
	}
}
