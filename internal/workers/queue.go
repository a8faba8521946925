package workers

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultStream = "intake:transcribe"
	DefaultGroup  = "transcribe-workers"
)

// StatusChannel is the pub/sub channel carrying pipeline progress for a
// session.
func StatusChannel(sessionID string) string {
	return "intake:session:" + sessionID + ":status"
}

// TranscriptionQueue enqueues transcription jobs on a Redis stream.
type TranscriptionQueue struct {
	Redis  *redis.Client
	Stream string
}

func NewTranscriptionQueue(rdb *redis.Client) *TranscriptionQueue {
	return &TranscriptionQueue{Redis: rdb, Stream: DefaultStream}
}

func (q *TranscriptionQueue) Enqueue(ctx context.Context, sessionID string, questionIDs []int) error {
	pipe := q.Redis.TxPipeline()
	now := strconv.FormatInt(time.Now().UTC().Unix(), 10)
	for _, qid := range questionIDs {
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: q.Stream,
			Values: map[string]any{
				"session_id":  sessionID,
				"question_id": strconv.Itoa(qid),
				"ts_unix":     now,
			},
		})
		pipe.Publish(ctx, StatusChannel(sessionID), statusJSON(StatusEvent{
			Type:       "status",
			Status:     "queued",
			QuestionID: qid,
		}))
	}
	_, err := pipe.Exec(ctx)
	return err
}
