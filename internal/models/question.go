package models

import "time"

// QuestionRecord tracks one question of a session through
// recorded -> (audio extracted) -> transcribed.
//
// VideoRef and AudioRef point at ephemeral artifacts and are cleared after
// every transcription attempt. Transcription and the timestamps persist.
type QuestionRecord struct {
	QuestionID int `bson:"question_id" json:"question_id"`

	VideoRef string `bson:"video_ref,omitempty" json:"video_ref,omitempty"`
	AudioRef string `bson:"audio_ref,omitempty" json:"audio_ref,omitempty"`

	// nil = not transcribed yet; "" = transcribed, no speech
	Transcription *string `bson:"transcription,omitempty" json:"transcription"`

	RecordedAt    *time.Time `bson:"recorded_at,omitempty" json:"recorded_at,omitempty"`
	TranscribedAt *time.Time `bson:"transcribed_at,omitempty" json:"transcribed_at,omitempty"`
}

// Recorded reports whether a video was ever uploaded, even if the file has
// since been consumed.
func (q *QuestionRecord) Recorded() bool { return q.RecordedAt != nil }

func (q *QuestionRecord) Transcribed() bool { return q.Transcription != nil }

func (q *QuestionRecord) HasVideo() bool { return q.VideoRef != "" }

// RecordVideo points the record at a freshly uploaded video and returns the
// ref it replaced, if any.
func (q *QuestionRecord) RecordVideo(ref string, at time.Time) (replaced string) {
	replaced = q.VideoRef
	if replaced == ref {
		replaced = ""
	}
	q.VideoRef = ref
	if q.RecordedAt == nil {
		t := at.UTC()
		q.RecordedAt = &t
	}
	return replaced
}

// ReleaseArtifacts drops both artifact references.
func (q *QuestionRecord) ReleaseArtifacts() {
	q.VideoRef = ""
	q.AudioRef = ""
}

// CompleteTranscription stores text (possibly empty). A repeated
// transcription overwrites the text; TranscribedAt keeps its first value.
func (q *QuestionRecord) CompleteTranscription(text string, at time.Time) {
	q.Transcription = &text
	if q.TranscribedAt == nil {
		t := at.UTC()
		q.TranscribedAt = &t
	}
}

// Text returns the transcription or "" when there is none.
func (q *QuestionRecord) Text() string {
	if q.Transcription == nil {
		return ""
	}
	return *q.Transcription
}

func (q *QuestionRecord) Clone() *QuestionRecord {
	if q == nil {
		return nil
	}
	out := *q
	if q.Transcription != nil {
		t := *q.Transcription
		out.Transcription = &t
	}
	if q.RecordedAt != nil {
		t := *q.RecordedAt
		out.RecordedAt = &t
	}
	if q.TranscribedAt != nil {
		t := *q.TranscribedAt
		out.TranscribedAt = &t
	}
	return &out
}
