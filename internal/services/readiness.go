package services

import (
	"github.com/yoockh/intake/internal/models"
	"github.com/yoockh/intake/internal/utils"
)

// RequiredQuestions is every catalog question, or only the first one in test
// mode.
func RequiredQuestions(catalog *models.Catalog, testMode bool) []int {
	ids := catalog.QuestionIDs()
	if testMode && len(ids) > 0 {
		return ids[:1]
	}
	return ids
}

// CheckReady returns the required question ids when each has a
// transcription. An empty transcription counts as present.
func CheckReady(sess *models.Session, catalog *models.Catalog, testMode bool) ([]int, error) {
	const op = "Readiness.CheckReady"

	required := RequiredQuestions(catalog, testMode)
	for _, id := range required {
		rec := sess.Question(id)
		if rec == nil || !rec.Transcribed() {
			return nil, utils.NotTranscribed(op, id)
		}
	}
	return required, nil
}
