package postgres

import (
	"context"

	"github.com/yoockh/intake/internal/models"
	"gorm.io/gorm"
)

// AnalysisRepository archives completed analyses for later review.
type AnalysisRepository interface {
	Insert(ctx context.Context, rec *models.AnalysisRecord) error
	ListBySession(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error)
}

type analysisRepo struct {
	db *gorm.DB
}

func NewAnalysisRepo(db *gorm.DB) AnalysisRepository {
	return &analysisRepo{db: db}
}

func (r *analysisRepo) Insert(ctx context.Context, rec *models.AnalysisRecord) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *analysisRepo) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.AnalysisRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	var rows []models.AnalysisRecord
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("analyzed_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
