package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/dangerclosesec/orgaccess/internal/model"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AnalysisRepositoryIface reads the document-analysis history. It never writes.
type AnalysisRepositoryIface interface {
	CountByUsers(ctx context.Context, userIDs []uuid.UUID, monthStart time.Time) (map[uuid.UUID]model.AnalysisCount, error)
}

type AnalysisRepository struct {
	db *gorm.DB
}

func NewAnalysisRepository(db *gorm.DB) *AnalysisRepository {
	return &AnalysisRepository{db: db}
}

// CountByUsers returns lifetime and since-monthStart analysis counts per user.
// Users without analyses are absent from the map.
func (r *AnalysisRepository) CountByUsers(ctx context.Context, userIDs []uuid.UUID, monthStart time.Time) (map[uuid.UUID]model.AnalysisCount, error) {
	counts := make(map[uuid.UUID]model.AnalysisCount, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		UserID  uuid.UUID
		Total   int64
		Monthly int64
	}
	err := r.db.WithContext(ctx).
		Model(&model.Analysis{}).
		Select("user_id, COUNT(*) AS total, COUNT(*) FILTER (WHERE created_at >= ?) AS monthly", monthStart).
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("counting analyses: %w", err)
	}

	for _, row := range rows {
		counts[row.UserID] = model.AnalysisCount{Total: row.Total, Monthly: row.Monthly}
	}
	return counts, nil
}
