package model

import (
	"time"

	"github.com/google/uuid"
)

// Analysis is a row of the document-analysis subsystem's history. This
// service only reads it.
type Analysis struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key"`
	UserID    uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt time.Time
}

// AnalysisCount is one user's lifetime and current-month analysis totals.
type AnalysisCount struct {
	Total   int64
	Monthly int64
}

// TableName specifies the table name for Analysis
func (Analysis) TableName() string {
	return "analyses"
}
