package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CoSign is a distinct curator's endorsement of a recommendation; the
// (recommendation_id, curator_fid) pair is unique.
type CoSign struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecommendationID uuid.UUID `gorm:"type:uuid;column:recommendation_id;not null;uniqueIndex:idx_cosign_recommendation_curator,priority:1" json:"recommendationId"`
	CuratorFID       int64     `gorm:"column:curator_fid;not null;uniqueIndex:idx_cosign_recommendation_curator,priority:2;index" json:"curatorFid"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (CoSign) TableName() string { return "cosigns" }

func (c *CoSign) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
