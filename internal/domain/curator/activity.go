package curator

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ActivityShare        = "share"
	ActivityTasteOverlap = "taste_overlap"
)

// Activity is the append-only XP ledger.
type Activity struct {
	ID               uuid.UUID         `gorm:"type:uuid;primaryKey" json:"id"`
	CuratorFID       int64             `gorm:"column:curator_fid;not null;index:idx_activity_curator_type,priority:1" json:"curatorFid"`
	ActivityType     string            `gorm:"column:activity_type;type:text;not null;index:idx_activity_curator_type,priority:2" json:"activityType"`
	XPEarned         int64             `gorm:"column:xp_earned;not null" json:"xpEarned"`
	RecommendationID *uuid.UUID        `gorm:"type:uuid;column:recommendation_id;index" json:"recommendationId,omitempty"`
	TrackID          *uuid.UUID        `gorm:"type:uuid;column:track_id" json:"trackId,omitempty"`
	Metadata         datatypes.JSONMap `gorm:"column:metadata" json:"metadata,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (Activity) TableName() string { return "curator_activities" }

func (a *Activity) BeforeCreate(tx *gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
