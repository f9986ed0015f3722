package engagement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Tip is an append-only record of a USDC transfer against a recommendation.
// The transaction hash is stored as reported by the client and is not verified.
type Tip struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RecommendationID uuid.UUID `gorm:"type:uuid;column:recommendation_id;not null;index" json:"recommendationId"`
	TipperFID        int64     `gorm:"column:tipper_fid;not null;index" json:"tipperFid"`
	TipperUsername   string    `gorm:"column:tipper_username;type:text" json:"tipperUsername,omitempty"`
	RecipientFID     int64     `gorm:"column:recipient_fid;not null;index" json:"recipientFid"`
	AmountUSD        float64   `gorm:"column:amount_usd;type:numeric(12,2);not null" json:"amountUsd"`
	TransactionHash  string    `gorm:"column:transaction_hash;type:text;not null;index" json:"transactionHash"`
	CreatedAt        time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
}

func (Tip) TableName() string { return "tips" }

func (t *Tip) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
