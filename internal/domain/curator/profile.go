package curator

import "time"

// Profile is a Farcaster identity that shares or engages with tracks. It is
// created lazily on first share. CuratorScore and XP are caches of ledger
// aggregates and are overwritten whenever the underlying rows change.
type Profile struct {
	FID           int64     `gorm:"column:fid;primaryKey;autoIncrement:false" json:"fid"`
	Username      string    `gorm:"column:username;type:text;not null;index" json:"username"`
	PfpURL        string    `gorm:"column:pfp_url;type:text" json:"pfpUrl,omitempty"`
	WalletAddress string    `gorm:"column:wallet_address;type:text" json:"walletAddress,omitempty"`
	Bio           string    `gorm:"column:bio;type:text" json:"bio,omitempty"`
	CuratorScore  int64     `gorm:"column:curator_score;not null;default:0;index" json:"curatorScore"`
	XP            int64     `gorm:"column:xp;not null;default:0;index" json:"xp"`
	CreatedAt     time.Time `gorm:"not null;autoCreateTime" json:"createdAt"`
	UpdatedAt     time.Time `gorm:"not null;autoUpdateTime" json:"updatedAt"`
}

func (Profile) TableName() string { return "curator_profiles" }
