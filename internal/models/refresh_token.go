package models

import "time"

// RefreshToken tracks an issued refresh JWT by its jti. Only an HMAC of the
// raw token is stored.
type RefreshToken struct {
	ID         string     `gorm:"type:varchar(36);primarykey" json:"id"`
	UserID     uint64     `gorm:"not null;index" json:"user_id"`
	TokenHash  string     `gorm:"type:varchar(64);not null" json:"-"`
	ExpiresAt  time.Time  `gorm:"not null" json:"expires_at"`
	RevokedAt  *time.Time `json:"revoked_at"`
	ReplacedBy *string    `gorm:"type:varchar(36)" json:"replaced_by"`
	CreatedAt  time.Time  `json:"created_at"`

	// Relations
	User User `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"-"`
}

func (r RefreshToken) Revoked() bool {
	return r.RevokedAt != nil
}
