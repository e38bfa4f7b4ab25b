package models

import (
	"time"
)

type Gender string

const (
	GenderUnset  Gender = ""
	GenderMale   Gender = "Male"
	GenderFemale Gender = "Female"
	GenderOther  Gender = "Other"
)

func (g Gender) Valid() bool {
	switch g {
	case GenderUnset, GenderMale, GenderFemale, GenderOther:
		return true
	}
	return false
}

type User struct {
	ID             uint64    `gorm:"primarykey" json:"id"`
	Username       string    `gorm:"type:varchar(150);uniqueIndex;not null" json:"username"`
	Email          string    `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	PasswordHash   string    `gorm:"type:varchar(255);not null" json:"-"`
	IsActive       bool      `gorm:"not null;default:true" json:"is_active"`
	FirstName      string    `gorm:"type:varchar(150)" json:"first_name"`
	LastName       string    `gorm:"type:varchar(150)" json:"last_name"`
	Gender         Gender    `gorm:"type:varchar(10)" json:"gender"`
	Position       string    `gorm:"type:varchar(100)" json:"position"`
	Department     string    `gorm:"type:varchar(100)" json:"department"`
	ProfilePicture *string   `gorm:"type:varchar(255)" json:"profile_picture"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Relations
	Groups []Group `gorm:"many2many:group_members;joinForeignKey:UserID;joinReferences:GroupID" json:"-"`
}

// GroupNames returns the names of the preloaded groups.
func (u User) GroupNames() []string {
	names := make([]string, 0, len(u.Groups))
	for _, g := range u.Groups {
		names = append(names, g.Name)
	}
	return names
}
