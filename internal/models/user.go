package models

import (
	"time"

	"gorm.io/gorm"
)

type User struct {
	ID            uint64         `gorm:"primarykey" json:"id"`
	Email         string         `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Username      string         `gorm:"type:varchar(50);uniqueIndex;not null" json:"username"`
	PasswordHash  string         `gorm:"type:varchar(255);not null" json:"-"`
	FirstName     string         `gorm:"type:varchar(100)" json:"first_name"`
	LastName      string         `gorm:"type:varchar(100)" json:"last_name"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	EmailVerified bool           `gorm:"default:false" json:"email_verified"`
	MFAEnabled    bool           `gorm:"default:false" json:"mfa_enabled"`
	MFASecret     string         `gorm:"type:varchar(255)" json:"-"`
	Preferences   Preferences    `gorm:"embedded;embeddedPrefix:pref_" json:"preferences"`
	LastLoginAt   *time.Time     `json:"last_login_at"`
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	OwnedProjects []Project       `gorm:"foreignKey:OwnerID" json:"-"`
	Memberships   []ProjectMember `gorm:"foreignKey:UserID" json:"-"`
	RefreshTokens []RefreshToken  `gorm:"foreignKey:UserID" json:"-"`
}

// Preferences holds per-user accessibility settings rendered by the
// front end. Stored inline on the user row.
type Preferences struct {
	Theme        string `gorm:"type:varchar(20);default:system" json:"theme"`
	FontSize     string `gorm:"type:varchar(20);default:medium" json:"font_size"`
	ReduceMotion bool   `gorm:"default:false" json:"reduce_motion"`
	ScreenReader bool   `gorm:"default:false" json:"screen_reader"`
}
