package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	PlatformChessCom = "chesscom"
	PlatformLichess  = "lichess"
	PlatformManual   = "manual"
)

// LinkedAccount binds one external chess platform identity to a user.
// The (user, platform, username) triple is unique so the same external
// account cannot be linked twice.
type LinkedAccount struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	UserID           uint           `gorm:"index:idx_account_identity,unique" json:"user_id"`
	Platform         string         `gorm:"index:idx_account_identity,unique;type:varchar(50)" json:"platform" validate:"required,oneof=chesscom lichess manual"`
	PlatformUsername string         `gorm:"index:idx_account_identity,unique;type:varchar(191)" json:"platform_username" validate:"required,min=1,max=191"`
	SyncEnabled      bool           `gorm:"default:true" json:"sync_enabled"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	LastSyncAt       *time.Time     `gorm:"type:timestamp;default:null" json:"last_sync_at,omitempty"`
	User             *User          `gorm:"foreignKey:UserID" json:"-"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (a *LinkedAccount) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// Syncable reports whether scheduled syncs should pick this account up.
// Manual accounts never sync automatically because no provider backs them.
func (a *LinkedAccount) Syncable() bool {
	return a.IsActive && a.SyncEnabled && a.Platform != PlatformManual
}
