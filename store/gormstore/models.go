package gormstore

import (
	"strconv"
	"time"

	"github.com/MrEthical07/authcore/store"
)

// accountRow is the database shape of store.Account.
type accountRow struct {
	ID           string `gorm:"type:varchar(36);primaryKey"` // UUID.
	Username     string `gorm:"type:text;not null;uniqueIndex"`
	Email        string `gorm:"type:text;not null;uniqueIndex"` // Lower-cased.
	PasswordHash string `gorm:"type:text;not null"`             // Argon2id PHC string.
	Verified     bool   `gorm:"not null;default:false"`
	IsAdmin      bool   `gorm:"not null;default:false"`

	ResetTokenHash      string     `gorm:"type:text;index"` // SHA-256 hex of the reset token.
	ResetTokenExpiresAt *time.Time // Set together with ResetTokenHash.

	TOTPEnabled bool   `gorm:"column:totp_enabled;not null;default:false"`
	TOTPSecret  string `gorm:"column:totp_secret;type:text"`

	LastLoginAt *time.Time
	LoginCount  int64 `gorm:"not null;default:0"`

	Notifications []notificationRow `gorm:"foreignKey:AccountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime"`
}

func (accountRow) TableName() string { return "accounts" }

type notificationRow struct {
	ID        uint64    `gorm:"primaryKey;autoIncrement"`
	AccountID string    `gorm:"type:varchar(36);not null;index"`
	Message   string    `gorm:"type:text;not null"`
	Read      bool      `gorm:"column:is_read;not null;default:false"`
	CreatedAt time.Time `gorm:"not null;autoCreateTime"`
}

func (notificationRow) TableName() string { return "account_notifications" }

func (r *accountRow) toAccount() *store.Account {
	acc := &store.Account{
		ID:                  r.ID,
		Username:            r.Username,
		Email:               r.Email,
		PasswordHash:        r.PasswordHash,
		Verified:            r.Verified,
		IsAdmin:             r.IsAdmin,
		ResetTokenHash:      r.ResetTokenHash,
		ResetTokenExpiresAt: r.ResetTokenExpiresAt,
		TOTP: store.TOTPState{
			Enabled: r.TOTPEnabled,
			Secret:  r.TOTPSecret,
		},
		Activity: store.Activity{
			LastLoginAt: r.LastLoginAt,
			LoginCount:  r.LoginCount,
		},
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
	if len(r.Notifications) > 0 {
		acc.Notifications = make([]store.Notification, 0, len(r.Notifications))
		for _, n := range r.Notifications {
			acc.Notifications = append(acc.Notifications, store.Notification{
				ID:        strconv.FormatUint(n.ID, 10),
				Message:   n.Message,
				Read:      n.Read,
				CreatedAt: n.CreatedAt,
			})
		}
	}
	return acc
}
