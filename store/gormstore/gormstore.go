// Package gormstore implements store.AccountStore on GORM. SQLite
// (glebarez/sqlite, pure Go) and PostgreSQL are supported dialects.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/authcore/store"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Dialect names accepted by Open.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Open connects to the database named by dialect and dsn.
func Open(dialect, dsn string) (*gorm.DB, error) {
	cfg := &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	}
	switch strings.ToLower(strings.TrimSpace(dialect)) {
	case DialectSQLite, "":
		return gorm.Open(sqlite.Open(dsn), cfg)
	case DialectPostgres, "postgresql":
		return gorm.Open(postgres.Open(dsn), cfg)
	default:
		return nil, fmt.Errorf("gormstore: unsupported dialect %q", dialect)
	}
}

// Store is a GORM-backed account store.
type Store struct {
	db *gorm.DB
}

// New wraps db. Call AutoMigrate before first use on a fresh database.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// AutoMigrate creates or updates the account tables.
func (s *Store) AutoMigrate() error {
	return s.db.AutoMigrate(&accountRow{}, &notificationRow{})
}

func (s *Store) Find(ctx context.Context, c store.Criteria) (*store.Account, error) {
	if c.Empty() {
		return nil, store.ErrNotFound
	}

	q := s.db.WithContext(ctx).Preload("Notifications", func(db *gorm.DB) *gorm.DB {
		return db.Order("id ASC")
	})
	if c.MatchAny {
		q = q.Where("email = ? OR username = ?", c.Email, c.Username)
	} else {
		if c.ID != "" {
			q = q.Where("id = ?", c.ID)
		}
		if c.Email != "" {
			q = q.Where("email = ?", c.Email)
		}
		if c.Username != "" {
			q = q.Where("username = ?", c.Username)
		}
		if c.ResetTokenHash != "" {
			q = q.Where("reset_token_hash = ?", c.ResetTokenHash)
		}
	}

	var row accountRow
	if err := q.First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return row.toAccount(), nil
}

func (s *Store) Create(ctx context.Context, in store.NewAccount) (*store.Account, error) {
	row := accountRow{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        store.NormalizeEmail(in.Email),
		PasswordHash: in.PasswordHash,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&accountRow{}).
			Where("email = ? OR username = ?", row.Email, row.Username).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return store.ErrDuplicate
		}
		return tx.Create(&row).Error
	})
	if err != nil {
		if isDuplicate(err) {
			return nil, store.ErrDuplicate
		}
		return nil, err
	}
	return row.toAccount(), nil
}

func (s *Store) Update(ctx context.Context, id string, group store.FieldGroup) error {
	db := s.db.WithContext(ctx)

	switch g := group.(type) {
	case store.MarkVerified:
		return s.expectRow(db.Model(&accountRow{}).Where("id = ?", id).Update("verified", true), db, id)
	case store.SetResetToken:
		exp := g.ExpiresAt.UTC()
		return s.expectRow(db.Model(&accountRow{}).Where("id = ?", id).Updates(map[string]any{
			"reset_token_hash":       g.Hash,
			"reset_token_expires_at": &exp,
		}), db, id)
	case store.RedeemResetToken:
		return s.redeemResetToken(db, id, g)
	case store.EnableTOTP:
		res := db.Model(&accountRow{}).
			Where("id = ? AND totp_enabled = ?", id, false).
			Updates(map[string]any{"totp_enabled": true, "totp_secret": g.Secret})
		return s.expectConditional(res, db, id)
	case store.RecordLogin:
		at := g.At.UTC()
		return s.expectRow(db.Model(&accountRow{}).Where("id = ?", id).Updates(map[string]any{
			"login_count":   gorm.Expr("login_count + 1"),
			"last_login_at": &at,
		}), db, id)
	default:
		return fmt.Errorf("gormstore: unsupported field group %T", group)
	}
}

// redeemResetToken reads the row to check expiry, then clears the token with
// an UPDATE guarded on the digest. A concurrent redemption that already
// cleared the digest leaves RowsAffected at zero.
func (s *Store) redeemResetToken(db *gorm.DB, id string, g store.RedeemResetToken) error {
	if g.Hash == "" {
		return store.ErrPreconditionFailed
	}
	return db.Transaction(func(tx *gorm.DB) error {
		var row accountRow
		if err := tx.Select("id", "reset_token_hash", "reset_token_expires_at").
			Where("id = ?", id).First(&row).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return store.ErrNotFound
			}
			return err
		}
		if row.ResetTokenHash != g.Hash || row.ResetTokenExpiresAt == nil || !row.ResetTokenExpiresAt.After(g.Now) {
			return store.ErrPreconditionFailed
		}

		res := tx.Model(&accountRow{}).
			Where("id = ? AND reset_token_hash = ?", id, g.Hash).
			Updates(map[string]any{
				"password_hash":          g.PasswordHash,
				"reset_token_hash":       "",
				"reset_token_expires_at": nil,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return store.ErrPreconditionFailed
		}
		return nil
	})
}

func (s *Store) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("account_id = ?", id).Delete(&notificationRow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", id).Delete(&accountRow{}).Error
	})
}

func (s *Store) AppendNotification(ctx context.Context, id, message string) error {
	db := s.db.WithContext(ctx)
	if err := s.exists(db, id); err != nil {
		return err
	}
	return db.Create(&notificationRow{
		AccountID: id,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}).Error
}

func (s *Store) MarkNotificationsRead(ctx context.Context, id string) error {
	db := s.db.WithContext(ctx)
	if err := s.exists(db, id); err != nil {
		return err
	}
	return db.Model(&notificationRow{}).
		Where("account_id = ? AND is_read = ?", id, false).
		Update("is_read", true).Error
}

func (s *Store) expectRow(res *gorm.DB, db *gorm.DB, id string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return s.exists(db, id)
	}
	return nil
}

func (s *Store) expectConditional(res *gorm.DB, db *gorm.DB, id string) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		if err := s.exists(db, id); err != nil {
			return err
		}
		return store.ErrPreconditionFailed
	}
	return nil
}

func (s *Store) exists(db *gorm.DB, id string) error {
	var count int64
	if err := db.Model(&accountRow{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return store.ErrNotFound
	}
	return nil
}

func isDuplicate(err error) bool {
	if errors.Is(err, store.ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
