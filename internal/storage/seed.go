package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/validation"
)

// Seed is the YAML document accepted by `courier prefs import`.
type Seed struct {
	Users []SeedUser `yaml:"users" validate:"required,min=1,unique=ID,dive"`
}

// SeedUser is one user and their notification preferences.
type SeedUser struct {
	ID          int64           `yaml:"id" validate:"gt=0"`
	Name        string          `yaml:"name"`
	Preferences *SeedPreference `yaml:"preferences"`
}

// SeedPreference mirrors NotificationPreference in a hand-editable form.
type SeedPreference struct {
	Email             string   `yaml:"email" validate:"omitempty,email"`
	Phone             string   `yaml:"phone"`
	MessagingHandle   string   `yaml:"messaging_handle"`
	EmailVerified     bool     `yaml:"email_verified"`
	PhoneVerified     bool     `yaml:"phone_verified"`
	MessagingVerified bool     `yaml:"messaging_verified"`
	Priority          []string `yaml:"priority" validate:"dive,oneof=email sms messaging telegram"`
}

// LoadSeedFile reads and validates a seed file.
func LoadSeedFile(path string) (*Seed, error) {
	data, err := os.ReadFile(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return ParseSeed(data)
}

// ParseSeed decodes and validates a YAML seed document.
func ParseSeed(data []byte) (*Seed, error) {
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parsing seed: %w", err)
	}
	if err := validation.Struct(seed); err != nil {
		return nil, fmt.Errorf("invalid seed: %w", err)
	}
	return &seed, nil
}

// ApplySeed upserts every user and preference in seed inside a single
// transaction. Users without a preferences block keep whatever is stored.
func ApplySeed(ctx context.Context, db *sql.DB, seed *Seed) (int, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, su := range seed.Users {
		if err := upsertUser(ctx, tx, &User{ID: su.ID, Name: su.Name}); err != nil {
			return 0, err
		}
		if su.Preferences == nil {
			continue
		}
		pref, err := su.Preferences.toPreference(su.ID)
		if err != nil {
			return 0, err
		}
		if err := upsertPreference(ctx, tx, pref); err != nil {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed: %w", err)
	}
	return len(seed.Users), nil
}

func (sp *SeedPreference) toPreference(userID int64) (*NotificationPreference, error) {
	priority, err := notification.ParseChannels(sp.Priority)
	if err != nil {
		return nil, fmt.Errorf("user %d: %w", userID, err)
	}
	return &NotificationPreference{
		UserID:            userID,
		Email:             sp.Email,
		Phone:             sp.Phone,
		MessagingHandle:   sp.MessagingHandle,
		EmailVerified:     sp.EmailVerified,
		PhoneVerified:     sp.PhoneVerified,
		MessagingVerified: sp.MessagingVerified,
		Priority:          priority,
	}, nil
}
