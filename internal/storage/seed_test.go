package storage_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

const validSeed = `
users:
  - id: 1
    name: Ada
    preferences:
      email: ada@example.com
      email_verified: true
      phone: "+15550100"
      phone_verified: false
      messaging_handle: "987654"
      messaging_verified: true
      priority: [sms, email, telegram]
  - id: 2
    name: Bob
`

func TestParseSeed_Valid(t *testing.T) {
	seed, err := storage.ParseSeed([]byte(validSeed))
	require.NoError(t, err)
	require.Len(t, seed.Users, 2)
	assert.Equal(t, []string{"sms", "email", "telegram"}, seed.Users[0].Preferences.Priority)
	assert.Nil(t, seed.Users[1].Preferences)
}

func TestParseSeed_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{name: "empty", doc: "users: []", want: "Users"},
		{name: "bad email", doc: "users:\n  - id: 1\n    preferences:\n      email: nope\n", want: "valid email"},
		{name: "bad channel", doc: "users:\n  - id: 1\n    preferences:\n      priority: [fax]\n", want: "must be one of"},
		{name: "zero id", doc: "users:\n  - id: 0\n", want: "greater than 0"},
		{name: "duplicate id", doc: "users:\n  - id: 3\n  - id: 3\n", want: "duplicates"},
		{name: "not yaml", doc: "users: [", want: "parsing seed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := storage.ParseSeed([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadSeedFile_Missing(t *testing.T) {
	_, err := storage.LoadSeedFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.ErrorContains(t, err, "reading seed file")
}

func TestApplySeed(t *testing.T) {
	db := openDB(t)
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(validSeed), 0o600))
	seed, err := storage.LoadSeedFile(path)
	require.NoError(t, err)

	n, err := storage.ApplySeed(ctx, db, seed)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	u, err := storage.NewSQLiteUserStore(db).GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "Bob", u.Name)

	prefs := storage.NewSQLitePreferenceStore(db)
	p, err := prefs.GetPreference(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, []notification.Channel{
		notification.ChannelSMS, notification.ChannelEmail, notification.ChannelMessaging,
	}, p.Priority)
	assert.True(t, p.IsVerified(notification.ChannelEmail))
	assert.False(t, p.IsVerified(notification.ChannelSMS))

	_, err = prefs.GetPreference(ctx, 2)
	assert.ErrorIs(t, err, storage.ErrPreferencesNotFound)
}
