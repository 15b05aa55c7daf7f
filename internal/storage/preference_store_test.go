package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/shaharia-lab/courier/internal/notification"
	"github.com/shaharia-lab/courier/internal/storage"
)

func TestVerifiedChannels_PerChannelIndependence(t *testing.T) {
	// Every combination of identifier presence and verified flag for the
	// three channels: 2^6 preference records.
	for mask := 0; mask < 64; mask++ {
		p := &storage.NotificationPreference{
			EmailVerified:     mask&1 != 0,
			PhoneVerified:     mask&2 != 0,
			MessagingVerified: mask&4 != 0,
		}
		if mask&8 != 0 {
			p.Email = "a@example.com"
		}
		if mask&16 != 0 {
			p.Phone = "+15550100"
		}
		if mask&32 != 0 {
			p.MessagingHandle = "123"
		}

		got := p.VerifiedChannels()
		want := map[notification.Channel]bool{
			notification.ChannelEmail:     p.Email != "" && p.EmailVerified,
			notification.ChannelSMS:       p.Phone != "" && p.PhoneVerified,
			notification.ChannelMessaging: p.MessagingHandle != "" && p.MessagingVerified,
		}
		for ch, expected := range want {
			_, ok := got[ch]
			assert.Equal(t, expected, ok, "mask=%06b channel=%s", mask, ch)
			assert.Equal(t, expected, p.IsVerified(ch), "mask=%06b channel=%s", mask, ch)
		}
		assert.LessOrEqual(t, len(got), 3)
	}
}

func TestPriorityOrder(t *testing.T) {
	p := &storage.NotificationPreference{}
	assert.Equal(t, notification.DefaultOrder(), p.PriorityOrder())

	p.Priority = []notification.Channel{notification.ChannelSMS, notification.ChannelEmail}
	order := p.PriorityOrder()
	assert.Equal(t, []notification.Channel{notification.ChannelSMS, notification.ChannelEmail}, order)

	order[0] = notification.ChannelMessaging
	assert.Equal(t, notification.ChannelSMS, p.Priority[0], "PriorityOrder must return a copy")
}

func TestTarget(t *testing.T) {
	p := &storage.NotificationPreference{Email: "e@example.com", Phone: "+1", MessagingHandle: "42"}
	assert.Equal(t, "e@example.com", p.Target(notification.ChannelEmail))
	assert.Equal(t, "+1", p.Target(notification.ChannelSMS))
	assert.Equal(t, "42", p.Target(notification.ChannelMessaging))
	assert.Empty(t, p.Target("fax"))
	assert.False(t, p.IsVerified("fax"))
}
