// Package notification defines the delivery channels, the Sender contract each
// transport implements, and the concrete email, SMS and Telegram senders.
package notification

import (
	"fmt"
	"strings"
)

// Channel identifies one supported delivery transport.
type Channel string

// Known channels.
const (
	ChannelEmail     Channel = "email"
	ChannelSMS       Channel = "sms"
	ChannelMessaging Channel = "messaging"
)

// DefaultOrder is the priority order used when a user has not configured one.
func DefaultOrder() []Channel {
	return []Channel{ChannelEmail, ChannelSMS, ChannelMessaging}
}

// Valid reports whether c is one of the known channels.
func (c Channel) Valid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelMessaging:
		return true
	}
	return false
}

func (c Channel) String() string { return string(c) }

// ParseChannel converts a user-supplied identifier into a Channel.
// "telegram" is accepted as an alias for the messaging channel.
func ParseChannel(s string) (Channel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "email":
		return ChannelEmail, nil
	case "sms":
		return ChannelSMS, nil
	case "messaging", "telegram":
		return ChannelMessaging, nil
	}
	return "", fmt.Errorf("unknown channel %q", s)
}

// ParseChannels parses every entry of ids, failing on the first unknown one.
func ParseChannels(ids []string) ([]Channel, error) {
	out := make([]Channel, 0, len(ids))
	for _, id := range ids {
		ch, err := ParseChannel(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, nil
}
