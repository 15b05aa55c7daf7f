package notification

// Registry maps each channel to the sender that serves it. It is built once at
// process start and never mutated afterwards, so it is safe for concurrent use.
type Registry struct {
	senders map[Channel]Sender
}

// NewRegistry builds a registry from senders. A later sender for the same
// channel replaces an earlier one. Nil senders are ignored.
func NewRegistry(senders ...Sender) *Registry {
	m := make(map[Channel]Sender, len(senders))
	for _, s := range senders {
		if s == nil {
			continue
		}
		m[s.Channel()] = s
	}
	return &Registry{senders: m}
}

// Get returns the sender registered for ch.
func (r *Registry) Get(ch Channel) (Sender, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.senders[ch]
	return s, ok
}

// Channels returns the registered channels in default order.
func (r *Registry) Channels() []Channel {
	out := make([]Channel, 0, len(r.senders))
	for _, ch := range DefaultOrder() {
		if _, ok := r.senders[ch]; ok {
			out = append(out, ch)
		}
	}
	return out
}
