package notifications

import (
	"context"
	"sync"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"
)

// TokenSource resolves a user's registered device tokens. No tokens means the
// user never granted notification permission on any device.
type TokenSource interface {
	GetTokens(ctx context.Context, userID int64) ([]string, error)
}

// Dispatcher turns proximity hits into push notifications. Delivery is gated
// on the target having at least one registered token, and each dedupe key
// owns a notification slot: repeated hits for the same entity replace the
// previous notification instead of stacking a new one.
type Dispatcher struct {
	push   PushSender
	tokens TokenSource
	logger *zap.SugaredLogger

	mu    sync.Mutex
	slots map[string]string // dedupe key -> last delivered message
}

func NewDispatcher(push PushSender, tokens TokenSource, logger *zap.SugaredLogger) *Dispatcher {
	return &Dispatcher{
		push:   push,
		tokens: tokens,
		logger: logger,
		slots:  make(map[string]string),
	}
}

// Notify delivers a notification to the user, or silently does nothing when
// the user has no registered device token. It never solicits permission; the
// caller owns that flow.
func (d *Dispatcher) Notify(ctx context.Context, userID int64, title, message, dedupeKey string) error {
	tokens, err := d.tokens.GetTokens(ctx, userID)
	if err != nil {
		return err
	}
	if len(tokens) == 0 {
		d.logger.Debugw("notification skipped, no device token", "user_uid", userID)
		return nil
	}

	if !d.claimSlot(dedupeKey, message) {
		return nil
	}

	msgs := make([]*exponent.Message, 0, len(tokens))
	for _, t := range tokens {
		token := exponent.Token(t)
		msgs = append(msgs, &exponent.Message{
			To:    []*exponent.Token{&token},
			Title: title,
			Body:  message,
			// The channel id is the dedupe key, so the device collapses
			// repeated notifications for the same entity into one slot.
			ChannelID: dedupeKey,
			Data:      map[string]string{"dedupe_key": dedupeKey},
		})
	}

	if _, err := d.push.Publish(ctx, msgs); err != nil {
		d.releaseSlot(dedupeKey)
		return err
	}
	return nil
}

// Reset clears the dedupe slots, so the next hit for any entity notifies
// again. The tracker calls this when tracking restarts.
func (d *Dispatcher) Reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slots = make(map[string]string)
}

// claimSlot reports whether the message for this key should be sent: an
// unchanged message for an already-claimed key is a repeat hit and is
// suppressed.
func (d *Dispatcher) claimSlot(key, message string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if prev, ok := d.slots[key]; ok && prev == message {
		return false
	}
	d.slots[key] = message
	return true
}

func (d *Dispatcher) releaseSlot(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.slots, key)
}
