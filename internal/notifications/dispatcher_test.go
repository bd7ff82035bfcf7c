package notifications

import (
	"context"
	"errors"
	"testing"

	"github.com/9ssi7/exponent"
	"go.uber.org/zap"
)

type fakeSender struct {
	sent []*exponent.Message
	err  error
}

func (f *fakeSender) Publish(_ context.Context, msgs []*exponent.Message) ([]*exponent.MessageResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = append(f.sent, msgs...)
	return nil, nil
}

type fakeTokens struct {
	tokens map[int64][]string
	err    error
}

func (f *fakeTokens) GetTokens(_ context.Context, userID int64) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.tokens[userID], nil
}

func newTestDispatcher(sender *fakeSender, tokens *fakeTokens) *Dispatcher {
	return NewDispatcher(sender, tokens, zap.NewNop().Sugar())
}

func TestNotifyDeliversToEachToken(t *testing.T) {
	sender := &fakeSender{}
	tokens := &fakeTokens{tokens: map[int64][]string{7: {"tok-a", "tok-b"}}}
	d := newTestDispatcher(sender, tokens)

	if err := d.Notify(context.Background(), 7, "User nearby", "Ana is nearby!", "user-3"); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(sender.sent))
	}
	if sender.sent[0].Title != "User nearby" || sender.sent[0].ChannelID != "user-3" {
		t.Errorf("unexpected message: %+v", sender.sent[0])
	}
}

func TestNotifyWithoutTokenIsSilentNoop(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, &fakeTokens{})

	if err := d.Notify(context.Background(), 7, "t", "m", "k"); err != nil {
		t.Fatalf("no-token delivery must not error, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("sent %d messages, want 0", len(sender.sent))
	}
}

func TestNotifyRepeatedHitsReplaceNotStack(t *testing.T) {
	sender := &fakeSender{}
	tokens := &fakeTokens{tokens: map[int64][]string{7: {"tok"}}}
	d := newTestDispatcher(sender, tokens)

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := d.Notify(ctx, 7, "Venue nearby", "Pub is nearby!", "venue-5"); err != nil {
			t.Fatal(err)
		}
	}
	if len(sender.sent) != 1 {
		t.Fatalf("repeated identical hits sent %d messages, want 1", len(sender.sent))
	}

	// A different entity gets its own slot.
	if err := d.Notify(ctx, 7, "Venue nearby", "Cafe is nearby!", "venue-6"); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 2 {
		t.Fatalf("second entity sent %d total, want 2", len(sender.sent))
	}
}

func TestNotifyResetClearsSlots(t *testing.T) {
	sender := &fakeSender{}
	tokens := &fakeTokens{tokens: map[int64][]string{7: {"tok"}}}
	d := newTestDispatcher(sender, tokens)

	ctx := context.Background()
	d.Notify(ctx, 7, "t", "m", "k")
	d.Reset()
	d.Notify(ctx, 7, "t", "m", "k")

	if len(sender.sent) != 2 {
		t.Fatalf("sent %d messages after reset, want 2", len(sender.sent))
	}
}

func TestNotifySendFailureReleasesSlot(t *testing.T) {
	sender := &fakeSender{err: errors.New("push gateway down")}
	tokens := &fakeTokens{tokens: map[int64][]string{7: {"tok"}}}
	d := newTestDispatcher(sender, tokens)

	ctx := context.Background()
	if err := d.Notify(ctx, 7, "t", "m", "k"); err == nil {
		t.Fatal("want error from failed publish")
	}

	// Slot must be free again so the retry actually sends.
	sender.err = nil
	if err := d.Notify(ctx, 7, "t", "m", "k"); err != nil {
		t.Fatal(err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("retry after failure sent %d messages, want 1", len(sender.sent))
	}
}

func TestNotifyTokenLookupFailure(t *testing.T) {
	sender := &fakeSender{}
	d := newTestDispatcher(sender, &fakeTokens{err: errors.New("db down")})

	if err := d.Notify(context.Background(), 7, "t", "m", "k"); err == nil {
		t.Fatal("want token lookup error to surface")
	}
}
