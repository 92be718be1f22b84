package messenger

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp/kb"
)

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real-time Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// SendError reports the message whose typing failed. Messages after it were not attempted.
type SendError struct {
	Index   int
	Message string
	Err     error
}

func (e *SendError) Error() string {
	return fmt.Sprintf("failed to send message %d (%q): %v", e.Index+1, truncate(e.Message, 40), e.Err)
}

func (e *SendError) Unwrap() error { return e.Err }

// Feeder types messages into a composer one after another.
type Feeder struct {
	KeystrokeDelay time.Duration
	MessageDelay   time.Duration
	Sleep          Sleeper
}

// Send types each message into el and submits it with Enter, pausing
// MessageDelay between messages. onSent, if set, runs after each submit.
// Delivery is not confirmed.
func (f Feeder) Send(ctx context.Context, el Element, msgs []string, onSent func(i int, msg string)) error {
	sleep := f.Sleep
	if sleep == nil {
		sleep = Sleep
	}

	for i, msg := range msgs {
		if err := f.sendOne(ctx, el, msg, sleep); err != nil {
			return &SendError{Index: i, Message: msg, Err: err}
		}
		if onSent != nil {
			onSent(i, msg)
		}

		if i < len(msgs)-1 {
			if err := sleep(ctx, f.MessageDelay); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f Feeder) sendOne(ctx context.Context, el Element, msg string, sleep Sleeper) error {
	if err := el.Focus(ctx); err != nil {
		return fmt.Errorf("focus: %w", err)
	}

	for _, r := range msg {
		if err := el.Key(ctx, string(r)); err != nil {
			return fmt.Errorf("type %q: %w", r, err)
		}
		if err := sleep(ctx, f.KeystrokeDelay); err != nil {
			return err
		}
	}

	if err := el.Key(ctx, kb.Enter); err != nil {
		return fmt.Errorf("press enter: %w", err)
	}
	return nil
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
