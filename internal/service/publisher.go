package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/maheshrc27/creatoraide/internal/models"
	gobreaker "github.com/sony/gobreaker/v2"
)

// PublishRequest is everything a platform needs to publish one post.
type PublishRequest struct {
	Post    *models.ScheduledPost
	Media   *models.MediaFile
	Account *models.SocialAccount
}

// Receipt describes a post accepted by a platform.
type Receipt struct {
	PostURL string
	Message string
}

// Publisher publishes a post to a single platform using a connected account.
type Publisher interface {
	Publish(ctx context.Context, req PublishRequest) (*Receipt, error)
}

// PublisherFunc adapts a function to the Publisher interface.
type PublisherFunc func(ctx context.Context, req PublishRequest) (*Receipt, error)

func (f PublisherFunc) Publish(ctx context.Context, req PublishRequest) (*Receipt, error) {
	return f(ctx, req)
}

// Publishers maps a platform id to its publisher.
type Publishers map[string]Publisher

type breakerPublisher struct {
	next Publisher
	cb   *gobreaker.CircuitBreaker[*Receipt]
}

// WithBreaker stops calling a platform for a while after consecutive failures.
// Only platform failures trip it; a *PostError or a cancelled caller does not.
func WithBreaker(platform string, next Publisher) Publisher {
	settings := gobreaker.Settings{
		Name:        platform,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			var postErr *PostError
			return err == nil || errors.As(err, &postErr) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("publisher circuit changed", "platform", name, "from", from.String(), "to", to.String())
		},
	}
	return &breakerPublisher{next: next, cb: gobreaker.NewCircuitBreaker[*Receipt](settings)}
}

func (p *breakerPublisher) Publish(ctx context.Context, req PublishRequest) (*Receipt, error) {
	return p.cb.Execute(func() (*Receipt, error) {
		return p.next.Publish(ctx, req)
	})
}

func simulatedResult(platform string, now time.Time) models.PublishResult {
	return models.PublishResult{
		Platform:  platform,
		Success:   true,
		Simulated: true,
		Timestamp: now,
		Message:   fmt.Sprintf("Simulated publish to %s", platform),
	}
}
