// Package gateway bridges the review workflow to external push-messaging channels.
// It resolves per-user channel credentials, fetches display profiles and sends text,
// converting every channel failure into an explicit result.
package gateway

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/edgard/replydesk/internal/database"
	"github.com/edgard/replydesk/internal/metrics"
)

var (
	// ErrMissingCredentials is returned when no channel credentials exist for a user.
	ErrMissingCredentials = errors.New("channel credentials not found")
	// ErrSendFailed wraps any error raised while delivering a message.
	ErrSendFailed = errors.New("message delivery failed")
)

// Profile is the display identity of a customer.
type Profile struct {
	DisplayName string
	PictureURL  string
	// Fallback is set when the profile could not be fetched and the user id stands in for the name.
	Fallback bool
}

// FallbackProfile is the identity shown when the channel profile is unavailable.
func FallbackProfile(userID string) Profile {
	return Profile{DisplayName: userID, Fallback: true}
}

// CredentialSource looks up channel credentials. Implementations return nil, nil when
// the user has none.
type CredentialSource interface {
	GetCredentials(ctx context.Context, userID string) (*database.Credentials, error)
}

// Messenger talks to one channel on behalf of one set of credentials.
type Messenger interface {
	Profile(ctx context.Context, userID string) (Profile, error)
	PushText(ctx context.Context, userID, text string) error
}

// MessengerFactory builds a Messenger from channel credentials.
type MessengerFactory func(creds database.Credentials) (Messenger, error)

// Gateway resolves credentials and dispatches to the channel messenger.
type Gateway struct {
	creds     CredentialSource
	factories map[database.Channel]MessengerFactory
	cache     *ProfileCache
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// Option configures a Gateway.
type Option func(*Gateway)

// WithMessenger registers the factory used for a channel.
func WithMessenger(channel database.Channel, factory MessengerFactory) Option {
	return func(g *Gateway) {
		g.factories[channel] = factory
	}
}

// WithProfileCache sets the session profile cache.
func WithProfileCache(cache *ProfileCache) Option {
	return func(g *Gateway) {
		g.cache = cache
	}
}

// WithMetrics records lookups and failures on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) {
		g.metrics = m
	}
}

// New creates a Gateway reading credentials from creds.
func New(creds CredentialSource, logger *slog.Logger, opts ...Option) *Gateway {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	g := &Gateway{
		creds:     creds,
		factories: make(map[database.Channel]MessengerFactory),
		logger:    logger.With("component", "gateway"),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.cache == nil {
		g.cache = NewProfileCache(0)
	}
	return g
}

// Cache returns the profile cache backing FetchProfile.
func (g *Gateway) Cache() *ProfileCache {
	return g.cache
}

// FetchProfile returns the display profile for userID. It never fails: when credentials
// are missing or the channel call errors, the fallback profile is returned and the
// condition is logged. Only remote profiles are cached.
func (g *Gateway) FetchProfile(ctx context.Context, userID string) Profile {
	if p, ok := g.cache.Get(userID); ok {
		g.metrics.ProfileLookup("cached")
		return p
	}

	log := g.logger.With("user_id", userID)

	messenger, err := g.messengerFor(ctx, userID)
	if err != nil {
		log.WarnContext(ctx, "Using fallback profile", "error", err)
		g.metrics.ProfileLookup("fallback")
		return FallbackProfile(userID)
	}

	p, err := messenger.Profile(ctx, userID)
	if err != nil {
		log.WarnContext(ctx, "Error fetching user profile, using fallback", "error", err)
		g.metrics.ProfileLookup("fallback")
		return FallbackProfile(userID)
	}
	if p.DisplayName == "" {
		p.DisplayName = userID
	}

	g.cache.Put(userID, p)
	g.metrics.ProfileLookup("remote")
	log.DebugContext(ctx, "Fetched user profile", "display_name", p.DisplayName)
	return p
}

// SendText pushes text to userID. Missing credentials yield ErrMissingCredentials without
// any network call; channel errors are wrapped with ErrSendFailed. No retry is attempted.
func (g *Gateway) SendText(ctx context.Context, userID, text string) error {
	log := g.logger.With("user_id", userID)

	messenger, err := g.messengerFor(ctx, userID)
	if err != nil {
		log.ErrorContext(ctx, "Cannot send message", "error", err)
		if errors.Is(err, ErrMissingCredentials) {
			g.metrics.SendFailed("missing_credentials")
			return err
		}
		g.metrics.SendFailed("setup")
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	if err := messenger.PushText(ctx, userID, text); err != nil {
		log.ErrorContext(ctx, "Error sending message", "error", err)
		g.metrics.SendFailed("channel")
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	log.InfoContext(ctx, "Message pushed", "length", len(text))
	return nil
}

func (g *Gateway) messengerFor(ctx context.Context, userID string) (Messenger, error) {
	creds, err := g.creds.GetCredentials(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("credential lookup: %w", err)
	}
	if creds == nil {
		return nil, fmt.Errorf("%w for user %s", ErrMissingCredentials, userID)
	}

	channel := creds.Channel
	if channel == "" {
		channel = database.ChannelLine
	}
	factory, ok := g.factories[channel]
	if !ok {
		return nil, fmt.Errorf("no messenger registered for channel %q", channel)
	}

	messenger, err := factory(*creds)
	if err != nil {
		return nil, fmt.Errorf("build %s messenger: %w", channel, err)
	}
	return messenger, nil
}

// ResetProfiles clears the profile cache and returns how many entries were dropped.
func (g *Gateway) ResetProfiles() int {
	return g.cache.Reset()
}
