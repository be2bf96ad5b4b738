package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/line/line-bot-sdk-go/v8/linebot/messaging_api"

	"github.com/edgard/replydesk/internal/database"
)

// LineOptions configures LINE messengers.
type LineOptions struct {
	// Endpoint overrides the Messaging API base URL. Empty uses the SDK default.
	Endpoint   string
	HTTPClient *http.Client
}

type lineMessenger struct {
	api *messaging_api.MessagingApiAPI
}

// NewLineFactory returns a MessengerFactory for the LINE Messaging API.
func NewLineFactory(opts LineOptions) MessengerFactory {
	return func(creds database.Credentials) (Messenger, error) {
		if creds.ChannelAccessToken == "" {
			return nil, fmt.Errorf("empty channel access token")
		}

		var apiOpts []messaging_api.MessagingApiAPIOption
		if opts.Endpoint != "" {
			apiOpts = append(apiOpts, messaging_api.WithEndpoint(opts.Endpoint))
		}
		if opts.HTTPClient != nil {
			apiOpts = append(apiOpts, messaging_api.WithHTTPClient(opts.HTTPClient))
		}

		api, err := messaging_api.NewMessagingApiAPI(creds.ChannelAccessToken, apiOpts...)
		if err != nil {
			return nil, fmt.Errorf("create line client: %w", err)
		}
		return &lineMessenger{api: api}, nil
	}
}

func (m *lineMessenger) Profile(ctx context.Context, userID string) (Profile, error) {
	resp, err := m.api.WithContext(ctx).GetProfile(userID)
	if err != nil {
		return Profile{}, fmt.Errorf("line get profile: %w", err)
	}
	return Profile{DisplayName: resp.DisplayName, PictureURL: resp.PictureUrl}, nil
}

func (m *lineMessenger) PushText(ctx context.Context, userID, text string) error {
	req := &messaging_api.PushMessageRequest{
		To: userID,
		Messages: []messaging_api.MessageInterface{
			messaging_api.TextMessage{Text: text},
		},
	}
	// A fresh retry key per operator action; a re-click is a new delivery attempt.
	if _, err := m.api.WithContext(ctx).PushMessage(req, uuid.NewString()); err != nil {
		return fmt.Errorf("line push message: %w", err)
	}
	return nil
}
