package gateway

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-telegram/bot"

	"github.com/edgard/replydesk/internal/database"
)

// TelegramOptions configures Telegram messengers.
type TelegramOptions struct {
	// ServerURL overrides the Bot API base URL. Empty uses the library default.
	ServerURL      string
	RequestTimeout time.Duration
}

type telegramMessenger struct {
	bot *bot.Bot
}

// NewTelegramFactory returns a MessengerFactory for the Telegram Bot API. The
// channel access token is the bot token and the user id is the private chat id.
func NewTelegramFactory(opts TelegramOptions) MessengerFactory {
	return func(creds database.Credentials) (Messenger, error) {
		if creds.ChannelAccessToken == "" {
			return nil, fmt.Errorf("empty bot token")
		}

		botOpts := []bot.Option{bot.WithSkipGetMe()}
		if opts.ServerURL != "" {
			botOpts = append(botOpts, bot.WithServerURL(opts.ServerURL))
		}
		if opts.RequestTimeout > 0 {
			botOpts = append(botOpts, bot.WithHTTPClient(opts.RequestTimeout, &http.Client{Timeout: opts.RequestTimeout}))
		}

		b, err := bot.New(creds.ChannelAccessToken, botOpts...)
		if err != nil {
			return nil, fmt.Errorf("create telegram bot: %w", err)
		}
		return &telegramMessenger{bot: b}, nil
	}
}

func (m *telegramMessenger) Profile(ctx context.Context, userID string) (Profile, error) {
	chat, err := m.bot.GetChat(ctx, &bot.GetChatParams{ChatID: chatID(userID)})
	if err != nil {
		return Profile{}, fmt.Errorf("telegram get chat: %w", err)
	}

	name := strings.TrimSpace(chat.FirstName + " " + chat.LastName)
	if name == "" {
		name = chat.Username
	}
	// Chat photos are only reachable through a download link that embeds the bot
	// token, so Telegram profiles carry no picture and the placeholder is shown.
	return Profile{DisplayName: name}, nil
}

func (m *telegramMessenger) PushText(ctx context.Context, userID, text string) error {
	if _, err := m.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: chatID(userID),
		Text:   text,
	}); err != nil {
		return fmt.Errorf("telegram send message: %w", err)
	}
	return nil
}

// chatID passes numeric ids as int64 and anything else (e.g. @channel) verbatim.
func chatID(userID string) any {
	if id, err := strconv.ParseInt(userID, 10, 64); err == nil {
		return id
	}
	return userID
}
