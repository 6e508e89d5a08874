// Package telegram adapts the Telegram Bot API to the pipeline's transport
// boundary: batch update fetching and photo downloads.
package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/burgerquest/bot/internal/config"
	"github.com/burgerquest/bot/internal/pipeline"
)

// Client wraps a Telegram bot connection for batch fetching and downloads.
type Client struct {
	bot         *tgbotapi.BotAPI
	httpClient  *http.Client
	logger      *slog.Logger
	imageDir    string
	pollTimeout int
}

// New creates a Telegram client and verifies the token against the API.
// Downloaded photos are written under imageDir.
func New(cfg config.TelegramConfig, imageDir string, logger *slog.Logger) (*Client, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	log := logger.With("component", "telegram")
	log.Info("Telegram client initialized", "bot_username", bot.Self.UserName)

	return &Client{
		bot:         bot,
		httpClient:  &http.Client{Timeout: 60 * time.Second},
		logger:      log,
		imageDir:    imageDir,
		pollTimeout: cfg.PollTimeout,
	}, nil
}

// FetchUpdates returns the pending update window as pipeline messages.
// Updates without a message payload (edits, callbacks) are dropped here;
// chat filtering and deduplication belong to the grouping engine.
func (c *Client) FetchUpdates(ctx context.Context) ([]pipeline.Message, error) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = c.pollTimeout

	updates, err := c.bot.GetUpdates(u)
	if err != nil {
		return nil, fmt.Errorf("getUpdates failed: %w", err)
	}

	msgs := make([]pipeline.Message, 0, len(updates))
	for _, update := range updates {
		if update.Message == nil {
			continue
		}
		msgs = append(msgs, toMessage(update.Message))
	}

	c.logger.Debug("Fetched updates", "updates", len(updates), "messages", len(msgs))
	return msgs, nil
}

// DownloadPhoto fetches the photo behind ref into the image directory. The
// local name derives from the photo's stable unique id, so one group with
// several photos never collides and a retried pass reuses the existing file.
func (c *Client) DownloadPhoto(ctx context.Context, photo pipeline.PhotoSize) (string, error) {
	dest := filepath.Join(c.imageDir, photo.FileUniqueID+".jpg")
	if _, err := os.Stat(dest); err == nil {
		c.logger.Debug("Photo already downloaded", "path", dest)
		return dest, nil
	}

	url, err := c.bot.GetFileDirectURL(photo.FileID)
	if err != nil {
		return "", fmt.Errorf("getFile failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("failed to build download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("photo download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("photo download failed: unexpected status %s", resp.Status)
	}

	f, err := os.Create(dest)
	if err != nil {
		return "", fmt.Errorf("failed to create image file: %w", err)
	}

	if _, err := io.Copy(f, resp.Body); err != nil {
		f.Close()
		os.Remove(dest)
		return "", fmt.Errorf("failed to write image file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dest)
		return "", fmt.Errorf("failed to close image file: %w", err)
	}

	c.logger.Debug("Photo downloaded", "path", dest, "file_id", photo.FileID)
	return dest, nil
}

// toMessage converts a Telegram message into the transport-agnostic form.
// The media group id carries over as the grouping key for photo bursts.
func toMessage(msg *tgbotapi.Message) pipeline.Message {
	sender := ""
	if msg.From != nil {
		sender = strings.TrimSpace(msg.From.FirstName + " " + msg.From.LastName)
	}

	text := msg.Text
	if text == "" {
		text = msg.Caption
	}

	photos := make([]pipeline.PhotoSize, 0, len(msg.Photo))
	for _, p := range msg.Photo {
		photos = append(photos, pipeline.PhotoSize{
			FileID:       p.FileID,
			FileUniqueID: p.FileUniqueID,
			Width:        p.Width,
			Height:       p.Height,
		})
	}

	return pipeline.Message{
		ID:       msg.MessageID,
		ChatID:   msg.Chat.ID,
		Sender:   sender,
		Text:     text,
		Photo:    photos,
		GroupKey: msg.MediaGroupID,
		SentAt:   msg.Time(),
	}
}
