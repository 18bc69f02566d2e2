// Package telegram provides a client for sending notifications via Telegram Bot API.
package telegram

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/models"
)

// Client handles Telegram notifications.
type Client struct {
	bot            *tgbotapi.BotAPI
	chatID         int64
	maxRetries     int
	retryDelayBase time.Duration
}

// NewClient creates a new Telegram client.
// The chat ID is validated before the bot handshake so a bad config fails
// without touching the network.
func NewClient(botToken, chatID string, maxRetries int, retryDelayBase time.Duration) (*Client, error) {
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}

	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}

	return &Client{
		bot:            bot,
		chatID:         chatIDInt,
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}, nil
}

// ListenForCommands starts a goroutine that polls for Telegram updates and handles bot commands.
// It returns immediately; the goroutine stops when ctx is cancelled.
func (c *Client) ListenForCommands(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := c.bot.GetUpdatesChan(u)

	go func() {
		for {
			select {
			case <-ctx.Done():
				c.bot.StopReceivingUpdates()
				return
			case update, ok := <-updates:
				if !ok {
					return
				}
				if update.Message != nil && update.Message.IsCommand() {
					c.handleCommand(update.Message)
				}
			}
		}
	}()
}

func (c *Client) handleCommand(msg *tgbotapi.Message) {
	switch msg.Command() {
	case "ping":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Pong")
		c.bot.Send(reply) //nolint:errcheck
	}
}

// sendMarkdownV2 sends a MarkdownV2 message with linear-backoff retry.
func (c *Client) sendMarkdownV2(text string) error {
	msg := tgbotapi.NewMessage(c.chatID, text)
	msg.ParseMode = "MarkdownV2"

	var lastErr error
	for i := 0; i < c.maxRetries; i++ {
		if _, err := c.bot.Send(msg); err == nil {
			return nil
		} else {
			lastErr = err
		}
		time.Sleep(c.retryDelayBase * time.Duration(i+1))
	}
	return fmt.Errorf("failed after %d retries: %w", c.maxRetries, lastErr)
}

// SendError sends a feed error notification.
// Call this only when the live feed fails permanently.
func (c *Client) SendError(feedErr error) error {
	text := fmt.Sprintf("⚠️ *Feed error*\n`%s`", escapeMarkdownV2(feedErr.Error()))
	return c.sendMarkdownV2(text)
}

// SendSignal notifies a signal transition for a symbol.
func (c *Client) SendSignal(symbol string, sig models.Signal, price, fast, slow fixed.Point) error {
	return c.sendMarkdownV2(formatSignal(symbol, sig, price, fast, slow))
}

// SendReport notifies the outcome of an offline parity run.
func (c *Client) SendReport(run *models.Run) error {
	return c.sendMarkdownV2(formatReport(run))
}

// formatSignal formats a signal transition into a Telegram MarkdownV2 message.
func formatSignal(symbol string, sig models.Signal, price, fast, slow fixed.Point) string {
	emoji := "⏸"
	switch sig {
	case models.Buy:
		emoji = "📈"
	case models.Sell:
		emoji = "📉"
	}

	message := fmt.Sprintf("%s *%s %s*\n", emoji, sig, escapeMarkdownV2(symbol))
	message += fmt.Sprintf("💰 Price: %s\n", escapeMarkdownV2(price.String()))
	message += fmt.Sprintf("📊 Fast %s / Slow %s", escapeMarkdownV2(fast.String()), escapeMarkdownV2(slow.String()))
	return message
}

// formatReport formats a parity run summary into a Telegram MarkdownV2 message.
func formatReport(run *models.Run) string {
	status := "✅"
	if run.Compared == 0 || run.Matches != run.Compared {
		status = "❌"
	}

	dateStr := escapeMarkdownV2(run.CreatedAt.Format("2006-01-02 15:04:05"))
	rateStr := escapeMarkdownV2(fmt.Sprintf("%.2f%%", run.MatchRate*100))

	message := fmt.Sprintf("%s *Parity run %s*\n", status, escapeMarkdownV2(run.ID))
	message += fmt.Sprintf("📅 %s\n", dateStr)
	message += fmt.Sprintf("🎯 Source: %s\n", escapeMarkdownV2(run.Source))
	message += fmt.Sprintf("🔁 %d ticks, %d compared, %d matched \\(%s\\)\n",
		run.Ticks, run.Compared, run.Matches, rateStr)
	message += fmt.Sprintf("⏱ Latency: %d cycles", run.Latency)
	return message
}

// escapeMarkdownV2 escapes special characters for Telegram MarkdownV2.
func escapeMarkdownV2(text string) string {
	var b strings.Builder
	b.Grow(len(text) + len(text)/4) // pre-allocate with room for escapes
	for _, char := range text {
		switch char {
		case '_', '*', '[', ']', '(', ')', '~', '`', '>', '#', '+', '-', '=', '|', '{', '}', '.', '!':
			b.WriteByte('\\')
		}
		b.WriteRune(char)
	}
	return b.String()
}
