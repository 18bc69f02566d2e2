package telegram

import (
	"strings"
	"testing"
	"time"

	"github.com/mlvaux/tickpipe/internal/models"
)

func TestEscapeMarkdownV2(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"BTCUSDT", "BTCUSDT"},
		{"101.5", "101\\.5"},
		{"run-42", "run\\-42"},
		{"2025-01-02 15:04:05", "2025\\-01\\-02 15:04:05"},
		{"fast > slow", "fast \\> slow"},
		{"(100.00%)", "\\(100\\.00%\\)"},
		{"", ""},
		{"_*[]()~`>#+-=|{}.!", "\\_\\*\\[\\]\\(\\)\\~\\`\\>\\#\\+\\-\\=\\|\\{\\}\\.\\!"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := escapeMarkdownV2(tt.input)
			if result != tt.expected {
				t.Errorf("escapeMarkdownV2(%q) = %q, want %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatSignal(t *testing.T) {
	// 101.5, 101.25, 100.75 in Q16.16
	got := formatSignal("BTCUSDT", models.Buy, 6651904, 6635520, 6602752)
	want := "📈 *BUY BTCUSDT*\n" +
		"💰 Price: 101\\.5\n" +
		"📊 Fast 101\\.25 / Slow 100\\.75"
	if got != want {
		t.Errorf("formatSignal = %q, want %q", got, want)
	}

	got = formatSignal("ETHUSDT", models.Sell, 6553600, 6553600, 6553601)
	if got[:len("📉")] != "📉" {
		t.Errorf("Sell message should lead with the down emoji: %q", got)
	}

	got = formatSignal("ETHUSDT", models.Hold, 6553600, 6553600, 6553600)
	if got[:len("⏸")] != "⏸" {
		t.Errorf("Hold message should lead with the pause emoji: %q", got)
	}
}

func TestFormatReport(t *testing.T) {
	run := &models.Run{
		ID:        "run-1",
		Source:    "csv",
		FastShift: 1,
		SlowShift: 6,
		Latency:   3,
		Ticks:     400,
		Compared:  400,
		Matches:   400,
		MatchRate: 1.0,
		CreatedAt: time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC),
	}

	got := formatReport(run)
	want := "✅ *Parity run run\\-1*\n" +
		"📅 2025\\-01\\-02 15:04:05\n" +
		"🎯 Source: csv\n" +
		"🔁 400 ticks, 400 compared, 400 matched \\(100\\.00%\\)\n" +
		"⏱ Latency: 3 cycles"
	if got != want {
		t.Errorf("formatReport = %q, want %q", got, want)
	}

	run.Matches = 399
	run.MatchRate = 399.0 / 400.0
	got = formatReport(run)
	if got[:len("❌")] != "❌" {
		t.Errorf("Imperfect run should lead with the failure emoji: %q", got)
	}
}

func TestNewClient_InvalidChatID(t *testing.T) {
	// Chat ID parsing runs before the bot handshake, so these fail fast
	// with the parse error and never touch the network.
	tests := []struct {
		name   string
		chatID string
	}{
		{name: "not a number", chatID: "not-a-number"},
		{name: "empty", chatID: ""},
		{name: "fractional", chatID: "12.5"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewClient("", tt.chatID, 3, time.Second)
			if err == nil {
				t.Fatalf("NewClient(chatID=%q) should fail", tt.chatID)
			}
			if !strings.Contains(err.Error(), "invalid chat ID") {
				t.Errorf("NewClient(chatID=%q) error = %q, want the chat ID parse error", tt.chatID, err)
			}
		})
	}
}
