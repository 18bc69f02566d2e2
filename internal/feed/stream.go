package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/metrics"
)

type streamEnvelope struct {
	Stream string      `json:"stream"`
	Data   streamTrade `json:"data"`
}

type streamTrade struct {
	Symbol    string `json:"s"`
	Price     string `json:"p"`
	TradeTime int64  `json:"T"`
}

func (f *Feed) runWS(ctx context.Context, out chan<- Update) error {
	if len(f.symbols) == 0 {
		return fmt.Errorf("websocket feed requires at least one symbol")
	}

	streams := make([]string, len(f.symbols))
	for i, sym := range f.symbols {
		streams[i] = strings.ToLower(sym) + "@trade"
	}

	url := fmt.Sprintf("%s?streams=%s", f.wsURL, strings.Join(streams, "/"))
	backoff := time.Second
	const maxBackoff = 30 * time.Second

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := f.consumeStream(ctx, url, out); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msg("price stream disconnected, retrying")
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
			backoff = time.Duration(math.Min(float64(maxBackoff), float64(backoff)*1.8))
			continue
		}
		return nil
	}
}

func (f *Feed) consumeStream(ctx context.Context, url string, out chan<- Update) error {
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	log.Info().Strs("symbols", f.symbols).Msg("connected price stream")

	conn.SetReadLimit(1 << 20)
	conn.SetReadDeadline(time.Now().Add(30 * time.Second))
	conn.SetPongHandler(func(appData string) error {
		conn.SetReadDeadline(time.Now().Add(30 * time.Second))
		return nil
	})

	pingCtx, pingCancel := context.WithCancel(ctx)
	defer pingCancel()
	go func() {
		ticker := time.NewTicker(15 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					log.Warn().Err(err).Msg("stream ping failed")
					return
				}
			case <-pingCtx.Done():
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		_, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var env streamEnvelope
		if err := json.Unmarshal(message, &env); err != nil {
			log.Warn().Err(err).Msg("failed to decode stream message")
			continue
		}

		symbol := env.Data.Symbol
		if symbol == "" {
			symbol = symbolFromStream(env.Stream)
		}

		upd := parseUpdate(symbol, env.Data.Price, time.UnixMilli(env.Data.TradeTime))
		select {
		case out <- upd:
			metrics.TicksTotal.WithLabelValues(symbol).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func symbolFromStream(stream string) string {
	parts := strings.Split(stream, "@")
	if len(parts) == 0 || parts[0] == "" {
		return strings.ToUpper(stream)
	}
	return strings.ToUpper(parts[0])
}

// parseUpdate converts the exchange's decimal price string to Q16.16.
// Prices the 16-bit integer field cannot hold become invalid updates, so
// the datapath sees a deasserted valid strobe instead of a wrapped value.
func parseUpdate(symbol, price string, at time.Time) Update {
	d, err := decimal.NewFromString(price)
	if err != nil {
		log.Warn().Str("symbol", symbol).Str("price", price).Err(err).Msg("unparseable stream price")
		metrics.InvalidTicks.Inc()
		return Update{Symbol: symbol, At: at}
	}
	p, err := fixed.FromDecimal(d)
	if err != nil {
		log.Warn().Str("symbol", symbol).Str("price", price).Err(err).Msg("stream price outside representable range")
		metrics.InvalidTicks.Inc()
		return Update{Symbol: symbol, At: at}
	}
	return Update{Symbol: symbol, Price: p, Valid: true, At: at}
}
