package feed

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/mlvaux/tickpipe/internal/fixed"
	"github.com/mlvaux/tickpipe/internal/models"
)

// rawColumn is the capture column holding the exact Q16.16 word.
const rawColumn = "price_q16"

// LoadCSV reads a tick capture in input order. The raw Q16.16 column is
// preferred when present because it reproduces the capture bit for bit;
// otherwise the named decimal price column is converted. Rows that fail to
// parse become invalid ticks rather than aborting the replay, the same way
// the hardware sees a deasserted valid strobe.
func LoadCSV(path, priceColumn string) ([]models.Tick, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open tick file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	rawCol := -1
	priceCol := -1
	for i, name := range header {
		switch name {
		case rawColumn:
			rawCol = i
		case priceColumn:
			priceCol = i
		}
	}
	if rawCol < 0 && priceCol < 0 {
		return nil, fmt.Errorf("tick file has neither %q nor %q column", rawColumn, priceColumn)
	}

	var ticks []models.Tick
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row %d: %w", len(ticks)+2, err)
		}

		tick := models.Tick{Index: len(ticks)}
		price, perr := parseRecord(record, rawCol, priceCol)
		if perr != nil {
			log.Warn().Int("row", len(ticks)+2).Err(perr).Msg("unparseable tick, inserting bubble")
		} else {
			tick.Price = price
			tick.Valid = true
		}
		ticks = append(ticks, tick)
	}

	return ticks, nil
}

func parseRecord(record []string, rawCol, priceCol int) (fixed.Point, error) {
	if rawCol >= 0 && rawCol < len(record) {
		raw, err := strconv.ParseInt(record[rawCol], 10, 32)
		if err != nil {
			return 0, fmt.Errorf("bad %s value %q: %w", rawColumn, record[rawCol], err)
		}
		return fixed.Point(raw), nil
	}
	if priceCol >= 0 && priceCol < len(record) {
		d, err := decimal.NewFromString(record[priceCol])
		if err != nil {
			return 0, fmt.Errorf("bad price value %q: %w", record[priceCol], err)
		}
		return fixed.FromDecimal(d)
	}
	return 0, fmt.Errorf("row has %d fields, price column missing", len(record))
}
