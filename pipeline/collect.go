package pipeline

import (
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aluiziolira/go-scrape-flights/extract"
	"github.com/aluiziolira/go-scrape-flights/models"
	"github.com/aluiziolira/go-scrape-flights/parser"
)

// CardCollector turns located flight cards into numbered records. Cards
// that fail extraction or validation are skipped. With a positive dedupe
// size, repeats of a card already seen are dropped.
type CardCollector struct {
	extractor *extract.Extractor
	seen      *lru.Cache[string, struct{}]
	metrics   *Metrics
}

// NewCardCollector returns a collector remembering up to dedupeSize cards.
// A dedupeSize of zero keeps every card.
func NewCardCollector(x *extract.Extractor, dedupeSize int, m *Metrics) *CardCollector {
	c := &CardCollector{extractor: x, metrics: m}
	if dedupeSize > 0 {
		// lru.New only fails for a non-positive size.
		c.seen, _ = lru.New[string, struct{}](dedupeSize)
	}
	return c
}

// Collect appends a record for every usable card to result, numbering them
// from len(result.Records)+1, and updates result's card counters.
func (c *CardCollector) Collect(log *slog.Logger, cards []*goquery.Selection, result *models.ScrapeResult) {
	for i, card := range cards {
		result.CardsSeen++

		fields, err := c.extractor.Extract(i, card)
		if err != nil {
			log.Warn("skipping flight card", slog.Int("card", i), slog.Any("error", err))
			result.CardsSkipped++
			c.metrics.incCard("skipped")
			c.metrics.incError(err)
			continue
		}

		rec := models.FlightRecord{
			ID:            len(result.Records) + 1,
			FlightNumbers: fields.FlightNumbers,
			DepartureTime: fields.DepartureTime,
			ArrivalTime:   fields.ArrivalTime,
			Duration:      fields.Duration,
			Fares:         parser.NormalizeFares(fields.FareTexts),
		}
		if err := parser.ValidateRecord(&rec); err != nil {
			log.Warn("skipping incomplete flight card", slog.Int("card", i), slog.Any("error", err))
			result.CardsSkipped++
			c.metrics.incCard("invalid")
			continue
		}

		if c.seen != nil {
			key := strings.Join(rec.FlightNumbers, "|") + "@" + rec.DepartureTime
			if found, _ := c.seen.ContainsOrAdd(key, struct{}{}); found {
				result.Duplicates++
				c.metrics.incCard("duplicate")
				continue
			}
		}

		result.Records = append(result.Records, rec)
		c.metrics.incCard("extracted")
	}
}
