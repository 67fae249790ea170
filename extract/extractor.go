// Package extract turns a loaded results page into plain card data.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Document is a live page the extractor can wait on and snapshot.
// WaitPresent applies a single bound to all selectors of one call.
type Document interface {
	WaitPresent(ctx context.Context, selectors ...string) error
	HTML(ctx context.Context) (string, error)
}

// CardFields is everything read from one card, before fare normalization.
type CardFields struct {
	FlightNumbers []string
	DepartureTime string
	ArrivalTime   string
	Duration      string
	FareTexts     []string
}

// Extractor reads flight cards using a fixed set of selectors.
type Extractor struct {
	sel Selectors
}

// New returns an extractor for the given selectors.
func New(sel Selectors) *Extractor {
	return &Extractor{sel: sel}
}

// Selectors returns the selectors the extractor was built with.
func (x *Extractor) Selectors() Selectors {
	return x.sel
}

// Page is a parsed snapshot of the results document.
type Page struct {
	HTML  string
	Root  *goquery.Selection
	Cards []*goquery.Selection
}

// LocateCards waits until origin, destination and flight-number nodes are
// present, then snapshots the document and returns its cards in order.
func (x *Extractor) LocateCards(ctx context.Context, doc Document) (*Page, error) {
	if err := doc.WaitPresent(ctx, x.sel.presence()...); err != nil {
		// The bounded wait expired while the run itself is still live.
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, ErrResultsNotFound{Err: fmt.Errorf("wait for results: %w", err)}
		}
		return nil, fmt.Errorf("wait for results: %w", err)
	}

	html, err := doc.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("snapshot results page: %w", err)
	}
	root, err := Parse(html)
	if err != nil {
		return nil, err
	}
	cards, err := x.Cards(root)
	if err != nil {
		return nil, err
	}
	return &Page{HTML: html, Root: root, Cards: cards}, nil
}

// Parse builds a goquery root from raw HTML.
func Parse(html string) (*goquery.Selection, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}
	return doc.Selection, nil
}

// Cards applies the structural presence check to an already-loaded document
// and returns the card containers.
func (x *Extractor) Cards(root *goquery.Selection) ([]*goquery.Selection, error) {
	for _, sel := range x.sel.presence() {
		if root.Find(sel).Length() == 0 {
			return nil, ErrResultsNotFound{Err: fmt.Errorf("no nodes match %s", sel)}
		}
	}

	found := root.Find(x.sel.Card)
	if found.Length() == 0 {
		return nil, ErrResultsNotFound{Err: fmt.Errorf("no cards match %s", x.sel.Card)}
	}

	origins := root.Find(x.sel.Origin).Length()
	destinations := root.Find(x.sel.Destination).Length()
	if origins != found.Length() || destinations != found.Length() {
		slog.Warn("results page block counts differ from card count",
			slog.Int("cards", found.Length()),
			slog.Int("origins", origins),
			slog.Int("destinations", destinations),
		)
	}

	cards := make([]*goquery.Selection, 0, found.Length())
	found.Each(func(_ int, s *goquery.Selection) {
		cards = append(cards, s)
	})
	return cards, nil
}

// Extract reads one card. index is only used to label errors.
func (x *Extractor) Extract(index int, card *goquery.Selection) (CardFields, error) {
	var out CardFields

	card.Find(x.sel.FlightNumber).Each(func(_ int, s *goquery.Selection) {
		out.FlightNumbers = append(out.FlightNumbers, strings.TrimSpace(s.Text()))
	})
	if len(out.FlightNumbers) == 0 {
		return CardFields{}, ErrCardExtraction{Index: index, Err: ErrFieldNotFound{Field: "flight_number"}}
	}

	var err error
	if out.DepartureTime, err = x.blockText(card, x.sel.Origin, "origin", x.sel.TimeClass); err != nil {
		return CardFields{}, ErrCardExtraction{Index: index, Err: err}
	}
	if out.ArrivalTime, err = x.blockText(card, x.sel.Destination, "destination", x.sel.TimeClass); err != nil {
		return CardFields{}, ErrCardExtraction{Index: index, Err: err}
	}
	if out.Duration, err = x.blockText(card, x.sel.DurationBlock, "duration", x.sel.DurationClass); err != nil {
		return CardFields{}, ErrCardExtraction{Index: index, Err: err}
	}

	fares := card.Find(x.sel.FareContainer).First()
	if fares.Length() == 0 {
		return CardFields{}, ErrCardExtraction{Index: index, Err: ErrFieldNotFound{Field: "fares"}}
	}
	out.FareTexts = fares.Find(x.sel.FarePrice).Map(func(_ int, s *goquery.Selection) string {
		return s.Text()
	})

	return out, nil
}

func (x *Extractor) blockText(card *goquery.Selection, blockSel, field, className string) (string, error) {
	block := card.Find(blockSel).First()
	if block.Length() == 0 {
		return "", ErrFieldNotFound{Field: field}
	}
	text, err := FindText(block, className)
	if err != nil {
		return "", ErrFieldNotFound{Field: field}
	}
	return text, nil
}

// FindText returns the trimmed text of the first descendant of node carrying
// every class in className (space separated). A missing descendant is an
// ErrFieldNotFound; an empty one returns "".
func FindText(node *goquery.Selection, className string) (string, error) {
	classes := strings.Fields(className)
	if node == nil || len(classes) == 0 {
		return "", ErrFieldNotFound{Field: className}
	}
	match := node.Find("." + strings.Join(classes, ".")).First()
	if match.Length() == 0 {
		return "", ErrFieldNotFound{Field: className}
	}
	return strings.TrimSpace(match.Text()), nil
}
