// Package extracttest builds results pages shaped like the booking site's,
// for tests that exercise extraction without a browser.
package extracttest

import (
	"fmt"
	"strings"
)

// Card describes one flight card to render.
type Card struct {
	FlightNumbers []string
	Depart        string
	Arrive        string
	Duration      string
	Fares         []string

	OmitDuration bool
	OmitOrigin   bool
	OmitFares    bool
}

// Page renders a complete results document containing cards in order.
func Page(cards ...Card) string {
	var b strings.Builder
	b.WriteString(`<html><body><div id="aa-content"><app-results-grid-desktop><div>`)
	b.WriteString(`<virtual-scroller><div class="scrollable-content"><div class="results-grid-container">`)
	for _, c := range cards {
		writeCard(&b, c)
	}
	b.WriteString(`</div></div></virtual-scroller></div></app-results-grid-desktop></div></body></html>`)
	return b.String()
}

// EmptyPage renders a results document with no cards.
func EmptyPage() string {
	return Page()
}

func writeCard(b *strings.Builder, c Card) {
	b.WriteString(`<div class="grid-x results-card">`)
	if !c.OmitOrigin {
		fmt.Fprintf(b, `<div class="cell large-3 origin"><div class="city-code">ORIG</div><div class="flt-times-sm"> %s </div></div>`, c.Depart)
	}
	fmt.Fprintf(b, `<div class="cell large-3 destination"><div class="flt-times-sm">%s</div></div>`, c.Arrive)
	b.WriteString(`<div class="cell large-4 pad-left-sm">`)
	if !c.OmitDuration {
		fmt.Fprintf(b, `<div class="duration">%s</div>`, c.Duration)
	}
	for _, n := range c.FlightNumbers {
		fmt.Fprintf(b, `<span class="connecting-flt-details flight-number">%s</span>`, n)
	}
	b.WriteString(`</div>`)
	if !c.OmitFares {
		b.WriteString(`<app-choose-flights-price-desktop><div class="large-7">`)
		for _, f := range c.Fares {
			fmt.Fprintf(b, `<button><span class="per-pax-amount ng-star-inserted">%s</span></button>`, f)
		}
		b.WriteString(`</div></app-choose-flights-price-desktop>`)
	}
	b.WriteString(`</div>`)
}
