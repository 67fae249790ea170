package extract

// Selectors names every structural hook on the results page. Layout changes on
// the booking site should only ever touch this struct.
type Selectors struct {
	// Card matches one rendered flight offer.
	Card string

	Origin        string
	Destination   string
	DurationBlock string
	FlightNumber  string
	FareContainer string
	FarePrice     string

	// TimeClass and DurationClass are class lists resolved with FindText.
	TimeClass     string
	DurationClass string
}

// DefaultSelectors returns the selectors for the current results layout.
func DefaultSelectors() Selectors {
	return Selectors{
		Card:          `div.results-grid-container > div`,
		Origin:        `div.cell.large-3.origin`,
		Destination:   `div.cell.large-3.destination`,
		DurationBlock: `div.cell.large-4.pad-left-sm`,
		FlightNumber:  `span.connecting-flt-details.flight-number`,
		FareContainer: `app-choose-flights-price-desktop`,
		FarePrice:     `span.per-pax-amount.ng-star-inserted`,
		TimeClass:     "flt-times-sm",
		DurationClass: "duration",
	}
}

// presence lists the selectors that must all match before cards are read.
func (s Selectors) presence() []string {
	return []string{s.Origin, s.Destination, s.FlightNumber}
}
