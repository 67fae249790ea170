// Package models defines data structures for the scraper.
package models

import (
	"fmt"
	"strings"
	"time"
)

// NotAvailable marks a fare tier the source page did not offer.
const NotAvailable = "N/A"

// DefaultAirline is the only carrier the scraper targets today.
const DefaultAirline = "AmericanAirline"

// TripType selects round-trip or one-way searches.
type TripType string

const (
	RoundTrip TripType = "round trip"
	OneWay    TripType = "one way"
)

// Query describes one search. It is built once per request and passed by value.
//
// Dates are expected in the target site's textual format already; see
// parser.SiteDate for the translation done at the boundary.
type Query struct {
	Depart        string   `json:"depart"`
	Arrive        string   `json:"arrive"`
	DepartureDate string   `json:"departure_date"`
	ReturnDate    string   `json:"return_date,omitempty"`
	TripType      TripType `json:"trip_type"`
	Airline       string   `json:"airline"`
}

// NewQuery builds a validated Query. An empty returnDate yields a one-way trip.
func NewQuery(depart, arrive, departureDate, returnDate string) (Query, error) {
	q := Query{
		Depart:        strings.ToUpper(strings.TrimSpace(depart)),
		Arrive:        strings.ToUpper(strings.TrimSpace(arrive)),
		DepartureDate: strings.TrimSpace(departureDate),
		ReturnDate:    strings.TrimSpace(returnDate),
		TripType:      RoundTrip,
		Airline:       DefaultAirline,
	}
	if q.ReturnDate == "" {
		q.TripType = OneWay
	}
	if err := q.Validate(); err != nil {
		return Query{}, err
	}
	return q, nil
}

// Validate checks the fields every search needs.
func (q Query) Validate() error {
	if q.Depart == "" {
		return fmt.Errorf("query missing departure airport")
	}
	if q.Arrive == "" {
		return fmt.Errorf("query missing arrival airport")
	}
	if q.DepartureDate == "" {
		return fmt.Errorf("query missing departure date")
	}
	switch q.TripType {
	case RoundTrip:
		if q.ReturnDate == "" {
			return fmt.Errorf("round trip query missing return date")
		}
	case OneWay:
	default:
		return fmt.Errorf("unknown trip type %q", q.TripType)
	}
	return nil
}

// BaseName is the file stem used for exports of this query, e.g. JFKtoSFO.
func (q Query) BaseName() string {
	return q.Depart + "to" + q.Arrive
}

// Fares holds the three fare tiers; absent tiers carry NotAvailable.
type Fares struct {
	BasicEconomy string `json:"basic_economy"`
	MainCabin    string `json:"main_cabin"`
	FirstClass   string `json:"first_class"`
}

// FlightRecord is one normalized flight offer.
type FlightRecord struct {
	ID            int      `json:"id"`
	FlightNumbers []string `json:"flight_numbers"`
	DepartureTime string   `json:"departure_time"`
	ArrivalTime   string   `json:"arrival_time"`
	Duration      string   `json:"duration"`
	Fares         Fares    `json:"fares"`
}

// IsConnecting reports whether the itinerary has more than one leg.
func (r FlightRecord) IsConnecting() bool {
	return len(r.FlightNumbers) > 1
}

// ExportBundle is the unit the exporter serializes. Records are ordered by ID.
type ExportBundle struct {
	Query   Query
	Records []FlightRecord
}

// Get returns the record with the given 1-based id.
func (b *ExportBundle) Get(id int) (FlightRecord, bool) {
	if b == nil || id < 1 || id > len(b.Records) {
		return FlightRecord{}, false
	}
	rec := b.Records[id-1]
	if rec.ID != id {
		for _, r := range b.Records {
			if r.ID == id {
				return r, true
			}
		}
		return FlightRecord{}, false
	}
	return rec, true
}

// ScrapeResult holds the overall result of one pipeline run.
type ScrapeResult struct {
	RunID        string
	Query        Query
	Records      []FlightRecord
	StartTime    time.Time
	EndTime      time.Time
	CardsSeen    int
	CardsSkipped int
	Duplicates   int
	FillFailures int
	ExportPath   string
	TextPath     string
	SnapshotPath string
	ExportErr    error
}

// Bundle packages the run's records for export.
func (r *ScrapeResult) Bundle() *ExportBundle {
	return &ExportBundle{Query: r.Query, Records: r.Records}
}
