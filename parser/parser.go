package parser

import (
	"fmt"
	"strings"
	"time"

	"github.com/aluiziolira/go-scrape-flights/models"
)

// SiteDateLayout is the date format the booking form expects.
const SiteDateLayout = "01/02/2006"

const isoDateLayout = "2006-01-02"

// GetPrice returns the trimmed text at index, or models.NotAvailable when the
// tier is missing.
func GetPrice(nodes []string, index int) string {
	if index < 0 || index >= len(nodes) {
		return models.NotAvailable
	}
	return strings.TrimSpace(nodes[index])
}

// NormalizeFares maps a variable number of fare nodes onto the three tiers.
// Three nodes fill every tier, two nodes mean basic economy is absent, and any
// other count keeps only the first node as main cabin.
func NormalizeFares(nodes []string) models.Fares {
	switch len(nodes) {
	case 3:
		return models.Fares{
			BasicEconomy: GetPrice(nodes, 0),
			MainCabin:    GetPrice(nodes, 1),
			FirstClass:   GetPrice(nodes, 2),
		}
	case 2:
		return models.Fares{
			BasicEconomy: models.NotAvailable,
			MainCabin:    GetPrice(nodes, 0),
			FirstClass:   GetPrice(nodes, 1),
		}
	default:
		return models.Fares{
			BasicEconomy: models.NotAvailable,
			MainCabin:    GetPrice(nodes, 0),
			FirstClass:   models.NotAvailable,
		}
	}
}

// ValidateRecord ensures the record names at least one flight. Empty text
// fields are kept as read from the page.
func ValidateRecord(r *models.FlightRecord) error {
	if r == nil {
		return fmt.Errorf("record is nil")
	}
	if len(r.FlightNumbers) == 0 {
		return fmt.Errorf("record %d missing flight number", r.ID)
	}
	return nil
}

// SiteDate converts an ISO date (2023-05-10) to the form's MM/DD/YYYY layout.
// Values already in the site layout pass through unchanged.
func SiteDate(s string) (string, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", nil
	}
	if _, err := time.Parse(SiteDateLayout, s); err == nil {
		return s, nil
	}
	t, err := time.Parse(isoDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("invalid date %q: want YYYY-MM-DD or MM/DD/YYYY", s)
	}
	return t.Format(SiteDateLayout), nil
}
