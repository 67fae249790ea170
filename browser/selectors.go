package browser

import "strconv"

// Element ids on the booking site's search form.
const (
	SearchButtonID     = "flightSearchForm.button.reSubmit"
	OriginFieldID      = "reservationFlightSearchForm.originAirport"
	DestinationFieldID = "reservationFlightSearchForm.destinationAirport"
	DepartDateFieldID  = "aa-leavingOn"
	ReturnDateFieldID  = "aa-returningFrom"
)

// IDSelector builds a CSS selector matching an element id verbatim. The site's
// ids contain dots, which would otherwise be read as class separators.
func IDSelector(id string) string {
	return "[id=" + strconv.Quote(id) + "]"
}
