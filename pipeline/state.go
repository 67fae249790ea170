package pipeline

// State is a step of one scrape run.
type State int

const (
	Init State = iota
	Navigated
	FieldsFilled
	Submitted
	ResultsLoaded
	Extracted
	Exported
	Closed
	Failed
)

var stateNames = [...]string{
	Init:          "init",
	Navigated:     "navigated",
	FieldsFilled:  "fields_filled",
	Submitted:     "submitted",
	ResultsLoaded: "results_loaded",
	Extracted:     "extracted",
	Exported:      "exported",
	Closed:        "closed",
	Failed:        "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}
