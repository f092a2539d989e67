package domain

// ResultStatus is the per-item outcome of a batch run.
type ResultStatus string

const (
	ResultCreated ResultStatus = "created"
	ResultSkipped ResultStatus = "skipped"
	ResultFailed  ResultStatus = "failed"
)

// ItemResult reports what a batch run did for one obligation.
type ItemResult struct {
	ObligationID string       `json:"obligationID"`
	EntityID     string       `json:"entityID"`
	Status       ResultStatus `json:"status"`
	EntryIDs     []string     `json:"entryIDs,omitempty"`
	ErrorKind    string       `json:"errorKind,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// BatchResult aggregates a batch run. Failures of one item never abort the others.
type BatchResult struct {
	Total   int          `json:"total"`
	Created int          `json:"created"`
	Skipped int          `json:"skipped"`
	Errors  int          `json:"errors"`
	Results []ItemResult `json:"results"`
}

// Add records one item result and updates the counters.
func (b *BatchResult) Add(r ItemResult) {
	b.Total++
	switch r.Status {
	case ResultCreated:
		b.Created++
	case ResultSkipped:
		b.Skipped++
	case ResultFailed:
		b.Errors++
	}
	b.Results = append(b.Results, r)
}
