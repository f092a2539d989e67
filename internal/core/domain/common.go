package domain

import "time"

// AuditFields records who wrote a ledger record and when. Writers are free-form actor ids
// (an operator name, a job name).
type AuditFields struct {
	CreatedAt     time.Time `json:"createdAt"`
	CreatedBy     string    `json:"createdBy,omitempty"`
	LastUpdatedAt time.Time `json:"lastUpdatedAt"`
	LastUpdatedBy string    `json:"lastUpdatedBy,omitempty"`
}
