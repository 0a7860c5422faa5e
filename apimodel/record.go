package apimodel

import "time"

// Record is a generic clinical resource (patient, evaluation, appointment,
// message or forum post). Field contents are owned by the UI layer and are
// stored as given.
type Record struct {
	ID        string         `json:"id"`
	Kind      string         `json:"kind"`
	Fields    map[string]any `json:"fields"`
	CreatedBy string         `json:"createdBy,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

// RecordInput is the body of record create and update calls.
type RecordInput struct {
	Fields map[string]any `json:"fields"`
}
