// Package attendance defines the normalized attendance relation consumed by
// the contact-network core: per-day presence facts plus class metadata, and
// the Store interface that supplies them.
package attendance

// Fact is one normalized attendance observation: a student either attended
// or missed a class session on a given day.
type Fact struct {
	StudentID string `json:"student_id"`
	ClassID   string `json:"class_id"`
	Day       string `json:"day"`
	Present   bool   `json:"present"`
}

// Class is the per-class metadata needed for duration-based edge weighting.
type Class struct {
	ID            string  `json:"id"`
	DurationHours float64 `json:"duration_hours"`
}

// Record is the wire form of an ingested attendance observation. It carries
// the class duration inline so a single Kafka message is self-contained.
type Record struct {
	StudentID     string  `json:"student_id"`
	ClassID       string  `json:"class_id"`
	Day           string  `json:"day"`
	Present       bool    `json:"present"`
	DurationHours float64 `json:"duration_hours"`
}
