package epidemic

import "time"

// EventType tags the simulation lifecycle events published to Kafka.
type EventType string

const (
	EventRunStarted    EventType = "run_started"
	EventTickCompleted EventType = "tick_completed"
	EventRunCompleted  EventType = "run_completed"
)

type RunStartedEvent struct {
	Type         EventType `json:"type"`
	RunID        string    `json:"run_id"`
	Beta         float64   `json:"beta"`
	PatientsZero int       `json:"patients_zero"`
	WeightMode   string    `json:"weight_mode"`
	Seed         int64     `json:"seed"`
	Timestamp    time.Time `json:"timestamp"`
}

type TickEvent struct {
	Type          EventType `json:"type"`
	RunID         string    `json:"run_id"`
	Day           string    `json:"day"`
	DayNumber     int       `json:"day_number"`
	NewInfected   int       `json:"new_infected"`
	TotalInfected int       `json:"total_infected"`
	Timestamp     time.Time `json:"timestamp"`
}

type RunCompletedEvent struct {
	Type          EventType `json:"type"`
	RunID         string    `json:"run_id"`
	TotalInfected int       `json:"total_infected"`
	AttackRate    float64   `json:"attack_rate"`
	Days          int       `json:"days"`
	Timestamp     time.Time `json:"timestamp"`
}
