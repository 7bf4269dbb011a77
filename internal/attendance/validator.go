package attendance

import (
	"fmt"
	"strings"
)

const maxIDLength = 255

// ValidationError holds per-field validation failure messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	var parts []string
	for field, msg := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s:%s", field, msg))
	}
	return strings.Join(parts, "; ")
}

// ValidateRecord checks an ingested attendance record before it reaches the
// store: ids must be non-empty and bounded, the day label present, and the
// class duration strictly positive (non-positive durations would later break
// duration and inverse edge weighting).
func ValidateRecord(rec *Record) error {
	errs := make(map[string]string)

	if strings.TrimSpace(rec.StudentID) == "" {
		errs["student_id"] = "student id is required"
	} else if len(rec.StudentID) > maxIDLength {
		errs["student_id"] = fmt.Sprintf("student id must be at most %d characters", maxIDLength)
	}
	if strings.TrimSpace(rec.ClassID) == "" {
		errs["class_id"] = "class id is required"
	} else if len(rec.ClassID) > maxIDLength {
		errs["class_id"] = fmt.Sprintf("class id must be at most %d characters", maxIDLength)
	}
	if strings.TrimSpace(rec.Day) == "" {
		errs["day"] = "day is required"
	}
	if rec.DurationHours <= 0 {
		errs["duration_hours"] = "duration must be greater than zero"
	}
	if len(errs) > 0 {
		return &ValidationError{Fields: errs}
	}
	return nil
}
