package attendance

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRecord() Record {
	return Record{
		StudentID:     "s1",
		ClassID:       "math",
		Day:           "Monday",
		Present:       true,
		DurationHours: 1.5,
	}
}

func TestValidateRecordAccepts(t *testing.T) {
	rec := validRecord()
	assert.NoError(t, ValidateRecord(&rec))

	rec.Present = false
	assert.NoError(t, ValidateRecord(&rec))
}

func TestValidateRecordRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Record)
		field  string
	}{
		{"empty student", func(r *Record) { r.StudentID = "" }, "student_id"},
		{"blank student", func(r *Record) { r.StudentID = "   " }, "student_id"},
		{"long student", func(r *Record) { r.StudentID = strings.Repeat("x", 256) }, "student_id"},
		{"empty class", func(r *Record) { r.ClassID = "" }, "class_id"},
		{"long class", func(r *Record) { r.ClassID = strings.Repeat("x", 256) }, "class_id"},
		{"empty day", func(r *Record) { r.Day = "" }, "day"},
		{"zero duration", func(r *Record) { r.DurationHours = 0 }, "duration_hours"},
		{"negative duration", func(r *Record) { r.DurationHours = -1 }, "duration_hours"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := validRecord()
			tc.mutate(&rec)
			err := ValidateRecord(&rec)
			require.Error(t, err)
			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tc.field)
		})
	}
}
