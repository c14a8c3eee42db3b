package report

import (
	"errors"
	"fmt"

	"github.com/vdot-gis/error-reports-dashboard/internal/fetcher"
)

// StatusField is the attribute that classifies a record's resolution state.
const StatusField = "Status"

// Status labels recognised by the tally. Matching is exact and case-sensitive.
// Each label feeds the counter of the same meaning: "Fix Complete" counts as
// fixed and "Unable to Fix" as cannot-fix. Dashboards produced by the old
// script had those two counters swapped.
const (
	StatusNew        = "New Error"
	StatusInProgress = "Fix in Progress"
	StatusFixed      = "Fix Complete"
	StatusCannotFix  = "Unable to Fix"
)

// ErrMissingField is returned when a record lacks an attribute the report needs.
var ErrMissingField = errors.New("missing field")

// Tally holds the per-status record counts of one error report.
// Records with any other status are not counted anywhere.
type Tally struct {
	New        int
	InProgress int
	Fixed      int
	CannotFix  int
}

// Total is the number of records with a recognised status.
func (t Tally) Total() int {
	return t.New + t.InProgress + t.Fixed + t.CannotFix
}

// CountStatuses scans records once and counts them by the value of field.
func CountStatuses(records []fetcher.Record, field string) (Tally, error) {
	var t Tally
	for i, rec := range records {
		status, ok := rec.Value(field)
		if !ok {
			return Tally{}, fmt.Errorf("record %d: %w %q", i, ErrMissingField, field)
		}
		switch status {
		case StatusNew:
			t.New++
		case StatusInProgress:
			t.InProgress++
		case StatusFixed:
			t.Fixed++
		case StatusCannotFix:
			t.CannotFix++
		}
	}
	return t, nil
}
