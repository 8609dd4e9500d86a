package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Status is the lifecycle state of a countdown timer.
type Status string

// Timer status constants. Values match the persisted JSON layout.
const (
	StatusPaused    Status = "Paused"
	StatusRunning   Status = "Running"
	StatusCompleted Status = "Completed"
)

// ErrInvalidStatus reports a status value outside the known set. Stored data
// carrying such a value is treated as corrupt rather than coerced.
var ErrInvalidStatus = errors.New("invalid timer status")

// ErrInvalidTimer is returned by Validate for timers that break a field rule.
var ErrInvalidTimer = errors.New("invalid timer")

// ParseStatus converts s to a Status, failing on unknown values.
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPaused, StatusRunning, StatusCompleted:
		return Status(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, s)
}

// UnmarshalJSON rejects unknown status strings.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, string(data))
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Timer is a named countdown.
type Timer struct {
	// ID is assigned at creation and never changes.
	ID string `json:"id"`

	// Name is the non-empty display label.
	Name string `json:"name"`

	// Category is a label grouping timers. It may refer to a category that
	// has since been deleted.
	Category string `json:"category"`

	// Duration is the total length in whole seconds.
	Duration int `json:"duration"`

	// Remaining is the number of seconds left, 0 <= Remaining <= Duration.
	Remaining int `json:"remaining"`

	Status Status `json:"status"`

	// HalfwayAlert requests a notification at the midpoint.
	HalfwayAlert bool `json:"halfwayAlert,omitempty"`
}

// Validate checks the field rules and the remaining/status invariant.
func (t Timer) Validate() error {
	if strings.TrimSpace(t.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidTimer)
	}
	if t.Duration <= 0 {
		return fmt.Errorf("%w: duration must be a positive number of seconds", ErrInvalidTimer)
	}
	if t.Remaining < 0 || t.Remaining > t.Duration {
		return fmt.Errorf("%w: remaining %d outside [0, %d]", ErrInvalidTimer, t.Remaining, t.Duration)
	}
	if _, err := ParseStatus(string(t.Status)); err != nil {
		return err
	}
	if (t.Remaining == 0) != (t.Status == StatusCompleted) {
		return fmt.Errorf("%w: remaining %d inconsistent with status %s", ErrInvalidTimer, t.Remaining, t.Status)
	}
	return nil
}

// Progress returns the elapsed fraction in [0, 1].
func (t Timer) Progress() float64 {
	if t.Duration <= 0 {
		return 0
	}
	p := float64(t.Duration-t.Remaining) / float64(t.Duration)
	if p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}

// HalfwayMark is the remaining-seconds value at which the in-app halfway
// notice fires.
func (t Timer) HalfwayMark() int {
	return t.Duration / 2
}

// HalfwayDelay is the delay for the scheduled halfway alert, measured from a
// start with the current remaining time. ok is false when no halfway alert
// applies.
func (t Timer) HalfwayDelay() (delay int, ok bool) {
	if !t.HalfwayAlert || t.Remaining <= 1 {
		return 0, false
	}
	return t.Remaining / 2, true
}

// ApplyEdit copies the user-editable fields of edit onto t and clamps the
// remaining time to the new duration. A completed timer keeps remaining at 0.
func (t Timer) ApplyEdit(edit Timer) Timer {
	t.Name = strings.TrimSpace(edit.Name)
	t.Category = edit.Category
	t.Duration = edit.Duration
	t.HalfwayAlert = edit.HalfwayAlert
	switch t.Status {
	case StatusCompleted:
		t.Remaining = 0
	case StatusPaused, StatusRunning:
		if t.Remaining > t.Duration {
			t.Remaining = t.Duration
		}
	}
	return t
}
