package timerform

import (
	"errors"
	"testing"

	"github.com/nhle/countdown/internal/model"
)

func TestValidateDuration(t *testing.T) {
	for _, tc := range []struct {
		in string
		ok bool
	}{
		{"300", true},
		{" 45 ", true},
		{"", false},
		{"0", false},
		{"-5", false},
		{"abc", false},
		{"1.5", false},
	} {
		err := validateDuration(tc.in)
		if (err == nil) != tc.ok {
			t.Errorf("validateDuration(%q) = %v, want ok=%v", tc.in, err, tc.ok)
		}
	}
}

func TestValidateRequired(t *testing.T) {
	v := validateRequired("Name")
	if err := v("  "); err == nil {
		t.Error("blank name accepted")
	}
	if err := v("Run"); err != nil {
		t.Errorf("valid name rejected: %v", err)
	}
}

func TestStartCreateDefaultsCategory(t *testing.T) {
	m := New(80, 24)
	m.SetCategories([]string{"Workout", "Study"})

	m.StartCreate("Study")
	if m.fb.category != "Study" {
		t.Errorf("category = %q, want Study", m.fb.category)
	}
	if m.Editing() {
		t.Error("create form reports Editing")
	}

	m.StartCreate("Gone")
	if m.fb.category != "Workout" {
		t.Errorf("unknown category should fall back to first, got %q", m.fb.category)
	}
}

func TestStartEditKeepsOrphanedCategory(t *testing.T) {
	m := New(80, 24)
	m.SetCategories([]string{"Workout"})
	m.StartEdit(model.Timer{ID: "x", Name: "Old", Category: "Gone", Duration: 90, Remaining: 10, Status: model.StatusPaused, HalfwayAlert: true})

	if !m.Editing() {
		t.Fatal("edit form should report Editing")
	}
	opts := m.categoryOptions()
	if len(opts) != 2 || opts[1].Value != "Gone" {
		t.Errorf("category options = %v, want orphan label appended", opts)
	}

	got, err := m.Result()
	if err != nil {
		t.Fatalf("Result() error: %v", err)
	}
	if got.Name != "Old" || got.Category != "Gone" || got.Duration != 90 || !got.HalfwayAlert {
		t.Errorf("Result() = %+v", got)
	}
}

func TestResultRejectsInvalidInput(t *testing.T) {
	m := New(80, 24)
	m.SetCategories([]string{"Workout"})
	m.StartCreate("")

	m.fb.name = "Run"
	m.fb.duration = "ten"
	if _, err := m.Result(); !errors.Is(err, model.ErrInvalidTimer) {
		t.Errorf("non-numeric duration: err = %v, want ErrInvalidTimer", err)
	}

	m.fb.name = " "
	m.fb.duration = "10"
	if _, err := m.Result(); !errors.Is(err, model.ErrInvalidTimer) {
		t.Errorf("blank name: err = %v, want ErrInvalidTimer", err)
	}
}
