package consultation

import (
	"errors"
	"strings"
	"testing"
)

func TestCanTransition(t *testing.T) {
	all := []Status{StatusPending, StatusConfirmed, StatusCompleted, StatusCancelled}
	allowed := map[Status]map[Status]bool{
		StatusPending:   {StatusConfirmed: true, StatusCancelled: true},
		StatusConfirmed: {StatusCompleted: true, StatusCancelled: true},
		StatusCompleted: {StatusCancelled: true},
		StatusCancelled: {},
	}

	for _, from := range all {
		for _, to := range all {
			want := allowed[from][to]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestCanTransition_UnknownStatus(t *testing.T) {
	if CanTransition("archived", StatusPending) {
		t.Error("unknown from-status must allow no transitions")
	}
	if CanTransition(StatusPending, "archived") {
		t.Error("unknown to-status must not be reachable")
	}
}

func validConsultation() *Consultation {
	return &Consultation{
		Service:     ServiceRenovation,
		ProjectType: "kitchen remodel",
		Description: strings.Repeat("We want to renovate. ", 5),
		Location:    "Riyadh",
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Consultation)
		wantErr bool
	}{
		{"valid", func(c *Consultation) {}, false},
		{"unknown service", func(c *Consultation) { c.Service = "landscaping" }, true},
		{"missing project type", func(c *Consultation) { c.ProjectType = " " }, true},
		{"missing location", func(c *Consultation) { c.Location = "" }, true},
		{"description too short", func(c *Consultation) { c.Description = "too short" }, true},
		{"description too long", func(c *Consultation) { c.Description = strings.Repeat("x", 1001) }, true},
		{"description at min", func(c *Consultation) { c.Description = strings.Repeat("y", 50) }, false},
		{"description at max", func(c *Consultation) { c.Description = strings.Repeat("y", 1000) }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validConsultation()
			tt.mutate(c)
			err := c.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestInvalidTransitionError(t *testing.T) {
	err := &InvalidTransitionError{From: StatusPending, To: StatusCompleted}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Error("InvalidTransitionError must match ErrInvalidTransition")
	}
	if !strings.Contains(err.Error(), "pending") || !strings.Contains(err.Error(), "completed") {
		t.Errorf("Error() = %q, must carry both statuses", err.Error())
	}
}
