// Package consultation implements the consultation request workflow: intake,
// ownership rules, the status state machine with its append-only history, and
// the admin query surface.
package consultation

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a consultation request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

var validStatuses = map[Status]bool{
	StatusPending:   true,
	StatusConfirmed: true,
	StatusCompleted: true,
	StatusCancelled: true,
}

// ValidStatus reports whether s is a known status value.
func ValidStatus(s Status) bool { return validStatuses[s] }

// statusTransitions defines the valid status transitions. Cancelled is
// terminal; a completed consultation may still be cancelled after the fact.
var statusTransitions = map[Status][]Status{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
	StatusCompleted: {StatusCancelled},
	StatusCancelled: {},
}

// CanTransition reports whether a consultation may move from one status to
// another. Unknown statuses allow no transitions.
func CanTransition(from, to Status) bool {
	for _, s := range statusTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// ServiceCategory is the kind of work a consultation asks about.
type ServiceCategory string

const (
	ServiceRenovation       ServiceCategory = "renovation"
	ServiceNewConstruction  ServiceCategory = "new-construction"
	ServiceInteriorDesign   ServiceCategory = "interior-design"
	ServiceConsultationOnly ServiceCategory = "consultation-only"
	ServiceMaintenance      ServiceCategory = "maintenance"
	ServiceOther            ServiceCategory = "other"
)

var validServices = map[ServiceCategory]bool{
	ServiceRenovation:       true,
	ServiceNewConstruction:  true,
	ServiceInteriorDesign:   true,
	ServiceConsultationOnly: true,
	ServiceMaintenance:      true,
	ServiceOther:            true,
}

// ValidService reports whether s is a known service category.
func ValidService(s ServiceCategory) bool { return validServices[s] }

const (
	minDescriptionLen = 50
	maxDescriptionLen = 1000
)

// Consultation is a customer's request for a project consultation. UserID is
// set at creation and never changes.
type Consultation struct {
	ID            uuid.UUID       `json:"id"`
	UserID        uuid.UUID       `json:"user_id"`
	Service       ServiceCategory `json:"service"`
	ProjectType   string          `json:"project_type"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	PreferredDate *time.Time      `json:"preferred_date,omitempty"`
	IsUrgent      bool            `json:"is_urgent"`
	Status        Status          `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Validate checks the user-supplied fields of a consultation.
func (c *Consultation) Validate() error {
	if !ValidService(c.Service) {
		return fmt.Errorf("%w: unknown service %q", ErrValidation, c.Service)
	}
	if strings.TrimSpace(c.ProjectType) == "" {
		return fmt.Errorf("%w: project_type is required", ErrValidation)
	}
	if strings.TrimSpace(c.Location) == "" {
		return fmt.Errorf("%w: location is required", ErrValidation)
	}
	n := utf8.RuneCountInString(c.Description)
	if n < minDescriptionLen || n > maxDescriptionLen {
		return fmt.Errorf("%w: description must be between %d and %d characters, got %d",
			ErrValidation, minDescriptionLen, maxDescriptionLen, n)
	}
	return nil
}

// StatusChange is one entry in a consultation's append-only status history.
type StatusChange struct {
	ID             uuid.UUID `json:"id"`
	ConsultationID uuid.UUID `json:"consultation_id"`
	Status         Status    `json:"status"`
	ChangedBy      uuid.UUID `json:"changed_by"`
	Reason         *string   `json:"reason,omitempty"`
	ChangedAt      time.Time `json:"changed_at"`
}

// Stats is the admin dashboard summary of the consultation queue.
type Stats struct {
	Total         int             `json:"total"`
	ByStatus      map[Status]int  `json:"by_status"`
	UrgentPending int             `json:"urgent_pending"`
	Newest        []*Consultation `json:"newest"`
}

// Filter selects consultations for the admin list view. Status and Service
// are exact matches unless empty or "all"; Search is a case-insensitive
// substring match over project type, description, service and location. All
// present criteria must hold.
type Filter struct {
	Status  string
	Service string
	Search  string
}
