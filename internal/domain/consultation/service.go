package consultation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/renovo-dev/renovo/internal/platform/auth"
)

// Notifier dispatches templated email in the background. Delivery failures
// must never surface to the caller.
type Notifier interface {
	SendAsync(templateID string, data map[string]string, recipient string)
}

// ContactResolver looks up the name and email address for a user ID.
type ContactResolver interface {
	Contact(ctx context.Context, userID uuid.UUID) (name, email string, err error)
}

// Actor identifies who is performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role string
}

func (a Actor) IsAdmin() bool { return a.Role == auth.RoleAdmin }

type Service struct {
	repo     Repository
	notifier Notifier
	contacts ContactResolver
	logger   zerolog.Logger
}

func NewService(repo Repository, notifier Notifier, contacts ContactResolver, logger zerolog.Logger) *Service {
	return &Service{repo: repo, notifier: notifier, contacts: contacts, logger: logger}
}

// CreateInput carries the user-editable consultation fields.
type CreateInput struct {
	Service       ServiceCategory `json:"service"`
	ProjectType   string          `json:"project_type"`
	Description   string          `json:"description"`
	Location      string          `json:"location"`
	PreferredDate *time.Time      `json:"preferred_date"`
	IsUrgent      bool            `json:"is_urgent"`
}

// Create registers a new consultation for the actor. New consultations
// always start pending.
func (s *Service) Create(ctx context.Context, actor Actor, in CreateInput) (*Consultation, error) {
	c := &Consultation{
		UserID:        actor.ID,
		Service:       in.Service,
		ProjectType:   in.ProjectType,
		Description:   in.Description,
		Location:      in.Location,
		PreferredDate: in.PreferredDate,
		IsUrgent:      in.IsUrgent,
		Status:        StatusPending,
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating consultation: %w", err)
	}

	s.notify(ctx, c, "consultation-received", map[string]string{
		"service": string(c.Service),
	})
	return c, nil
}

// Get returns a consultation to its owner or to an admin.
func (s *Service) Get(ctx context.Context, actor Actor, id uuid.UUID) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != actor.ID && !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return c, nil
}

// Update edits the user-supplied fields. Admins may edit at any time; the
// owner only while the consultation is still pending. UserID and Status are
// never touched here.
func (s *Service) Update(ctx context.Context, actor Actor, id uuid.UUID, in CreateInput) (*Consultation, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeEdit(actor, c); err != nil {
		return nil, err
	}

	c.Service = in.Service
	c.ProjectType = in.ProjectType
	c.Description = in.Description
	c.Location = in.Location
	c.PreferredDate = in.PreferredDate
	c.IsUrgent = in.IsUrgent
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("updating consultation: %w", err)
	}
	return c, nil
}

// Delete removes a consultation under the same rules as Update.
func (s *Service) Delete(ctx context.Context, actor Actor, id uuid.UUID) error {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authorizeEdit(actor, c); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting consultation: %w", err)
	}
	return nil
}

func (s *Service) authorizeEdit(actor Actor, c *Consultation) error {
	if actor.IsAdmin() {
		return nil
	}
	if c.UserID != actor.ID {
		return ErrForbidden
	}
	if c.Status != StatusPending {
		return fmt.Errorf("%w: consultation is %s", ErrForbidden, c.Status)
	}
	return nil
}

// ListOwn returns the actor's consultations, newest first.
func (s *Service) ListOwn(ctx context.Context, actor Actor, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByUser(ctx, actor.ID, limit, offset)
}

// UpdateStatus moves a consultation through the state machine. Admin only.
// It returns the old and new status. The update and its history entry commit
// atomically; when two admins race, exactly one transition wins and the
// loser gets an invalid-transition error against the fresh status.
func (s *Service) UpdateStatus(ctx context.Context, actor Actor, id uuid.UUID, to Status, reason *string) (Status, Status, error) {
	if !actor.IsAdmin() {
		return "", "", ErrForbidden
	}
	if !ValidStatus(to) {
		return "", "", fmt.Errorf("%w: unknown status %q", ErrValidation, to)
	}

	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return "", "", err
	}
	from := c.Status
	if !CanTransition(from, to) {
		return "", "", &InvalidTransitionError{From: from, To: to}
	}

	change := &StatusChange{ChangedBy: actor.ID, Reason: reason}
	swapped, err := s.repo.UpdateStatusCAS(ctx, id, from, to, change)
	if err != nil {
		return "", "", fmt.Errorf("updating status: %w", err)
	}
	if !swapped {
		// Lost a race. Report the transition against whatever won.
		current, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return "", "", err
		}
		return "", "", &InvalidTransitionError{From: current.Status, To: to}
	}

	data := map[string]string{
		"service":     string(c.Service),
		"old_status":  string(from),
		"new_status":  string(to),
		"reason_line": "",
	}
	if reason != nil && *reason != "" {
		data["reason_line"] = " Reason: " + *reason
	}
	s.notify(ctx, c, "consultation-status-changed", data)

	return from, to, nil
}

// notify resolves the owner's contact details and queues a templated email.
// Any failure here is logged and dropped.
func (s *Service) notify(ctx context.Context, c *Consultation, templateID string, data map[string]string) {
	if s.notifier == nil || s.contacts == nil {
		return
	}
	name, email, err := s.contacts.Contact(ctx, c.UserID)
	if err != nil {
		s.logger.Warn().Err(err).
			Str("consultation_id", c.ID.String()).
			Str("template", templateID).
			Msg("contact lookup failed, skipping notification")
		return
	}
	data["name"] = name
	s.notifier.SendAsync(templateID, data, email)
}

// ListPending returns pending consultations, newest first.
func (s *Service) ListPending(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListPending(ctx, limit, offset)
}

// ListUrgent returns urgent consultations still awaiting confirmation.
func (s *Service) ListUrgent(ctx context.Context, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListUrgent(ctx, limit, offset)
}

// ListByFilter returns consultations matching all present filter criteria.
func (s *Service) ListByFilter(ctx context.Context, f Filter, limit, offset int) ([]*Consultation, int, error) {
	return s.repo.ListByFilter(ctx, f, limit, offset)
}

// GetStats returns the dashboard summary.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	return s.repo.Stats(ctx)
}

// GetHistory returns the status history, oldest first.
func (s *Service) GetHistory(ctx context.Context, id uuid.UUID) ([]*StatusChange, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.GetHistory(ctx, id)
}
