package course

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Course
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Course)}
}

func (m *mockRepo) Create(_ context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c.ID = uuid.New()
	now := time.Now().UTC()
	c.CreatedAt = now
	c.UpdatedAt = now
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Course, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *mockRepo) Update(_ context.Context, c *Course) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[c.ID]; !ok {
		return ErrNotFound
	}
	cp := *c
	m.items[c.ID] = &cp
	return nil
}

func (m *mockRepo) Delete(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrNotFound
	}
	delete(m.items, id)
	return nil
}

func (m *mockRepo) List(_ context.Context, publishedOnly bool, limit, offset int) ([]*Course, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Course
	for _, c := range m.items {
		if publishedOnly && !c.Published {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func validInput() Input {
	return Input{
		Title:         "Project Management Basics",
		Description:   "Planning and scheduling for construction projects.",
		Category:      "management",
		DurationHours: 16,
		Price:         499,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := NewService(newMockRepo())
	c, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	got, err := svc.Get(context.Background(), c.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != c.Title || got.DurationHours != 16 {
		t.Errorf("got = %+v", got)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	tests := []struct {
		name   string
		mutate func(*Input)
	}{
		{"empty title", func(in *Input) { in.Title = "" }},
		{"zero duration", func(in *Input) { in.DurationHours = 0 }},
		{"negative price", func(in *Input) { in.Price = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := svc.Create(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestUpdate(t *testing.T) {
	svc := NewService(newMockRepo())
	c, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	in := validInput()
	in.Price = 299
	in.Published = true
	got, err := svc.Update(context.Background(), c.ID, in)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Price != 299 || !got.Published {
		t.Errorf("got = %+v", got)
	}

	if _, err := svc.Update(context.Background(), uuid.New(), in); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing update = %v, want ErrNotFound", err)
	}
}

func TestList_PublishedOnly(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatal(err)
	}
	in := validInput()
	in.Published = true
	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatal(err)
	}

	_, total, err := svc.List(context.Background(), true, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 {
		t.Errorf("public total = %d, want 1", total)
	}

	_, total, err = svc.List(context.Background(), false, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("admin total = %d, want 2", total)
	}
}
