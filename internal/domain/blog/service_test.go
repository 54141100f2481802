package blog

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*Post
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*Post)}
}

func (m *mockRepo) Create(_ context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.Slug == p.Slug {
			return ErrSlugTaken
		}
	}
	p.ID = uuid.New()
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	m.items[p.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockRepo) GetBySlug(_ context.Context, slug string) (*Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.items {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, p *Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return ErrNotFound
	}
	cp := *p
	cp.UpdatedAt = time.Now().UTC()
	m.items[p.ID] = &cp
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

func (m *mockRepo) List(_ context.Context, publishedOnly bool, limit, offset int) ([]*Post, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Post
	for _, p := range m.items {
		if publishedOnly && !p.Published {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, len(out), nil
}

var author = uuid.New()

func TestSlugify(t *testing.T) {
	tests := []struct {
		title string
		want  string
	}{
		{"Hello World", "hello-world"},
		{"  Kitchen Remodel: Phase 2!  ", "kitchen-remodel-phase-2"},
		{"Already-Slugged", "already-slugged"},
		{"Multiple   spaces & symbols!!!", "multiple-spaces-symbols"},
	}
	for _, tt := range tests {
		if got := Slugify(tt.title); got != tt.want {
			t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
		}
	}
}

func TestCreate_DerivesSlugAndExcerpt(t *testing.T) {
	svc := NewService(newMockRepo())

	body := strings.Repeat("a", 500)
	p, err := svc.Create(context.Background(), author, Input{Title: "Our New Office", Body: body})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Slug != "our-new-office" {
		t.Errorf("slug = %q", p.Slug)
	}
	if len(p.Excerpt) != 200 {
		t.Errorf("excerpt len = %d, want 200", len(p.Excerpt))
	}
}

func TestCreate_ShortBodyExcerpt(t *testing.T) {
	svc := NewService(newMockRepo())
	p, err := svc.Create(context.Background(), author, Input{Title: "Short", Body: "brief note"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Excerpt != "brief note" {
		t.Errorf("excerpt = %q, want full body", p.Excerpt)
	}
}

func TestUpdate_Recomputes(t *testing.T) {
	svc := NewService(newMockRepo())
	p, err := svc.Create(context.Background(), author, Input{Title: "Before", Body: "original body"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	updated, err := svc.Update(context.Background(), p.ID, Input{Title: "After The Change", Body: "new body"})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Slug != "after-the-change" {
		t.Errorf("slug = %q, want recomputed", updated.Slug)
	}
	if updated.Excerpt != "new body" {
		t.Errorf("excerpt = %q, want recomputed", updated.Excerpt)
	}
}

func TestGetPublishedBySlug_HidesDrafts(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Create(context.Background(), author, Input{Title: "Draft Post", Body: "body"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.GetPublishedBySlug(context.Background(), "draft-post"); !errors.Is(err, ErrNotFound) {
		t.Errorf("draft via public slug = %v, want ErrNotFound", err)
	}

	if _, err := svc.Create(context.Background(), author, Input{Title: "Live Post", Body: "body", Published: true}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.GetPublishedBySlug(context.Background(), "live-post"); err != nil {
		t.Errorf("published via public slug: %v", err)
	}
}

func TestList_PublishedOnly(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Create(context.Background(), author, Input{Title: "Draft", Body: "b"}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.Create(context.Background(), author, Input{Title: "Live", Body: "b", Published: true}); err != nil {
		t.Fatal(err)
	}

	items, total, err := svc.List(context.Background(), true, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 1 || len(items) != 1 || !items[0].Published {
		t.Errorf("public list = %d items (total %d)", len(items), total)
	}

	_, total, err = svc.List(context.Background(), false, 20, 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if total != 2 {
		t.Errorf("admin list total = %d, want 2", total)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	if _, err := svc.Create(context.Background(), author, Input{Title: " ", Body: "b"}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty title = %v, want ErrValidation", err)
	}
	if _, err := svc.Create(context.Background(), author, Input{Title: "T", Body: ""}); !errors.Is(err, ErrValidation) {
		t.Errorf("empty body = %v, want ErrValidation", err)
	}
}
