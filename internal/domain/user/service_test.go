package user

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type mockRepo struct {
	mu    sync.Mutex
	items map[uuid.UUID]*User
}

func newMockRepo() *mockRepo {
	return &mockRepo{items: make(map[uuid.UUID]*User)}
}

func (m *mockRepo) Create(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.items {
		if e.Email == u.Email {
			return ErrEmailTaken
		}
	}
	u.ID = uuid.New()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now
	cp := *u
	m.items[u.ID] = &cp
	return nil
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *mockRepo) GetByEmail(_ context.Context, email string) (*User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.items {
		if u.Email == strings.ToLower(email) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) Update(_ context.Context, u *User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.items[u.ID]
	if !ok {
		return ErrNotFound
	}
	cur.Name = u.Name
	cur.Phone = u.Phone
	cur.UpdatedAt = time.Now().UTC()
	return nil
}

func (m *mockRepo) List(_ context.Context, limit, offset int) ([]*User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*User
	for _, u := range m.items {
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (m *mockRepo) SetBlocked(_ context.Context, id uuid.UUID, blocked bool, until *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}
	u.IsBlocked = blocked
	u.BlockedUntil = until
	return nil
}

type mockNotifier struct {
	mu    sync.Mutex
	calls []string
}

func (n *mockNotifier) SendAsync(templateID string, _ map[string]string, _ string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, templateID)
}

var testSecret = []byte("0123456789abcdef0123456789abcdef")

func newTestService() (*Service, *mockRepo, *mockNotifier) {
	repo := newMockRepo()
	n := &mockNotifier{}
	return NewService(repo, n, testSecret, time.Hour, zerolog.Nop()), repo, n
}

func registerInput() RegisterInput {
	return RegisterInput{
		Name:     "Dana",
		Email:    "dana@example.com",
		Password: "s3cret-pass",
		Phone:    "+966500000000",
	}
}

func TestRegister(t *testing.T) {
	svc, _, notifier := newTestService()

	u, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if u.Role != "user" {
		t.Errorf("role = %q, want user", u.Role)
	}
	if u.PasswordHash == "" || u.PasswordHash == "s3cret-pass" {
		t.Error("password must be stored hashed")
	}
	if len(notifier.calls) != 1 || notifier.calls[0] != "welcome" {
		t.Errorf("notifications = %v, want [welcome]", notifier.calls)
	}
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := svc.Register(context.Background(), registerInput()); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	svc, _, _ := newTestService()
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
	}{
		{"empty name", func(in *RegisterInput) { in.Name = " " }},
		{"bad email", func(in *RegisterInput) { in.Email = "not-an-email" }},
		{"short password", func(in *RegisterInput) { in.Password = "short" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := registerInput()
			tt.mutate(&in)
			if _, err := svc.Register(context.Background(), in); !errors.Is(err, ErrValidation) {
				t.Errorf("err = %v, want ErrValidation", err)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	svc, _, _ := newTestService()
	if _, err := svc.Register(context.Background(), registerInput()); err != nil {
		t.Fatalf("register: %v", err)
	}

	token, u, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if token == "" || u.Email != "dana@example.com" {
		t.Errorf("token = %q, user = %+v", token, u)
	}

	if _, _, err := svc.Login(context.Background(), "dana@example.com", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email = %v, want ErrInvalidCredentials", err)
	}
}

func TestLogin_Blocked(t *testing.T) {
	svc, _, _ := newTestService()
	u, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.Block(context.Background(), u.ID, nil); err != nil {
		t.Fatalf("Block: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass"); !errors.Is(err, ErrBlocked) {
		t.Errorf("blocked login = %v, want ErrBlocked", err)
	}

	if err := svc.Unblock(context.Background(), u.ID); err != nil {
		t.Fatalf("Unblock: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass"); err != nil {
		t.Errorf("login after unblock: %v", err)
	}
}

func TestLogin_ExpiredBlock(t *testing.T) {
	svc, repo, _ := newTestService()
	u, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	// Expired blocks are applied directly at the repo; Block() refuses past
	// expiries by design.
	past := time.Now().Add(-time.Hour)
	if err := repo.SetBlocked(context.Background(), u.ID, true, &past); err != nil {
		t.Fatalf("SetBlocked: %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "dana@example.com", "s3cret-pass"); err != nil {
		t.Errorf("login with expired block = %v, want success", err)
	}
}

func TestBlock_RejectsPastExpiry(t *testing.T) {
	svc, _, _ := newTestService()
	u, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	past := time.Now().Add(-time.Minute)
	if err := svc.Block(context.Background(), u.ID, &past); !errors.Is(err, ErrValidation) {
		t.Errorf("err = %v, want ErrValidation", err)
	}
}

func TestBlockedNow(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Hour)
	past := now.Add(-time.Hour)

	tests := []struct {
		name string
		u    User
		want bool
	}{
		{"not blocked", User{}, false},
		{"blocked forever", User{IsBlocked: true}, true},
		{"blocked with future expiry", User{IsBlocked: true, BlockedUntil: &future}, true},
		{"blocked with past expiry", User{IsBlocked: true, BlockedUntil: &past}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.BlockedNow(now); got != tt.want {
				t.Errorf("BlockedNow = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestContact(t *testing.T) {
	svc, _, _ := newTestService()
	u, err := svc.Register(context.Background(), registerInput())
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	name, email, err := svc.Contact(context.Background(), u.ID)
	if err != nil {
		t.Fatalf("Contact: %v", err)
	}
	if name != "Dana" || email != "dana@example.com" {
		t.Errorf("contact = (%q, %q)", name, email)
	}

	if _, _, err := svc.Contact(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing contact = %v, want ErrNotFound", err)
	}
}
