package service

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Accounts
// ---------------------------------------------------------------------------

type stubAccountRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Account
	findErr error
	creates int
}

func newStubAccountRepo() *stubAccountRepo {
	return &stubAccountRepo{byID: make(map[string]*domain.Account)}
}

func (r *stubAccountRepo) Create(_ context.Context, a *domain.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[a.ID]; ok {
		return domain.ErrAccountExists
	}
	if a.Handle != "" {
		for _, existing := range r.byID {
			if existing.Handle == a.Handle {
				return domain.ErrAccountExists
			}
		}
	}
	clone := *a
	r.byID[a.ID] = &clone
	r.creates++
	return nil
}

func (r *stubAccountRepo) FindByID(_ context.Context, id string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.findErr != nil {
		return nil, r.findErr
	}
	a, ok := r.byID[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	clone := *a
	return &clone, nil
}

func (r *stubAccountRepo) FindByHandle(_ context.Context, handle string) (*domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.byID {
		if a.Handle == handle {
			clone := *a
			return &clone, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (r *stubAccountRepo) Touch(_ context.Context, id, displayName string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	a, ok := r.byID[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.DisplayName = displayName
	a.LastSignInAt = at
	return nil
}

// ---------------------------------------------------------------------------
// Sessions
// ---------------------------------------------------------------------------

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[string]domain.Session
	saveErr  error
}

func newStubSessionStore() *stubSessionStore {
	return &stubSessionStore{sessions: make(map[string]domain.Session)}
}

func (s *stubSessionStore) Save(_ context.Context, session *domain.Session, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.sessions[session.ID] = *session
	return nil
}

func (s *stubSessionStore) Find(_ context.Context, id string) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return &session, nil
}

func (s *stubSessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// ---------------------------------------------------------------------------
// Profiles
// ---------------------------------------------------------------------------

// stubProfileRepo mirrors the Mongo repository: one document per owner key,
// id assigned on insert, created_at kept on update.
type stubProfileRepo struct {
	mu      sync.Mutex
	byKey   map[domain.ProfileKey]domain.Profile
	nextID  int
	err     error // if set, every call returns it
	upserts int
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{byKey: make(map[domain.ProfileKey]domain.Profile)}
}

func (r *stubProfileRepo) Upsert(_ context.Context, key domain.ProfileKey, f domain.ProfileFields, at time.Time) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	r.upserts++
	p, ok := r.byKey[key]
	if !ok {
		r.nextID++
		p = domain.Profile{ID: "p" + strconv.Itoa(r.nextID), OwnerKey: key, CreatedAt: at}
	}
	p.Name = f.Name
	p.Institution = f.Institution
	p.Photo = f.Photo
	p.Skills = append([]domain.Skill(nil), f.Skills...)
	p.SubmittedAt = at
	r.byKey[key] = p
	out := p
	return &out, nil
}

func (r *stubProfileRepo) FindByOwnerKey(_ context.Context, key domain.ProfileKey) (*domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	p, ok := r.byKey[key]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (r *stubProfileRepo) ListAll(_ context.Context) ([]domain.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return nil, r.err
	}
	out := make([]domain.Profile, 0, len(r.byKey))
	for _, p := range r.byKey {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.After(out[j].SubmittedAt) })
	return out, nil
}

func (r *stubProfileRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byKey)
}

type stubMirror struct {
	mu    sync.Mutex
	byKey map[domain.ProfileKey]domain.Profile
	// unbounded counts calls made with a context that has no deadline.
	unbounded int
}

func (m *stubMirror) track(ctx context.Context) {
	if _, ok := ctx.Deadline(); !ok {
		m.unbounded++
	}
}

func newStubMirror() *stubMirror {
	return &stubMirror{byKey: make(map[domain.ProfileKey]domain.Profile)}
}

func (m *stubMirror) Put(ctx context.Context, p *domain.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track(ctx)
	m.byKey[p.OwnerKey] = *p
	return nil
}

func (m *stubMirror) Get(ctx context.Context, key domain.ProfileKey) (*domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track(ctx)
	p, ok := m.byKey[key]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	return &p, nil
}

func (m *stubMirror) All(ctx context.Context) ([]domain.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.track(ctx)
	out := make([]domain.Profile, 0, len(m.byKey))
	for _, p := range m.byKey {
		out = append(out, p)
	}
	return out, nil
}

// ---------------------------------------------------------------------------
// Drafts
// ---------------------------------------------------------------------------

type stubDraftStore struct {
	mu     sync.Mutex
	drafts map[domain.ProfileKey][]byte
}

func newStubDraftStore() *stubDraftStore {
	return &stubDraftStore{drafts: make(map[domain.ProfileKey][]byte)}
}

func (s *stubDraftStore) Load(_ context.Context, key domain.ProfileKey) (*domain.Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, ok := s.drafts[key]
	if !ok {
		return nil, nil
	}
	return decodeDraft(raw)
}

func (s *stubDraftStore) Save(_ context.Context, d *domain.Draft, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	raw, err := encodeDraft(d)
	if err != nil {
		return err
	}
	s.drafts[d.OwnerKey] = raw
	return nil
}

func (s *stubDraftStore) Delete(_ context.Context, key domain.ProfileKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, key)
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func submitterSession(accountID, name string) *domain.Session {
	return &domain.Session{ID: "s-" + accountID, AccountID: accountID, Role: domain.RoleSubmitter, DisplayName: name}
}

func adminSession() *domain.Session {
	return &domain.Session{ID: "s-admin", AccountID: domain.AdminAccountID, Role: domain.RoleAdmin, DisplayName: "Admin"}
}

func fieldsWith(name string, skills ...domain.Skill) domain.ProfileFields {
	return domain.ProfileFields{Name: name, Institution: "NIT Trichy", Skills: skills}
}

// fixedClock returns a clock that advances one second per call.
func fixedClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	t := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		t = t.Add(time.Second)
		return t
	}
}
