package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func newTestRegistry(repo *stubProfileRepo, opts ...RegistryOption) *RegistryService {
	svc := NewRegistryService(repo, NewIdentityResolver(KeyPolicyAccount), discardLogger, opts...)
	svc.now = fixedClock(t0)
	return svc
}

func TestRegistryService_UpsertOverwritesInPlace(t *testing.T) {
	repo := newStubProfileRepo()
	svc := newTestRegistry(repo)
	s := submitterSession("acc-1", "A")
	ctx := context.Background()

	first, err := svc.Upsert(ctx, s, fieldsWith("A", domain.Skill{Language: "Python", Proficiency: domain.Beginner}))
	if err != nil {
		t.Fatalf("first Upsert: %v", err)
	}
	second, err := svc.Upsert(ctx, s, fieldsWith("A", domain.Skill{Language: "Python", Proficiency: domain.Expert}))
	if err != nil {
		t.Fatalf("second Upsert: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("profile id changed: %s -> %s", first.ID, second.ID)
	}
	if !second.SubmittedAt.After(first.SubmittedAt) {
		t.Fatalf("submitted_at not refreshed: %v -> %v", first.SubmittedAt, second.SubmittedAt)
	}

	got, err := svc.FindByKey(ctx, s)
	if err != nil {
		t.Fatalf("FindByKey: %v", err)
	}
	if len(got.Skills) != 1 || got.Skills[0].Proficiency != domain.Expert {
		t.Fatalf("expected second skill set, got %+v", got.Skills)
	}
	if repo.count() != 1 {
		t.Fatalf("expected exactly one profile, got %d", repo.count())
	}
}

func TestRegistryService_UpsertIdempotent(t *testing.T) {
	repo := newStubProfileRepo()
	svc := newTestRegistry(repo)
	s := submitterSession("acc-1", "A")
	f := fieldsWith("A", domain.Skill{Language: "Go", Proficiency: domain.Intermediate})

	p1, _ := svc.Upsert(context.Background(), s, f)
	p2, _ := svc.Upsert(context.Background(), s, f)

	if p1.ID != p2.ID || repo.count() != 1 {
		t.Fatalf("expected one profile with a stable id, got %s/%s count=%d", p1.ID, p2.ID, repo.count())
	}
}

func TestRegistryService_UpsertNormalizesSkills(t *testing.T) {
	repo := newStubProfileRepo()
	svc := newTestRegistry(repo)

	p, err := svc.Upsert(context.Background(), submitterSession("acc-1", "A"), fieldsWith("A",
		domain.Skill{Language: "Go", Proficiency: domain.Intermediate, ExpertConfirmed: true},
	))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	if p.Skills[0].ExpertConfirmed {
		t.Fatalf("stored skill below Expert must not be expert-confirmed")
	}
}

func TestRegistryService_UpsertValidation(t *testing.T) {
	svc := newTestRegistry(newStubProfileRepo())

	_, err := svc.Upsert(context.Background(), submitterSession("acc-1", "A"), domain.ProfileFields{Name: "A"})
	if !errors.Is(err, domain.ErrInvalidProfile) {
		t.Fatalf("expected ErrInvalidProfile, got %v", err)
	}
}

func TestRegistryService_UpsertRequiresSubmitter(t *testing.T) {
	svc := newTestRegistry(newStubProfileRepo())
	f := fieldsWith("A", domain.Skill{Language: "Go", Proficiency: domain.Beginner})

	if _, err := svc.Upsert(context.Background(), adminSession(), f); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized for admin, got %v", err)
	}
	if _, err := svc.Upsert(context.Background(), nil, f); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestRegistryService_UpsertPersistenceFailureIsNotSuccess(t *testing.T) {
	repo := newStubProfileRepo()
	repo.err = fmt.Errorf("dial: %w", domain.ErrPersistenceUnavailable)
	mirror := newStubMirror()
	svc := newTestRegistry(repo, WithMirror(mirror))

	p, err := svc.Upsert(context.Background(), submitterSession("acc-1", "A"), fieldsWith("A", domain.Skill{Language: "Go", Proficiency: domain.Beginner}))
	if !errors.Is(err, domain.ErrPersistenceUnavailable) || p != nil {
		t.Fatalf("expected ErrPersistenceUnavailable and no profile, got %v %v", p, err)
	}
	if len(mirror.byKey) != 0 {
		t.Fatalf("mirror must not be written when the store rejects the write")
	}
}

func TestRegistryService_FindByKeyNotFound(t *testing.T) {
	svc := newTestRegistry(newStubProfileRepo())

	if _, err := svc.FindByKey(context.Background(), submitterSession("acc-1", "A")); !errors.Is(err, domain.ErrProfileNotFound) {
		t.Fatalf("expected ErrProfileNotFound, got %v", err)
	}
}

func TestRegistryService_ListAllAdminOnly(t *testing.T) {
	svc := newTestRegistry(newStubProfileRepo())

	profiles, err := svc.ListAll(context.Background(), submitterSession("acc-1", "A"))
	if !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if profiles == nil || len(profiles) != 0 {
		t.Fatalf("expected empty non-nil list, got %v", profiles)
	}
}

func TestRegistryService_ListAllNewestFirst(t *testing.T) {
	repo := newStubProfileRepo()
	svc := newTestRegistry(repo)
	ctx := context.Background()
	skill := domain.Skill{Language: "Go", Proficiency: domain.Beginner}

	_, _ = svc.Upsert(ctx, submitterSession("acc-1", "First"), fieldsWith("First", skill))
	_, _ = svc.Upsert(ctx, submitterSession("acc-2", "Second"), fieldsWith("Second", skill))
	_, _ = svc.Upsert(ctx, submitterSession("acc-1", "First"), fieldsWith("First again", skill))

	profiles, err := svc.ListAll(ctx, adminSession())
	if err != nil {
		t.Fatalf("ListAll: %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(profiles))
	}
	if profiles[0].Name != "First again" || profiles[1].Name != "Second" {
		t.Fatalf("unexpected order: %s, %s", profiles[0].Name, profiles[1].Name)
	}
}

func TestRegistryService_MirrorFallback(t *testing.T) {
	repo := newStubProfileRepo()
	mirror := newStubMirror()
	svc := newTestRegistry(repo, WithMirror(mirror))
	s := submitterSession("acc-1", "A")
	ctx := context.Background()

	saved, err := svc.Upsert(ctx, s, fieldsWith("A", domain.Skill{Language: "Go", Proficiency: domain.Beginner}))
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	repo.err = fmt.Errorf("timeout: %w", domain.ErrPersistenceUnavailable)

	got, err := svc.FindByKey(ctx, s)
	if err != nil || got.ID != saved.ID {
		t.Fatalf("expected mirrored profile, got %v %v", got, err)
	}
	all, err := svc.ListAll(ctx, adminSession())
	if err != nil || len(all) != 1 {
		t.Fatalf("expected mirrored list, got %v %v", all, err)
	}

	if _, err := svc.FindByKey(ctx, submitterSession("acc-2", "B")); !errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Fatalf("mirror miss should surface the store error, got %v", err)
	}
	if mirror.unbounded != 0 {
		t.Fatalf("every mirror call must carry the store timeout, %d did not", mirror.unbounded)
	}
}

// mirrorCheckingSerializer records whether the mirror already held the new
// copy when the serialised write returned.
type mirrorCheckingSerializer struct {
	mirror   *stubMirror
	mirrored []string
}

func (s *mirrorCheckingSerializer) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if p, err := s.mirror.Get(ctx, domain.ProfileKey(key)); err == nil {
		s.mirrored = append(s.mirrored, p.Name)
	}
	return nil
}

func TestRegistryService_MirrorRefreshedInsideSerializedWrite(t *testing.T) {
	repo := newStubProfileRepo()
	mirror := newStubMirror()
	ser := &mirrorCheckingSerializer{mirror: mirror}
	svc := newTestRegistry(repo, WithMirror(mirror), WithSerializer(ser))
	s := submitterSession("acc-1", "A")

	for _, name := range []string{"first", "second"} {
		if _, err := svc.Upsert(context.Background(), s, fieldsWith(name, domain.Skill{Language: "Go", Proficiency: domain.Beginner})); err != nil {
			t.Fatalf("Upsert: %v", err)
		}
	}

	if len(ser.mirrored) != 2 || ser.mirrored[0] != "first" || ser.mirrored[1] != "second" {
		t.Fatalf("mirror must be refreshed before the per-key slot is released, saw %v", ser.mirrored)
	}
}

func TestRegistryService_NoMirrorSurfacesOutage(t *testing.T) {
	repo := newStubProfileRepo()
	repo.err = domain.ErrPersistenceUnavailable
	svc := newTestRegistry(repo)

	if _, err := svc.ListAll(context.Background(), adminSession()); !errors.Is(err, domain.ErrPersistenceUnavailable) {
		t.Fatalf("expected ErrPersistenceUnavailable, got %v", err)
	}
}

// serialSerializer records that every write went through it.
type serialSerializer struct {
	mu   sync.Mutex
	keys []string
}

func (s *serialSerializer) Do(ctx context.Context, key string, fn func(context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return fn(ctx)
}

func TestRegistryService_ConcurrentUpsertsSameKey(t *testing.T) {
	repo := newStubProfileRepo()
	ser := &serialSerializer{}
	svc := newTestRegistry(repo, WithSerializer(ser))
	s := submitterSession("acc-1", "A")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = svc.Upsert(context.Background(), s, fieldsWith(fmt.Sprintf("A%d", i), domain.Skill{Language: "Go", Proficiency: domain.Beginner}))
		}(i)
	}
	wg.Wait()

	if repo.count() != 1 {
		t.Fatalf("expected one profile, got %d", repo.count())
	}
	if len(ser.keys) != 20 {
		t.Fatalf("expected every write to pass the serializer, got %d", len(ser.keys))
	}
}
