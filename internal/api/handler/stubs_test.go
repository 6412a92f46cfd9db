package handler

import (
	"context"
	"io"
	"net/http/httptest"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/marzelet/intern-registry/internal/api/middleware"
	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

type stubSessionService struct {
	signInFn  func(ctx context.Context, role domain.Role, creds ports.Credentials) (*ports.SignInResult, error)
	signOutFn func(ctx context.Context, s *domain.Session) error
}

func (s *stubSessionService) SignIn(ctx context.Context, role domain.Role, creds ports.Credentials) (*ports.SignInResult, error) {
	return s.signInFn(ctx, role, creds)
}

func (s *stubSessionService) SignOut(ctx context.Context, session *domain.Session) error {
	return s.signOutFn(ctx, session)
}

func (s *stubSessionService) Current(ctx context.Context) (*domain.Session, error) {
	if session, ok := domain.SessionFromContext(ctx); ok {
		return session, nil
	}
	return nil, domain.ErrSessionNotFound
}

func (s *stubSessionService) Restore(ctx context.Context, token string) (*domain.Session, error) {
	return nil, domain.ErrSessionNotFound
}

type stubRegistry struct {
	upsertFn func(ctx context.Context, s *domain.Session, fields domain.ProfileFields) (*domain.Profile, error)
	findFn   func(ctx context.Context, s *domain.Session) (*domain.Profile, error)
	listFn   func(ctx context.Context, s *domain.Session) ([]domain.Profile, error)
}

func (r *stubRegistry) Upsert(ctx context.Context, s *domain.Session, fields domain.ProfileFields) (*domain.Profile, error) {
	return r.upsertFn(ctx, s, fields)
}

func (r *stubRegistry) FindByKey(ctx context.Context, s *domain.Session) (*domain.Profile, error) {
	return r.findFn(ctx, s)
}

func (r *stubRegistry) ListAll(ctx context.Context, s *domain.Session) ([]domain.Profile, error) {
	return r.listFn(ctx, s)
}

type stubDashboard struct {
	stats domain.Stats
	err   error
}

func (d *stubDashboard) Stats(ctx context.Context, s *domain.Session) (domain.Stats, error) {
	return d.stats, d.err
}

type stubExporter struct {
	body string
	err  error
}

func (e *stubExporter) Export(ctx context.Context, s *domain.Session, w io.Writer) (int, error) {
	if e.err != nil {
		return 0, e.err
	}
	_, err := io.WriteString(w, e.body)
	return 1, err
}

// stubDrafts keeps one draft in memory and applies edits with the domain
// methods, so handler tests see the real confirmation behaviour.
type stubDrafts struct {
	draft     *domain.Draft
	submitted *domain.Profile
	submitErr error
}

func newStubDrafts() *stubDrafts {
	return &stubDrafts{draft: domain.NewDraft("acct_1", domain.ProfileFields{Name: "Asha"})}
}

func (d *stubDrafts) Get(ctx context.Context, s *domain.Session) (*domain.Draft, error) {
	return d.draft, nil
}

func (d *stubDrafts) UpdateDetails(ctx context.Context, s *domain.Session, in ports.DetailsInput) (*domain.Draft, error) {
	d.draft.UpdateDetails(in.Name, in.Institution, in.Photo)
	return d.draft, nil
}

func (d *stubDrafts) AddSkill(ctx context.Context, s *domain.Session, language string) (*domain.Draft, error) {
	d.draft.AddSkill(language)
	return d.draft, nil
}

func (d *stubDrafts) EditSkill(ctx context.Context, s *domain.Session, index int, edit ports.SkillEdit) (*ports.DraftResult, error) {
	opened := false
	if edit.Proficiency != nil {
		var err error
		if opened, err = d.draft.SetProficiency(index, *edit.Proficiency); err != nil {
			return nil, err
		}
	}
	return &ports.DraftResult{Draft: d.draft, ConfirmationRequired: opened}, nil
}

func (d *stubDrafts) RemoveSkill(ctx context.Context, s *domain.Session, index int) (*domain.Draft, error) {
	if err := d.draft.RemoveSkill(index); err != nil {
		return nil, err
	}
	return d.draft, nil
}

func (d *stubDrafts) AnswerConfirmation(ctx context.Context, s *domain.Session, yes bool) (*domain.Draft, error) {
	if err := d.draft.AnswerConfirmation(yes); err != nil {
		return nil, err
	}
	return d.draft, nil
}

func (d *stubDrafts) DismissConfirmation(ctx context.Context, s *domain.Session) (*domain.Draft, error) {
	if err := d.draft.DismissConfirmation(); err != nil {
		return nil, err
	}
	return d.draft, nil
}

func (d *stubDrafts) Submit(ctx context.Context, s *domain.Session) (*domain.Profile, error) {
	if err := d.draft.ReadyToSubmit(); err != nil {
		return nil, err
	}
	return d.submitted, d.submitErr
}

var t0 = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func submitter() *domain.Session {
	return &domain.Session{ID: "sid-1", AccountID: "acc-1", Role: domain.RoleSubmitter, DisplayName: "Asha"}
}

func admin() *domain.Session {
	return &domain.Session{ID: "sid-admin", AccountID: domain.AdminAccountID, Role: domain.RoleAdmin, DisplayName: "Admin"}
}

// newContext builds an echo.Context with the validator installed and, when
// s is non-nil, the session the Auth middleware would have attached.
func newContext(method, target, body string, s *domain.Session) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if s != nil {
		req = req.WithContext(domain.WithSession(req.Context(), s))
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if s != nil {
		c.Set(middleware.SessionKey, s)
	}
	return c, rec
}

func httpCode(err error) int {
	if he, ok := err.(*echo.HTTPError); ok {
		return he.Code
	}
	return 0
}
