package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

func seedRegistry(t *testing.T) *RegistryService {
	t.Helper()
	svc := newTestRegistry(newStubProfileRepo())
	ctx := context.Background()

	_, err := svc.Upsert(ctx, submitterSession("acc-1", "A"), fieldsWith("A",
		domain.Skill{Language: "Go", Proficiency: domain.Expert, ExpertConfirmed: true},
		domain.Skill{Language: "C", Proficiency: domain.Beginner},
	))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	_, err = svc.Upsert(ctx, submitterSession("acc-2", "B"), fieldsWith("B",
		domain.Skill{Language: "Java", Proficiency: domain.Intermediate},
	))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	return svc
}

func TestDashboardService_Stats(t *testing.T) {
	dash := NewDashboardService(seedRegistry(t))

	st, err := dash.Stats(context.Background(), adminSession())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := domain.Stats{TotalProfiles: 2, ExpertProfiles: 1, ConfirmedExpertProfiles: 1, TotalSkills: 3}
	if st != want {
		t.Fatalf("expected %+v, got %+v", want, st)
	}
}

func TestDashboardService_SubmitterForbidden(t *testing.T) {
	dash := NewDashboardService(seedRegistry(t))

	if _, err := dash.Stats(context.Background(), submitterSession("acc-1", "A")); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
}

func TestExportService_WritesAllProfiles(t *testing.T) {
	exp := NewExportService(seedRegistry(t), discardLogger)
	var buf bytes.Buffer

	n, err := exp.Export(context.Background(), adminSession(), &buf)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 exported, got %d", n)
	}

	var docs []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &docs); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	for _, field := range []string{"id", "owner_key", "name", "institution", "photo", "skills", "created_at", "submitted_at"} {
		if _, ok := docs[0][field]; !ok {
			t.Fatalf("export is missing field %q", field)
		}
	}
	if !bytes.Contains(buf.Bytes(), []byte("\n  {")) {
		t.Fatalf("expected two-space indented output")
	}
}

func TestExportService_SubmitterForbidden(t *testing.T) {
	exp := NewExportService(seedRegistry(t), discardLogger)
	var buf bytes.Buffer

	if _, err := exp.Export(context.Background(), submitterSession("acc-1", "A"), &buf); !errors.Is(err, domain.ErrNotAuthorized) {
		t.Fatalf("expected ErrNotAuthorized, got %v", err)
	}
	if buf.Len() != 0 {
		t.Fatalf("nothing should be written for a submitter")
	}
}
