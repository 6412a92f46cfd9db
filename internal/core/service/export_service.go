package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/marzelet/intern-registry/internal/core/domain"
	"github.com/marzelet/intern-registry/internal/core/ports"
)

// ExportFileName is the suggested name of a downloaded export.
const ExportFileName = "intern-data.json"

// ExportService serialises the full profile list for admins.
type ExportService struct {
	registry ports.RegistryService
	log      zerolog.Logger
}

func NewExportService(registry ports.RegistryService, log zerolog.Logger) *ExportService {
	return &ExportService{registry: registry, log: log}
}

// Export writes every profile to w as indented JSON and returns the count.
func (s *ExportService) Export(ctx context.Context, session *domain.Session, w io.Writer) (int, error) {
	profiles, err := s.registry.ListAll(ctx, session)
	if err != nil {
		return 0, err
	}
	if profiles == nil {
		profiles = []domain.Profile{}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(profiles); err != nil {
		return 0, fmt.Errorf("export profiles: %w", err)
	}

	s.log.Info().Str("session_id", session.ID).Int("count", len(profiles)).Msg("profiles exported")
	return len(profiles), nil
}
