package ports

import (
	"context"
	"io"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// ExportService writes an admin snapshot of every profile.
type ExportService interface {
	Export(ctx context.Context, s *domain.Session, w io.Writer) (int, error)
}
