package service

import (
	"encoding/json"

	"github.com/marzelet/intern-registry/internal/core/domain"
)

// Drafts round-trip through JSON in the stub so tests catch state that
// would not survive the Redis store.
func encodeDraft(d *domain.Draft) ([]byte, error) { return json.Marshal(d) }

func decodeDraft(raw []byte) (*domain.Draft, error) {
	var d domain.Draft
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
