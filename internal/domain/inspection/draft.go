package inspection

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/agrocert/backend/internal/domain/shared"
)

// DraftKey identifies a saved draft: one per producer, period and author.
type DraftKey struct {
	ProducerCode string    `json:"producer_code"`
	GestionYear  int       `json:"gestion_year"`
	CreatedBy    uuid.UUID `json:"created_by"`
}

// Validate checks that every part of the key is set.
func (k DraftKey) Validate() error {
	if strings.TrimSpace(k.ProducerCode) == "" {
		return shared.NewDomainError(shared.CodeInvalidInput, "Draft producer code is required")
	}
	if k.GestionYear <= 0 {
		return shared.NewDomainError(shared.CodeInvalidInput, "Draft gestion year is required")
	}
	if k.CreatedBy == uuid.Nil {
		return shared.NewDomainError(shared.CodeInvalidInput, "Draft author is required")
	}
	return nil
}

func (k DraftKey) String() string {
	return fmt.Sprintf("%s:%d:%s", k.ProducerCode, k.GestionYear, k.CreatedBy)
}

// Draft is an unvalidated, work-in-progress ficha kept outside the main store.
// Payload is the client's JSON document, stored as-is.
type Draft struct {
	Key     DraftKey        `json:"key"`
	Payload json.RawMessage `json:"payload"`
	SavedAt time.Time       `json:"saved_at"`
}

// DraftStore keeps drafts with an expiry. Get returns shared.ErrNotFound
// for missing or expired drafts; Delete of a missing draft is not an error.
type DraftStore interface {
	Save(ctx context.Context, draft Draft, ttl time.Duration) error
	Get(ctx context.Context, key DraftKey) (*Draft, error)
	Delete(ctx context.Context, key DraftKey) error
}
