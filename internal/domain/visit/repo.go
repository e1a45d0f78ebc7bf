package visit

import (
	"context"

	"github.com/google/uuid"
)

// Repository stores visits. Implementations hand out deep copies; the
// Service is the only writer and applies whole-visit updates.
type Repository interface {
	Create(ctx context.Context, v *Visit) error
	GetByID(ctx context.Context, id uuid.UUID) (*Visit, error)
	Update(ctx context.Context, v *Visit) error

	// List returns every visit in creation order. Station worklists are
	// derived by filtering this view on each read.
	List(ctx context.Context) ([]*Visit, error)
	ListByPatient(ctx context.Context, mrNumber string) ([]*Visit, error)
}
