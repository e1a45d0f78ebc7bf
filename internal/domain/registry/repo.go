package registry

import "context"

type Repository interface {
	Upsert(ctx context.Context, p *Patient) error
	GetByMRN(ctx context.Context, mrNumber string) (*Patient, error)
	Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error)
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
