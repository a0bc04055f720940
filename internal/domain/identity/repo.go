package identity

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetByMRN(ctx context.Context, mrn string) (*Patient, error)
	UpdateClass(ctx context.Context, id uuid.UUID, class Class, version int) error
	List(ctx context.Context, limit, offset int) ([]*Patient, int, error)
}
