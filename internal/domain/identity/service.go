package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrDowngrade       = errors.New("patient class may only be upgraded")
	ErrVersionConflict = errors.New("patient was modified concurrently")
)

type Service struct {
	patients Repository
}

func NewService(patients Repository) *Service {
	return &Service{patients: patients}
}

func (s *Service) Register(ctx context.Context, p *Patient) error {
	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.MRN == "" {
		return fmt.Errorf("mrn is required")
	}
	if _, err := ParseClass(string(p.Class)); err != nil {
		return err
	}
	return s.patients.Create(ctx, p)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return s.patients.GetByID(ctx, id)
}

func (s *Service) GetByMRN(ctx context.Context, mrn string) (*Patient, error) {
	return s.patients.GetByMRN(ctx, mrn)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.patients.List(ctx, limit, offset)
}

// UpgradeClass moves a patient to a higher insurance tier. Moving to a lower
// or equal tier is rejected; the insurance ceiling never shrinks under a
// patient's existing policies.
func (s *Service) UpgradeClass(ctx context.Context, id uuid.UUID, to Class) (*Patient, error) {
	if _, err := ParseClass(string(to)); err != nil {
		return nil, err
	}
	p, err := s.patients.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if to.rank() <= p.Class.rank() {
		return nil, ErrDowngrade
	}
	if err := s.patients.UpdateClass(ctx, id, to, p.VersionID); err != nil {
		return nil, err
	}
	p.Class = to
	p.VersionID++
	return p, nil
}
