package insurance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/hms/hms/internal/domain/identity"
	"github.com/hms/hms/pkg/money"
)

var (
	// ErrLimitExceeded means the new policy's total coverage would push the
	// patient past the class-based insurance ceiling.
	ErrLimitExceeded   = errors.New("policy coverage exceeds patient's available insurance limit")
	ErrPolicyTerminal  = errors.New("policy is expired or cancelled")
	ErrVersionConflict = errors.New("policy was modified concurrently")
)

// PatientDirectory is the slice of the patient service the insurance domain
// needs: the owning patient and their class-based insurance ceiling.
type PatientDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*identity.Patient, error)
}

type Service struct {
	companies CompanyRepository
	policies  PolicyRepository
	patients  PatientDirectory
	now       func() time.Time
}

func NewService(companies CompanyRepository, policies PolicyRepository, patients PatientDirectory) *Service {
	return &Service{companies: companies, policies: policies, patients: patients, now: time.Now}
}

// -- Companies --

func (s *Service) CreateCompany(ctx context.Context, c *Company) error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	return s.companies.Create(ctx, c)
}

func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*Company, error) {
	return s.companies.GetByID(ctx, id)
}

func (s *Service) ListCompanies(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	return s.companies.List(ctx, limit, offset)
}

// -- Policies --

// AvailableLimit returns the portion of the patient's class-based ceiling not
// committed to active policies.
func (s *Service) AvailableLimit(ctx context.Context, patientID uuid.UUID) (money.Amount, error) {
	p, err := s.patients.Get(ctx, patientID)
	if err != nil {
		return 0, err
	}
	committed, err := s.policies.ActiveTotalCoverage(ctx, patientID, s.now())
	if err != nil {
		return 0, err
	}
	return p.InsuranceLimit() - committed, nil
}

// CreatePolicy validates the policy and its coverage items, derives
// TotalCoverage from the item amounts, and enforces the patient's available
// limit at creation time.
func (s *Service) CreatePolicy(ctx context.Context, p *Policy) error {
	if p.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if p.CompanyID == uuid.Nil {
		return fmt.Errorf("company_id is required")
	}
	if len(p.Items) == 0 {
		return fmt.Errorf("at least one coverage item is required")
	}
	if !p.ExpiryDate.After(s.now()) {
		return fmt.Errorf("expiry_date must be in the future")
	}

	seen := make(map[string]bool, len(p.Items))
	var total money.Amount
	for _, item := range p.Items {
		if item.Name == "" {
			return fmt.Errorf("coverage item name is required")
		}
		if seen[item.Name] {
			return fmt.Errorf("duplicate coverage item %q", item.Name)
		}
		seen[item.Name] = true
		if item.CoverageAmount <= 0 {
			return fmt.Errorf("coverage amount for %q must be positive", item.Name)
		}
		total += item.CoverageAmount
	}
	p.TotalCoverage = total
	p.TotalCovered = 0
	p.Status = PolicyActive

	if _, err := s.companies.GetByID(ctx, p.CompanyID); err != nil {
		return fmt.Errorf("company not found")
	}

	available, err := s.AvailableLimit(ctx, p.PatientID)
	if err != nil {
		return err
	}
	if p.TotalCoverage > available {
		return ErrLimitExceeded
	}

	return s.policies.Create(ctx, p)
}

func (s *Service) GetPolicy(ctx context.Context, id uuid.UUID) (*Policy, error) {
	return s.policies.GetByID(ctx, id)
}

func (s *Service) ListPoliciesByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Policy, int, error) {
	return s.policies.ListByPatient(ctx, patientID, limit, offset)
}

// CancelPolicy makes the policy terminal, releasing its coverage from the
// patient's committed limit.
func (s *Service) CancelPolicy(ctx context.Context, id uuid.UUID) error {
	p, err := s.policies.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !p.IsActive(s.now()) {
		return ErrPolicyTerminal
	}
	return s.policies.Cancel(ctx, id, p.VersionID)
}

// Consume records coverage consumption against the policy. Callers hold the
// transaction; the repository enforces the aggregate ceiling.
func (s *Service) Consume(ctx context.Context, policyID uuid.UUID, total money.Amount, perItem map[string]money.Amount, version int) error {
	return s.policies.Consume(ctx, policyID, total, perItem, version)
}
