package pharmacy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/hms/hms/pkg/money"
)

type mockMedicineRepo struct {
	medicines map[uuid.UUID]*Medicine
}

func newMockMedicineRepo() *mockMedicineRepo {
	return &mockMedicineRepo{medicines: make(map[uuid.UUID]*Medicine)}
}

func (m *mockMedicineRepo) Create(ctx context.Context, med *Medicine) error {
	med.ID = uuid.New()
	med.VersionID = 1
	m.medicines[med.ID] = med
	return nil
}

func (m *mockMedicineRepo) GetByID(ctx context.Context, id uuid.UUID) (*Medicine, error) {
	med, ok := m.medicines[id]
	if !ok {
		return nil, errors.New("not found")
	}
	cp := *med
	return &cp, nil
}

func (m *mockMedicineRepo) List(ctx context.Context, limit, offset int) ([]*Medicine, int, error) {
	var items []*Medicine
	for _, med := range m.medicines {
		items = append(items, med)
	}
	return items, len(items), nil
}

func (m *mockMedicineRepo) AddStock(ctx context.Context, id uuid.UUID, qty int) error {
	med, ok := m.medicines[id]
	if !ok {
		return errors.New("not found")
	}
	med.Stock += qty
	med.VersionID++
	return nil
}

func (m *mockMedicineRepo) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	med, ok := m.medicines[id]
	if !ok {
		return errors.New("not found")
	}
	if med.Stock < qty {
		return ErrInsufficientStock
	}
	med.Stock -= qty
	med.VersionID++
	return nil
}

type mockPrescriptionRepo struct {
	prescriptions map[uuid.UUID]*Prescription
}

func newMockPrescriptionRepo() *mockPrescriptionRepo {
	return &mockPrescriptionRepo{prescriptions: make(map[uuid.UUID]*Prescription)}
}

func copyPrescription(p *Prescription) *Prescription {
	cp := *p
	cp.Lines = append([]PrescriptionLine(nil), p.Lines...)
	return &cp
}

func (m *mockPrescriptionRepo) Create(ctx context.Context, p *Prescription) error {
	p.ID = uuid.New()
	p.VersionID = 1
	for i := range p.Lines {
		p.Lines[i].ID = uuid.New()
		p.Lines[i].PrescriptionID = p.ID
	}
	m.prescriptions[p.ID] = copyPrescription(p)
	return nil
}

func (m *mockPrescriptionRepo) GetByID(ctx context.Context, id uuid.UUID) (*Prescription, error) {
	p, ok := m.prescriptions[id]
	if !ok {
		return nil, errors.New("not found")
	}
	return copyPrescription(p), nil
}

func (m *mockPrescriptionRepo) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Prescription, int, error) {
	var items []*Prescription
	for _, p := range m.prescriptions {
		if p.PatientID == patientID {
			items = append(items, copyPrescription(p))
		}
	}
	return items, len(items), nil
}

func (m *mockPrescriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to PrescriptionStatus, version int) error {
	p, ok := m.prescriptions[id]
	if !ok {
		return errors.New("not found")
	}
	if p.Status != from || p.VersionID != version {
		return ErrNotPending
	}
	p.Status = to
	p.VersionID++
	return nil
}

type mockCharges struct {
	recorded  []money.Amount
	completed []uuid.UUID
	cancelled []uuid.UUID
}

func (m *mockCharges) RecordPrescriptionCharge(ctx context.Context, patientID, prescriptionID uuid.UUID, serviceName string, cost money.Amount) error {
	m.recorded = append(m.recorded, cost)
	return nil
}

func (m *mockCharges) CompletePrescriptionCharge(ctx context.Context, prescriptionID uuid.UUID) error {
	m.completed = append(m.completed, prescriptionID)
	return nil
}

func (m *mockCharges) CancelPrescriptionCharge(ctx context.Context, prescriptionID uuid.UUID) error {
	m.cancelled = append(m.cancelled, prescriptionID)
	return nil
}

type fixture struct {
	svc       *Service
	medicines *mockMedicineRepo
	charges   *mockCharges
}

func newFixture() *fixture {
	medicines := newMockMedicineRepo()
	charges := &mockCharges{}
	svc := NewService(medicines, newMockPrescriptionRepo(), charges, nil)
	return &fixture{svc: svc, medicines: medicines, charges: charges}
}

func (f *fixture) addMedicine(t *testing.T, name string, stock int, price money.Amount) *Medicine {
	t.Helper()
	m := &Medicine{Name: name, Stock: stock, UnitPrice: price}
	if err := f.svc.AddMedicine(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return m
}

func TestCreatePrescription_PricesLines(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 100, 5_000)
	ibu := f.addMedicine(t, "Ibuprofen 400mg", 50, 2_000)

	p := &Prescription{
		PatientID: uuid.New(),
		Lines: []PrescriptionLine{
			{MedicineID: amox.ID, Quantity: 10},
			{MedicineID: ibu.ID, Quantity: 20},
		},
	}
	if err := f.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if want := money.Amount(10*5_000 + 20*2_000); p.Cost != want {
		t.Errorf("expected cost %d, got %d", want, p.Cost)
	}
	if p.Status != PrescriptionPending {
		t.Errorf("expected pending, got %s", p.Status)
	}
	if len(f.charges.recorded) != 1 || f.charges.recorded[0] != p.Cost {
		t.Errorf("expected one charge of %d, got %v", p.Cost, f.charges.recorded)
	}

	// Stock is untouched until fulfillment.
	m, _ := f.svc.GetMedicine(context.Background(), amox.ID)
	if m.Stock != 100 {
		t.Errorf("expected stock 100, got %d", m.Stock)
	}
}

func TestCreatePrescription_Validation(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 100, 5_000)

	cases := []struct {
		name string
		p    *Prescription
	}{
		{"missing patient", &Prescription{Lines: []PrescriptionLine{{MedicineID: amox.ID, Quantity: 1}}}},
		{"no lines", &Prescription{PatientID: uuid.New()}},
		{"zero quantity", &Prescription{PatientID: uuid.New(), Lines: []PrescriptionLine{{MedicineID: amox.ID, Quantity: 0}}}},
		{"unknown medicine", &Prescription{PatientID: uuid.New(), Lines: []PrescriptionLine{{MedicineID: uuid.New(), Quantity: 1}}}},
	}
	for _, tc := range cases {
		if err := f.svc.CreatePrescription(context.Background(), tc.p); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
	if len(f.charges.recorded) != 0 {
		t.Error("rejected prescriptions must not post charges")
	}
}

func TestFulfill_DecrementsStockAndCompletesCharge(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 15, 5_000)

	p := &Prescription{
		PatientID: uuid.New(),
		Lines:     []PrescriptionLine{{MedicineID: amox.ID, Quantity: 10}},
	}
	if err := f.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fulfilled, err := f.svc.Fulfill(context.Background(), p.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fulfilled.Status != PrescriptionFulfilled {
		t.Errorf("expected fulfilled, got %s", fulfilled.Status)
	}

	m, _ := f.svc.GetMedicine(context.Background(), amox.ID)
	if m.Stock != 5 {
		t.Errorf("expected stock 5, got %d", m.Stock)
	}
	if len(f.charges.completed) != 1 || f.charges.completed[0] != p.ID {
		t.Error("expected charge completion for the prescription")
	}
}

func TestFulfill_InsufficientStock(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 5, 5_000)

	p := &Prescription{
		PatientID: uuid.New(),
		Lines:     []PrescriptionLine{{MedicineID: amox.ID, Quantity: 10}},
	}
	if err := f.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := f.svc.Fulfill(context.Background(), p.ID); !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("expected ErrInsufficientStock, got %v", err)
	}
	if len(f.charges.completed) != 0 {
		t.Error("failed fulfillment must not complete the charge")
	}

	got, _ := f.svc.GetPrescription(context.Background(), p.ID)
	if got.Status != PrescriptionPending {
		t.Errorf("expected prescription to stay pending, got %s", got.Status)
	}
}

func TestFulfill_OnlyOnce(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 100, 5_000)

	p := &Prescription{
		PatientID: uuid.New(),
		Lines:     []PrescriptionLine{{MedicineID: amox.ID, Quantity: 10}},
	}
	if err := f.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Fulfill(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.svc.Fulfill(context.Background(), p.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}

	m, _ := f.svc.GetMedicine(context.Background(), amox.ID)
	if m.Stock != 90 {
		t.Errorf("stock must be decremented exactly once, got %d", m.Stock)
	}
}

func TestCancel_SettlesChargeAtZero(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 100, 5_000)

	p := &Prescription{
		PatientID: uuid.New(),
		Lines:     []PrescriptionLine{{MedicineID: amox.ID, Quantity: 10}},
	}
	if err := f.svc.CreatePrescription(context.Background(), p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := f.svc.Cancel(context.Background(), p.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.charges.cancelled) != 1 || f.charges.cancelled[0] != p.ID {
		t.Error("expected the charge to be settled at zero")
	}
	got, _ := f.svc.GetPrescription(context.Background(), p.ID)
	if got.Status != PrescriptionCancelled {
		t.Errorf("expected cancelled, got %s", got.Status)
	}

	// Stock untouched, no further fulfillment possible.
	m, _ := f.svc.GetMedicine(context.Background(), amox.ID)
	if m.Stock != 100 {
		t.Errorf("expected stock 100, got %d", m.Stock)
	}
	if _, err := f.svc.Fulfill(context.Background(), p.ID); !errors.Is(err, ErrNotPending) {
		t.Errorf("expected ErrNotPending, got %v", err)
	}
}

func TestRestock(t *testing.T) {
	f := newFixture()
	amox := f.addMedicine(t, "Amoxicillin 500mg", 10, 5_000)

	if err := f.svc.Restock(context.Background(), amox.ID, 40); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m, _ := f.svc.GetMedicine(context.Background(), amox.ID)
	if m.Stock != 50 {
		t.Errorf("expected stock 50, got %d", m.Stock)
	}
	if err := f.svc.Restock(context.Background(), amox.ID, 0); err == nil {
		t.Error("expected error for non-positive quantity")
	}
}
