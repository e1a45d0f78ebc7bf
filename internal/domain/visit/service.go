package visit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/omniclinic/opd/internal/platform/insight"
)

// PatientInfo is the registration payload handed to the patient
// registry.
type PatientInfo struct {
	MRNumber string `json:"mr_number"`
	Name     string `json:"name"`
	Age      int    `json:"age"`
	Gender   string `json:"gender"`
	Phone    string `json:"phone"`
}

// PatientDirectory is the narrow slice of the patient registry the
// orchestrator needs: create-or-correct a patient and report the
// (possibly newly assigned) MR number.
type PatientDirectory interface {
	Upsert(ctx context.Context, p PatientInfo) (string, error)
}

// Service owns the visit state machine. Every station update is applied
// atomically to exactly one visit: the update either fully lands (data
// fields, ledger delta, state transition) or the visit is untouched.
// Updates to the same visit are serialized by a per-visit mutex;
// different visits proceed independently.
type Service struct {
	repo     Repository
	tokens   TokenIssuer
	patients PatientDirectory
	insights insight.Client

	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewService(repo Repository, tokens TokenIssuer, patients PatientDirectory) *Service {
	return &Service{
		repo:     repo,
		tokens:   tokens,
		patients: patients,
		locks:    make(map[uuid.UUID]*sync.Mutex),
	}
}

// SetInsightClient attaches an optional advisory clinical-insight
// client.
func (s *Service) SetInsightClient(c insight.Client) {
	s.insights = c
}

// lockVisit acquires the per-visit mutex, creating it on first use. The
// mutex lives for the visit's lifetime; visits are never deleted, so
// the map only grows with the visit population.
func (s *Service) lockVisit(id uuid.UUID) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &sync.Mutex{}
		s.locks[id] = l
	}
	s.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// RegisterInput is the reception desk's payload: patient identity plus
// the target department.
type RegisterInput struct {
	PatientInfo
	Department Department `json:"department"`
}

// Register creates a visit: upserts the patient, draws the department's
// next queue token, and opens the visit at the registered state with
// the consultation fee as the ledger's first entry.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Visit, error) {
	cfg, ok := ConfigFor(in.Department)
	if !ok {
		return nil, fmt.Errorf("%w: unknown department %q", ErrValidation, in.Department)
	}

	mrNumber, err := s.patients.Upsert(ctx, in.PatientInfo)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	_, token, err := s.tokens.Issue(ctx, in.Department)
	if err != nil {
		return nil, err
	}

	v := &Visit{
		ID:              uuid.New(),
		MRNumber:        mrNumber,
		Department:      in.Department,
		Token:           token,
		Status:          StatusRegistered,
		LabOrders:       []LabOrder{},
		Prescriptions:   []Prescription{},
		ConsultationFee: cfg.ConsultationFee,
		TotalAmount:     cfg.ConsultationFee,
	}
	if err := s.repo.Create(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// RecordVitals is the nurse station's update. Registered and
// vitals-pending visits are both eligible (the two states differ only
// for queue filtering); the visit moves on to the junior doctor.
func (s *Service) RecordVitals(ctx context.Context, id uuid.UUID, vt Vitals) (*Visit, error) {
	unlock := s.lockVisit(id)
	defer unlock()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusRegistered && v.Status != StatusVitalsPending {
		return nil, fmt.Errorf("%w: visit %s is %s, not awaiting vitals", ErrInvalidTransition, id, v.Status)
	}

	if vt.RecordedAt.IsZero() {
		vt.RecordedAt = time.Now().UTC()
	}
	v.Vitals = &vt
	v.Status = StatusJuniorPending

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// LabOrderInput is a newly ordered test. The cost is fixed here, at
// order time.
type LabOrderInput struct {
	TestName string `json:"test_name"`
	Cost     int    `json:"cost"`
}

// PrescriptionInput is a newly prescribed medicine line.
type PrescriptionInput struct {
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Duration     string `json:"duration"`
	Cost         int    `json:"cost"`
}

// JuniorUpdate is the junior doctor's forward payload.
type JuniorUpdate struct {
	PreliminaryNotes string          `json:"preliminary_notes"`
	Diagnosis        string          `json:"diagnosis"`
	Specialty        *ClinicalRecord `json:"specialty,omitempty"`
	LabOrders        []LabOrderInput `json:"lab_orders"`
}

// ForwardToConsultant applies the junior doctor's work-up and forwards
// the visit. Ordered tests are charged immediately; the visit always
// advances to the consultant, labs run in parallel rather than instead
// of the consultation.
func (s *Service) ForwardToConsultant(ctx context.Context, id uuid.UUID, upd JuniorUpdate) (*Visit, error) {
	if err := validateLabOrders(upd.LabOrders); err != nil {
		return nil, err
	}

	unlock := s.lockVisit(id)
	defer unlock()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusJuniorPending {
		return nil, fmt.Errorf("%w: visit %s is %s, not with the junior doctor", ErrInvalidTransition, id, v.Status)
	}

	if err := s.applySpecialty(v, upd.Specialty); err != nil {
		return nil, err
	}
	if upd.PreliminaryNotes != "" {
		v.PreliminaryNotes = &upd.PreliminaryNotes
	}
	if upd.Diagnosis != "" {
		v.Diagnosis = &upd.Diagnosis
	}
	s.attachLabOrders(v, upd.LabOrders)
	v.Status = StatusConsultantPending

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// ConsultUpdate is the consultant's completion payload.
type ConsultUpdate struct {
	Diagnosis     string              `json:"diagnosis"`
	Specialty     *ClinicalRecord     `json:"specialty,omitempty"`
	Prescriptions []PrescriptionInput `json:"prescriptions"`
	LabOrders     []LabOrderInput     `json:"lab_orders"`
}

// CompleteConsultation applies the consultant's findings and routes the
// visit by fixed priority: unresolved lab work blocks first, then
// pharmacy, then billing. A visit holding both labs and prescriptions
// is parked at lab-pending but surfaces in both worklists.
func (s *Service) CompleteConsultation(ctx context.Context, id uuid.UUID, upd ConsultUpdate) (*Visit, error) {
	if err := validateLabOrders(upd.LabOrders); err != nil {
		return nil, err
	}
	if err := validatePrescriptions(upd.Prescriptions); err != nil {
		return nil, err
	}

	unlock := s.lockVisit(id)
	defer unlock()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusConsultantPending {
		return nil, fmt.Errorf("%w: visit %s is %s, not with the consultant", ErrInvalidTransition, id, v.Status)
	}

	if err := s.applySpecialty(v, upd.Specialty); err != nil {
		return nil, err
	}
	if upd.Diagnosis != "" {
		v.Diagnosis = &upd.Diagnosis
	}
	s.attachLabOrders(v, upd.LabOrders)
	for _, p := range upd.Prescriptions {
		v.Prescriptions = append(v.Prescriptions, Prescription(p))
		v.addCharge(p.Cost)
	}

	switch {
	case v.HasPendingLabWork():
		v.Status = StatusLabPending
	case len(v.Prescriptions) > 0:
		v.Status = StatusPharmacyPending
	default:
		v.Status = StatusBillingPending
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// LabProgress advances one lab order a single step. Results and a
// report link may ride along at any step.
type LabProgress struct {
	Status    LabStatus `json:"status"`
	Results   *string   `json:"results,omitempty"`
	ReportURL *string   `json:"report_url,omitempty"`
}

// AdvanceLabOrder moves one order forward. Exactly one step: skipping
// and rollback are rejected. When the last order completes while the
// visit is parked at lab-pending, the visit leaves the lab exactly
// once, to pharmacy when prescriptions exist, otherwise to billing.
func (s *Service) AdvanceLabOrder(ctx context.Context, id, orderID uuid.UUID, p LabProgress) (*Visit, error) {
	unlock := s.lockVisit(id)
	defer unlock()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status.Terminal() {
		return nil, fmt.Errorf("%w: visit %s is completed", ErrInvalidTransition, id)
	}

	order := v.FindLabOrder(orderID)
	if order == nil {
		return nil, fmt.Errorf("%w: lab order %s on visit %s", ErrNotFound, orderID, id)
	}

	next, ok := order.Status.Next()
	if !ok {
		return nil, fmt.Errorf("%w: lab order %s is already %s", ErrInvalidTransition, orderID, order.Status)
	}
	if p.Status != next {
		return nil, fmt.Errorf("%w: lab order %s must go %s -> %s, not %s",
			ErrInvalidTransition, orderID, order.Status, next, p.Status)
	}

	order.Status = p.Status
	if p.Results != nil {
		order.Results = p.Results
	}
	if p.ReportURL != nil {
		order.ReportURL = p.ReportURL
	}

	if v.Status == StatusLabPending && v.LabsConverged() {
		if len(v.Prescriptions) > 0 {
			v.Status = StatusPharmacyPending
		} else {
			v.Status = StatusBillingPending
		}
	}

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Dispense marks the pharmacy's whole-visit hand-out. No charge moves;
// prescription costs entered the ledger when the consultant wrote them.
func (s *Service) Dispense(ctx context.Context, id uuid.UUID) (*Visit, error) {
	unlock := s.lockVisit(id)
	defer unlock()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusPharmacyPending {
		return nil, fmt.Errorf("%w: visit %s is %s, not awaiting pharmacy", ErrInvalidTransition, id, v.Status)
	}

	v.Status = StatusBillingPending

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// AcceptPayment settles the visit's running total, freezes the ledger,
// and closes the visit. Irrevocable.
func (s *Service) AcceptPayment(ctx context.Context, id uuid.UUID) (*Visit, error) {
	unlock := s.lockVisit(id)
	defer unlock()

	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if v.Status != StatusBillingPending {
		return nil, fmt.Errorf("%w: visit %s is %s, not awaiting billing", ErrInvalidTransition, id, v.Status)
	}

	v.Paid = true
	v.Status = StatusCompleted

	if err := s.repo.Update(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

func (s *Service) GetVisit(ctx context.Context, id uuid.UUID) (*Visit, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListVisits(ctx context.Context) ([]*Visit, error) {
	return s.repo.List(ctx)
}

func (s *Service) ListVisitsByPatient(ctx context.Context, mrNumber string) ([]*Visit, error) {
	return s.repo.ListByPatient(ctx, mrNumber)
}

// Queue derives a station's worklist by filtering every visit on its
// current fields. The view is recomputed on each call; there is no
// cache to invalidate.
func (s *Service) Queue(ctx context.Context, role Role) ([]*Visit, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrValidation, role)
	}

	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	queue := []*Visit{}
	for _, v := range all {
		if v.InQueue(role) {
			queue = append(queue, v)
		}
	}
	return queue, nil
}

// ClinicalInsights asks the advisory assistant for a read on the
// visit's vitals and notes. Advisory only: any failure degrades to the
// placeholder result and the workflow is never blocked or mutated.
func (s *Service) ClinicalInsights(ctx context.Context, id uuid.UUID) (insight.Result, error) {
	v, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return insight.Placeholder(), err
	}
	if s.insights == nil {
		return insight.Placeholder(), nil
	}

	in := insight.Input{}
	if v.Vitals != nil {
		in.BloodPressure = v.Vitals.BloodPressure
		in.HeartRate = v.Vitals.HeartRate
		in.Temperature = v.Vitals.Temperature
		in.OxygenSaturation = v.Vitals.OxygenSaturation
	}
	if v.PreliminaryNotes != nil {
		in.Notes = *v.PreliminaryNotes
	}

	res, err := s.insights.ClinicalInsights(ctx, in)
	if err != nil {
		return insight.Placeholder(), nil
	}
	return res, nil
}

func (s *Service) applySpecialty(v *Visit, fragment *ClinicalRecord) error {
	if fragment == nil {
		return nil
	}
	if v.Specialty == nil {
		v.Specialty = &ClinicalRecord{}
	}
	if err := v.Specialty.Merge(v.Department, fragment); err != nil {
		return fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return nil
}

func (s *Service) attachLabOrders(v *Visit, orders []LabOrderInput) {
	now := time.Now().UTC()
	for _, in := range orders {
		v.LabOrders = append(v.LabOrders, LabOrder{
			ID:        uuid.New(),
			TestName:  in.TestName,
			Status:    LabOrdered,
			Cost:      in.Cost,
			OrderedAt: now,
		})
		v.addCharge(in.Cost)
	}
}

func validateLabOrders(orders []LabOrderInput) error {
	for _, o := range orders {
		if o.TestName == "" {
			return fmt.Errorf("%w: lab order requires a test name", ErrValidation)
		}
		if o.Cost < 0 {
			return fmt.Errorf("%w: lab order cost must not be negative", ErrValidation)
		}
	}
	return nil
}

func validatePrescriptions(ps []PrescriptionInput) error {
	for _, p := range ps {
		if p.MedicineName == "" {
			return fmt.Errorf("%w: prescription requires a medicine name", ErrValidation)
		}
		if p.Cost < 0 {
			return fmt.Errorf("%w: prescription cost must not be negative", ErrValidation)
		}
	}
	return nil
}
