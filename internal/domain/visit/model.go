package visit

import (
	"time"

	"github.com/google/uuid"
)

// Status is a visit's position in the outpatient workflow. Transitions
// are owned by the Service; nothing else writes the field.
type Status string

const (
	StatusRegistered        Status = "registered"
	StatusVitalsPending     Status = "vitals-pending"
	StatusJuniorPending     Status = "junior-pending"
	StatusConsultantPending Status = "consultant-pending"
	StatusLabPending        Status = "lab-pending"
	StatusPharmacyPending   Status = "pharmacy-pending"
	StatusBillingPending    Status = "billing-pending"
	StatusCompleted         Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusRegistered:        true,
	StatusVitalsPending:     true,
	StatusJuniorPending:     true,
	StatusConsultantPending: true,
	StatusLabPending:        true,
	StatusPharmacyPending:   true,
	StatusBillingPending:    true,
	StatusCompleted:         true,
}

func (s Status) Valid() bool { return validStatuses[s] }

// Terminal reports whether the visit can no longer change.
func (s Status) Terminal() bool { return s == StatusCompleted }

// LabStatus is a lab order's lifecycle stage. Orders move strictly
// forward, one step at a time.
type LabStatus string

const (
	LabOrdered         LabStatus = "ordered"
	LabSampleCollected LabStatus = "sample-collected"
	LabProcessing      LabStatus = "processing"
	LabCompleted       LabStatus = "completed"
)

// Next returns the only admissible successor stage. ok is false at the
// terminal stage and for unknown values.
func (s LabStatus) Next() (LabStatus, bool) {
	switch s {
	case LabOrdered:
		return LabSampleCollected, true
	case LabSampleCollected:
		return LabProcessing, true
	case LabProcessing:
		return LabCompleted, true
	default:
		return "", false
	}
}

// Role names a station's worklist.
type Role string

const (
	RoleNurse        Role = "nurse"
	RoleJuniorDoctor Role = "junior-doctor"
	RoleConsultant   Role = "consultant"
	RoleLab          Role = "lab"
	RolePharmacy     Role = "pharmacy"
	RoleCashier      Role = "cashier"
)

var validRoles = map[Role]bool{
	RoleNurse:        true,
	RoleJuniorDoctor: true,
	RoleConsultant:   true,
	RoleLab:          true,
	RolePharmacy:     true,
	RoleCashier:      true,
}

func (r Role) Valid() bool { return validRoles[r] }

// Vitals is the nurse station's snapshot. The specialty fields are only
// recorded where they apply (head circumference in pediatrics, fetal
// heart rate in obstetric visits).
type Vitals struct {
	BloodPressure     string    `json:"blood_pressure"`
	HeartRate         int       `json:"heart_rate"`
	Temperature       float64   `json:"temperature"`
	OxygenSaturation  int       `json:"oxygen_saturation"`
	Weight            float64   `json:"weight"`
	HeadCircumference *float64  `json:"head_circumference,omitempty"`
	FetalHeartRate    *int      `json:"fetal_heart_rate,omitempty"`
	RecordedAt        time.Time `json:"recorded_at"`
}

// LabOrder is one ordered test. Cost is fixed at order time; only the
// laboratory station advances the status.
type LabOrder struct {
	ID        uuid.UUID `json:"id"`
	TestName  string    `json:"test_name"`
	Status    LabStatus `json:"status"`
	Cost      int       `json:"cost"`
	Results   *string   `json:"results,omitempty"`
	ReportURL *string   `json:"report_url,omitempty"`
	OrderedAt time.Time `json:"ordered_at"`
}

// Prescription is one prescribed medicine line. Immutable once written;
// dispensing is a whole-visit action.
type Prescription struct {
	MedicineName string `json:"medicine_name"`
	Dosage       string `json:"dosage"`
	Duration     string `json:"duration"`
	Cost         int    `json:"cost"`
}

// Visit is one episode of care. Department and consultation fee are
// fixed at creation; TotalAmount only ever grows (see addCharge).
type Visit struct {
	ID               uuid.UUID       `json:"id"`
	MRNumber         string          `json:"mr_number"`
	Department       Department      `json:"department"`
	Token            string          `json:"token"`
	Status           Status          `json:"status"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
	Vitals           *Vitals         `json:"vitals,omitempty"`
	PreliminaryNotes *string         `json:"preliminary_notes,omitempty"`
	Diagnosis        *string         `json:"diagnosis,omitempty"`
	Specialty        *ClinicalRecord `json:"specialty,omitempty"`
	LabOrders        []LabOrder      `json:"lab_orders"`
	Prescriptions    []Prescription  `json:"prescriptions"`
	ConsultationFee  int             `json:"consultation_fee"`
	TotalAmount      int             `json:"total_amount"`
	Paid             bool            `json:"paid"`
}

// addCharge accumulates into the running ledger. Charges are attached
// exactly once, when the item is created, and never removed.
func (v *Visit) addCharge(amount int) {
	v.TotalAmount += amount
}

// HasPendingLabWork reports whether any ordered test has not yet
// completed.
func (v *Visit) HasPendingLabWork() bool {
	for i := range v.LabOrders {
		if v.LabOrders[i].Status != LabCompleted {
			return true
		}
	}
	return false
}

// LabsConverged reports whether every ordered test reached completed.
// Vacuously true with no orders.
func (v *Visit) LabsConverged() bool {
	return !v.HasPendingLabWork()
}

// FindLabOrder returns a pointer into the visit's own order slice, or
// nil when the id is unknown.
func (v *Visit) FindLabOrder(id uuid.UUID) *LabOrder {
	for i := range v.LabOrders {
		if v.LabOrders[i].ID == id {
			return &v.LabOrders[i]
		}
	}
	return nil
}

// InQueue derives the visit's membership in a station worklist from its
// own fields. Never cached: callers recompute on every read. The lab and
// pharmacy queues also surface visits whose canonical status is parked
// elsewhere but that still carry unresolved items of their kind.
func (v *Visit) InQueue(role Role) bool {
	switch role {
	case RoleNurse:
		return v.Status == StatusRegistered || v.Status == StatusVitalsPending
	case RoleJuniorDoctor:
		return v.Status == StatusJuniorPending
	case RoleConsultant:
		return v.Status == StatusConsultantPending
	case RoleLab:
		return v.Status == StatusLabPending || v.HasPendingLabWork()
	case RolePharmacy:
		return v.Status == StatusPharmacyPending ||
			(len(v.Prescriptions) > 0 && v.Status == StatusLabPending)
	case RoleCashier:
		return v.Status == StatusBillingPending
	default:
		return false
	}
}

// Clone returns an independent deep copy. Repositories hand out clones
// so a caller can never mutate stored state without going through the
// Service.
func (v *Visit) Clone() *Visit {
	clone := *v

	if v.Vitals != nil {
		vt := *v.Vitals
		if v.Vitals.HeadCircumference != nil {
			hc := *v.Vitals.HeadCircumference
			vt.HeadCircumference = &hc
		}
		if v.Vitals.FetalHeartRate != nil {
			fhr := *v.Vitals.FetalHeartRate
			vt.FetalHeartRate = &fhr
		}
		clone.Vitals = &vt
	}
	if v.PreliminaryNotes != nil {
		n := *v.PreliminaryNotes
		clone.PreliminaryNotes = &n
	}
	if v.Diagnosis != nil {
		d := *v.Diagnosis
		clone.Diagnosis = &d
	}
	if v.Specialty != nil {
		clone.Specialty = v.Specialty.clone()
	}

	clone.LabOrders = make([]LabOrder, len(v.LabOrders))
	for i, o := range v.LabOrders {
		if o.Results != nil {
			res := *o.Results
			o.Results = &res
		}
		if o.ReportURL != nil {
			u := *o.ReportURL
			o.ReportURL = &u
		}
		clone.LabOrders[i] = o
	}

	clone.Prescriptions = make([]Prescription, len(v.Prescriptions))
	copy(clone.Prescriptions, v.Prescriptions)

	return &clone
}
