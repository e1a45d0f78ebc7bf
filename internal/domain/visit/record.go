package visit

import "fmt"

// ClinicalRecord is the department-keyed specialty payload attached at
// the junior and consultant steps. The union is closed: one variant per
// department, disjoint fields. The orchestrator never inspects variant
// contents; it only enforces that a station writes its own slot and
// leaves the others untouched.
type ClinicalRecord struct {
	Obstetric *ObstetricFindings `json:"obstetric,omitempty"`
	Pediatric *PediatricFindings `json:"pediatric,omitempty"`
	ENT       *ENTFindings       `json:"ent,omitempty"`
	Dental    *DentalFindings    `json:"dental,omitempty"`
	General   *GeneralFindings   `json:"general,omitempty"`
	Cardiac   *CardiacFindings   `json:"cardiac,omitempty"`
}

// ObstetricFindings is the gynecology variant.
type ObstetricFindings struct {
	LMP       *string `json:"lmp,omitempty"`
	EDD       *string `json:"edd,omitempty"`
	Gravida   *int    `json:"gravida,omitempty"`
	Para      *int    `json:"para,omitempty"`
	Abortions *int    `json:"abortions,omitempty"`
	Living    *int    `json:"living,omitempty"`
}

// PediatricFindings is the pediatrics variant.
type PediatricFindings struct {
	ImmunizationUpToDate *bool   `json:"immunization_up_to_date,omitempty"`
	MilestonesNormal     *bool   `json:"milestones_normal,omitempty"`
	FeedingHistory       *string `json:"feeding_history,omitempty"`
}

// ENTFindings is the ENT variant.
type ENTFindings struct {
	Tinnitus    *bool   `json:"tinnitus,omitempty"`
	Vertigo     *bool   `json:"vertigo,omitempty"`
	HearingLoss *string `json:"hearing_loss,omitempty"`
}

// DentalFindings is the dental variant.
type DentalFindings struct {
	ToothNumber      *string `json:"tooth_number,omitempty"`
	ChiefComplaint   *string `json:"chief_complaint,omitempty"`
	ProcedurePlanned *string `json:"procedure_planned,omitempty"`
}

// GeneralFindings is the general-medicine systemic review variant.
type GeneralFindings struct {
	Smoker       *bool `json:"smoker,omitempty"`
	Diabetic     *bool `json:"diabetic,omitempty"`
	Hypertensive *bool `json:"hypertensive,omitempty"`
}

// CardiacFindings is the cardiology variant.
type CardiacFindings struct {
	ChestPainScale    *int    `json:"chest_pain_scale,omitempty"`
	ShortnessOfBreath *bool   `json:"shortness_of_breath,omitempty"`
	ECGSummary        *string `json:"ecg_summary,omitempty"`
}

// Merge applies a station's specialty fragment to the record. Only the
// slot belonging to dept may be written; a fragment carrying another
// department's variant is rejected, and slots populated by earlier
// steps are preserved untouched.
func (r *ClinicalRecord) Merge(dept Department, update *ClinicalRecord) error {
	if update == nil {
		return nil
	}
	if err := update.checkOnly(dept); err != nil {
		return err
	}

	switch dept {
	case Gynecology:
		if update.Obstetric != nil {
			r.Obstetric = update.Obstetric
		}
	case Pediatrics:
		if update.Pediatric != nil {
			r.Pediatric = update.Pediatric
		}
	case ENT:
		if update.ENT != nil {
			r.ENT = update.ENT
		}
	case Dental:
		if update.Dental != nil {
			r.Dental = update.Dental
		}
	case GeneralMedicine:
		if update.General != nil {
			r.General = update.General
		}
	case Cardiology:
		if update.Cardiac != nil {
			r.Cardiac = update.Cardiac
		}
	default:
		return fmt.Errorf("unknown department %q", dept)
	}
	return nil
}

// checkOnly verifies that no variant outside dept's own slot is set.
func (r *ClinicalRecord) checkOnly(dept Department) error {
	set := map[Department]bool{
		Gynecology:      r.Obstetric != nil,
		Pediatrics:      r.Pediatric != nil,
		ENT:             r.ENT != nil,
		Dental:          r.Dental != nil,
		GeneralMedicine: r.General != nil,
		Cardiology:      r.Cardiac != nil,
	}
	for d, present := range set {
		if present && d != dept {
			return fmt.Errorf("specialty fragment for %q not allowed in a %q visit", d, dept)
		}
	}
	return nil
}

// Empty reports whether no variant is populated.
func (r *ClinicalRecord) Empty() bool {
	return r.Obstetric == nil && r.Pediatric == nil && r.ENT == nil &&
		r.Dental == nil && r.General == nil && r.Cardiac == nil
}

func (r *ClinicalRecord) clone() *ClinicalRecord {
	if r == nil {
		return nil
	}
	c := ClinicalRecord{}
	if r.Obstetric != nil {
		v := *r.Obstetric
		c.Obstetric = &v
	}
	if r.Pediatric != nil {
		v := *r.Pediatric
		c.Pediatric = &v
	}
	if r.ENT != nil {
		v := *r.ENT
		c.ENT = &v
	}
	if r.Dental != nil {
		v := *r.Dental
		c.Dental = &v
	}
	if r.General != nil {
		v := *r.General
		c.General = &v
	}
	if r.Cardiac != nil {
		v := *r.Cardiac
		c.Cardiac = &v
	}
	return &c
}
