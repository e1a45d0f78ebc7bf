package visit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const visitCols = `id, mr_number, department, token, status, vitals, preliminary_notes,
	diagnosis, specialty, consultation_fee, total_amount, paid, created_at, updated_at`

func (r *repoPG) Create(ctx context.Context, v *Visit) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}

	vitals, specialty, err := marshalPayloads(v)
	if err != nil {
		return err
	}

	return r.pool.QueryRow(ctx, `
		INSERT INTO visit (
			id, mr_number, department, token, status, vitals, preliminary_notes,
			diagnosis, specialty, consultation_fee, total_amount, paid
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING created_at, updated_at`,
		v.ID, v.MRNumber, string(v.Department), v.Token, string(v.Status),
		vitals, v.PreliminaryNotes, v.Diagnosis, specialty,
		v.ConsultationFee, v.TotalAmount, v.Paid,
	).Scan(&v.CreatedAt, &v.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Visit, error) {
	v, err := scanVisit(r.pool.QueryRow(ctx, `SELECT `+visitCols+` FROM visit WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("%w: visit %s", ErrNotFound, id)
		}
		return nil, err
	}
	if err := r.loadChildren(ctx, v); err != nil {
		return nil, err
	}
	return v, nil
}

// Update rewrites the visit row and its child rows in one transaction.
// The aggregate is small and only ever grows, so replacing the children
// wholesale keeps the mirror exact without per-row diffing.
func (r *repoPG) Update(ctx context.Context, v *Visit) error {
	vitals, specialty, err := marshalPayloads(v)
	if err != nil {
		return err
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE visit SET
			status=$2, vitals=$3, preliminary_notes=$4, diagnosis=$5,
			specialty=$6, total_amount=$7, paid=$8, updated_at=NOW()
		WHERE id = $1`,
		v.ID, string(v.Status), vitals, v.PreliminaryNotes, v.Diagnosis,
		specialty, v.TotalAmount, v.Paid,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: visit %s", ErrNotFound, v.ID)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM lab_order WHERE visit_id = $1`, v.ID); err != nil {
		return err
	}
	for i := range v.LabOrders {
		o := &v.LabOrders[i]
		if _, err := tx.Exec(ctx, `
			INSERT INTO lab_order (id, visit_id, test_name, status, cost, results, report_url, ordered_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
			o.ID, v.ID, o.TestName, string(o.Status), o.Cost, o.Results, o.ReportURL, o.OrderedAt,
		); err != nil {
			return err
		}
	}

	if _, err := tx.Exec(ctx, `DELETE FROM prescription WHERE visit_id = $1`, v.ID); err != nil {
		return err
	}
	for i, p := range v.Prescriptions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO prescription (visit_id, position, medicine_name, dosage, duration, cost)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			v.ID, i, p.MedicineName, p.Dosage, p.Duration, p.Cost,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *repoPG) List(ctx context.Context) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+visitCols+` FROM visit ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(ctx, rows)
}

func (r *repoPG) ListByPatient(ctx context.Context, mrNumber string) ([]*Visit, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+visitCols+` FROM visit WHERE mr_number = $1 ORDER BY created_at`, mrNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return r.collect(ctx, rows)
}

func (r *repoPG) collect(ctx context.Context, rows pgx.Rows) ([]*Visit, error) {
	var visits []*Visit
	for rows.Next() {
		v, err := scanVisit(rows)
		if err != nil {
			return nil, err
		}
		visits = append(visits, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for _, v := range visits {
		if err := r.loadChildren(ctx, v); err != nil {
			return nil, err
		}
	}
	return visits, nil
}

func (r *repoPG) loadChildren(ctx context.Context, v *Visit) error {
	rows, err := r.pool.Query(ctx, `
		SELECT id, test_name, status, cost, results, report_url, ordered_at
		FROM lab_order WHERE visit_id = $1 ORDER BY ordered_at, id`, v.ID)
	if err != nil {
		return err
	}
	defer rows.Close()

	v.LabOrders = []LabOrder{}
	for rows.Next() {
		var o LabOrder
		var status string
		if err := rows.Scan(&o.ID, &o.TestName, &status, &o.Cost, &o.Results, &o.ReportURL, &o.OrderedAt); err != nil {
			return err
		}
		o.Status = LabStatus(status)
		v.LabOrders = append(v.LabOrders, o)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	prows, err := r.pool.Query(ctx, `
		SELECT medicine_name, dosage, duration, cost
		FROM prescription WHERE visit_id = $1 ORDER BY position`, v.ID)
	if err != nil {
		return err
	}
	defer prows.Close()

	v.Prescriptions = []Prescription{}
	for prows.Next() {
		var p Prescription
		if err := prows.Scan(&p.MedicineName, &p.Dosage, &p.Duration, &p.Cost); err != nil {
			return err
		}
		v.Prescriptions = append(v.Prescriptions, p)
	}
	return prows.Err()
}

func scanVisit(row pgx.Row) (*Visit, error) {
	var v Visit
	var department, status string
	var vitals, specialty []byte

	if err := row.Scan(
		&v.ID, &v.MRNumber, &department, &v.Token, &status, &vitals,
		&v.PreliminaryNotes, &v.Diagnosis, &specialty,
		&v.ConsultationFee, &v.TotalAmount, &v.Paid, &v.CreatedAt, &v.UpdatedAt,
	); err != nil {
		return nil, err
	}

	v.Department = Department(department)
	v.Status = Status(status)

	if len(vitals) > 0 {
		v.Vitals = &Vitals{}
		if err := json.Unmarshal(vitals, v.Vitals); err != nil {
			return nil, fmt.Errorf("decode vitals: %w", err)
		}
	}
	if len(specialty) > 0 {
		v.Specialty = &ClinicalRecord{}
		if err := json.Unmarshal(specialty, v.Specialty); err != nil {
			return nil, fmt.Errorf("decode specialty record: %w", err)
		}
	}
	return &v, nil
}

func marshalPayloads(v *Visit) ([]byte, []byte, error) {
	var vitals, specialty []byte
	var err error

	if v.Vitals != nil {
		if vitals, err = json.Marshal(v.Vitals); err != nil {
			return nil, nil, fmt.Errorf("encode vitals: %w", err)
		}
	}
	if v.Specialty != nil {
		if specialty, err = json.Marshal(v.Specialty); err != nil {
			return nil, nil, fmt.Errorf("encode specialty record: %w", err)
		}
	}
	return vitals, specialty, nil
}
