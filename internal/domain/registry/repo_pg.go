package registry

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

const patientCols = `mr_number, name, age, gender, phone, created_at, updated_at`

func (r *repoPG) Upsert(ctx context.Context, p *Patient) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO patient (mr_number, name, age, gender, phone)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (mr_number) DO UPDATE SET
			name = EXCLUDED.name,
			age = EXCLUDED.age,
			gender = EXCLUDED.gender,
			phone = EXCLUDED.phone,
			updated_at = NOW()
		RETURNING created_at, updated_at`,
		p.MRNumber, p.Name, p.Age, p.Gender, p.Phone,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByMRN(ctx context.Context, mrNumber string) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patient WHERE mr_number = $1`, mrNumber))
}

func (r *repoPG) Search(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	pattern := "%" + query + "%"

	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM patient
		WHERE name ILIKE $1 OR phone ILIKE $1 OR mr_number ILIKE $1`, pattern,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT `+patientCols+` FROM patient
		WHERE name ILIKE $1 OR phone ILIKE $1 OR mr_number ILIKE $1
		ORDER BY created_at
		LIMIT $2 OFFSET $3`, pattern, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients, err := collectPatients(rows)
	return patients, total, err
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM patient`).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+patientCols+` FROM patient ORDER BY created_at LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	patients, err := collectPatients(rows)
	return patients, total, err
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	if err := row.Scan(&p.MRNumber, &p.Name, &p.Age, &p.Gender, &p.Phone, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}

func collectPatients(rows pgx.Rows) ([]*Patient, error) {
	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, err
		}
		patients = append(patients, p)
	}
	return patients, rows.Err()
}
