package visit

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgxpool"
)

// TokenIssuer hands out per-department queue tokens. Counters are
// strictly increasing and never reused, even for abandoned visits; the
// incremented counter is durable before the token string is returned.
type TokenIssuer interface {
	Issue(ctx context.Context, dept Department) (int, string, error)
}

// FormatToken renders the display form of a queue token.
func FormatToken(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

type memoryTokenIssuer struct {
	mu       sync.Mutex
	counters map[Department]int
}

// NewMemoryTokenIssuer returns an issuer backed by in-process counters,
// seeded at zero per department.
func NewMemoryTokenIssuer() TokenIssuer {
	return &memoryTokenIssuer{counters: make(map[Department]int)}
}

func (t *memoryTokenIssuer) Issue(_ context.Context, dept Department) (int, string, error) {
	cfg, ok := ConfigFor(dept)
	if !ok {
		return 0, "", fmt.Errorf("%w: unknown department %q", ErrValidation, dept)
	}

	t.mu.Lock()
	t.counters[dept]++
	n := t.counters[dept]
	t.mu.Unlock()

	return n, FormatToken(cfg.TokenPrefix, n), nil
}

type pgTokenIssuer struct {
	pool *pgxpool.Pool
}

// NewPGTokenIssuer returns an issuer backed by the department_token
// table. The upsert increments and returns in one statement, so
// concurrent registrations can never draw the same number.
func NewPGTokenIssuer(pool *pgxpool.Pool) TokenIssuer {
	return &pgTokenIssuer{pool: pool}
}

func (t *pgTokenIssuer) Issue(ctx context.Context, dept Department) (int, string, error) {
	cfg, ok := ConfigFor(dept)
	if !ok {
		return 0, "", fmt.Errorf("%w: unknown department %q", ErrValidation, dept)
	}

	var n int
	err := t.pool.QueryRow(ctx, `
		INSERT INTO department_token (department, counter)
		VALUES ($1, 1)
		ON CONFLICT (department) DO UPDATE SET counter = department_token.counter + 1
		RETURNING counter`, string(dept),
	).Scan(&n)
	if err != nil {
		return 0, "", fmt.Errorf("issue token for %s: %w", dept, err)
	}

	return n, FormatToken(cfg.TokenPrefix, n), nil
}
