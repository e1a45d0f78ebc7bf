package registry

import (
	"context"
	crypto_rand "crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"
)

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates or corrects a patient record. A blank MR number means
// first registration: one is generated and assigned for life.
func (s *Service) Register(ctx context.Context, p *Patient) error {
	p.Name = strings.TrimSpace(p.Name)
	p.Phone = strings.TrimSpace(p.Phone)

	if p.Name == "" {
		return fmt.Errorf("name is required")
	}
	if p.Phone == "" {
		return fmt.Errorf("phone is required")
	}
	if p.Age < 0 {
		return fmt.Errorf("age must not be negative")
	}
	if p.MRNumber == "" {
		p.MRNumber = newMRNumber()
	}
	return s.repo.Upsert(ctx, p)
}

func (s *Service) GetPatient(ctx context.Context, mrNumber string) (*Patient, error) {
	return s.repo.GetByMRN(ctx, mrNumber)
}

func (s *Service) SearchPatients(ctx context.Context, query string, limit, offset int) ([]*Patient, int, error) {
	return s.repo.Search(ctx, query, limit, offset)
}

func (s *Service) ListPatients(ctx context.Context, limit, offset int) ([]*Patient, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func newMRNumber() string {
	var b [4]byte
	if _, err := crypto_rand.Read(b[:]); err != nil {
		// crypto/rand read failures are effectively fatal elsewhere; an
		// all-zero fallback still yields a usable (if guessable) number.
		return "MR-00000000"
	}
	return "MR-" + strings.ToUpper(hex.EncodeToString(b[:]))
}
