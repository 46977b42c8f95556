package service

import (
	"context"
	"fmt"

	"github.com/bulat-nitaliev/payment-task/internal/domain"
)

type organizationReader interface {
	GetByINN(ctx context.Context, inn string) (*domain.Organization, error)
}

// BalanceService is the read side: it never creates an organization,
// unlike ingestion which does so lazily.
type BalanceService struct {
	organizations organizationReader
}

func NewBalanceService(organizations organizationReader) *BalanceService {
	return &BalanceService{organizations: organizations}
}

func (s *BalanceService) GetBalance(ctx context.Context, inn string) (*domain.Organization, error) {
	org, err := s.organizations.GetByINN(ctx, inn)
	if err != nil {
		return nil, fmt.Errorf("GetBalance: %w", err)
	}
	return org, nil
}
