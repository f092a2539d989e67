package services

import (
	"fmt"
	"sort"

	"github.com/SscSPs/property_ledger/internal/apperrors"
	"github.com/SscSPs/property_ledger/internal/core/domain"
	portssvc "github.com/SscSPs/property_ledger/internal/core/ports/services"
)

type chartService struct {
	roots   map[string]domain.Account
	ordered []domain.Account
}

// NewChartService creates a chart over roots. With no roots the default chart is used.
func NewChartService(roots ...domain.Account) portssvc.ChartSvc {
	if len(roots) == 0 {
		roots = domain.DefaultChart()
	}
	svc := &chartService{roots: make(map[string]domain.Account, len(roots))}
	for _, r := range roots {
		svc.roots[r.Code] = r
		svc.ordered = append(svc.ordered, r)
	}
	sort.Slice(svc.ordered, func(i, j int) bool { return svc.ordered[i].Code < svc.ordered[j].Code })
	return svc
}

var _ portssvc.ChartSvc = (*chartService)(nil)

// ResolveAccount returns the account for code, synthesizing sub-ledgers from their root.
func (s *chartService) ResolveAccount(code string) (domain.Account, error) {
	key, err := domain.ParseAccountCode(code)
	if err != nil {
		return domain.Account{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidAccount, err)
	}
	root, ok := s.roots[key.RootCode]
	if !ok {
		return domain.Account{}, fmt.Errorf("%w: %q in account %q", apperrors.ErrUnknownRoot, key.RootCode, code)
	}
	if key.EntityID == "" {
		return root, nil
	}
	return domain.Account{
		Code:     key.Code(),
		Name:     fmt.Sprintf("%s - %s", root.Name, key.EntityID),
		Type:     root.Type,
		RootCode: root.Code,
		EntityID: key.EntityID,
	}, nil
}

// ListRoots returns the root accounts sorted by code.
func (s *chartService) ListRoots() []domain.Account {
	return append([]domain.Account(nil), s.ordered...)
}

// accountTypeOf adapts the chart to accounting.Balances.
func accountTypeOf(chart portssvc.ChartSvc) func(string) (domain.AccountType, bool) {
	return func(code string) (domain.AccountType, bool) {
		a, err := chart.ResolveAccount(code)
		if err != nil {
			return "", false
		}
		return a.Type, true
	}
}
