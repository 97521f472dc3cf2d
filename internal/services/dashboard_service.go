package services

import (
	"context"
	"fmt"
	"sort"

	"golang.org/x/sync/errgroup"

	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/store"
)

const recentInstallments = 10

// Dashboard is the aggregated read model served to clients.
type Dashboard struct {
	Accounts       []core.Account
	Balances       map[string]core.Money
	Total          core.Money
	CategoryTotals []core.CategoryAmount
	Recent         []core.Installment
}

// DashboardService builds the dashboard from a full snapshot of the
// store. The three collections are fetched concurrently.
type DashboardService struct {
	store  store.Store
	logger *log.Logger
}

func NewDashboardService(st store.Store, logger *log.Logger) *DashboardService {
	return &DashboardService{
		store:  st,
		logger: logger.WithComponent(log.ComponentDashboard),
	}
}

func (s *DashboardService) Snapshot(ctx context.Context) (Dashboard, error) {
	var (
		accounts     []core.Account
		installments []core.Installment
		categories   []core.Category
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		accounts, err = s.store.ListAccounts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		installments, err = s.store.ListInstallments(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		categories, err = s.store.ListCategories(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Dashboard{}, fmt.Errorf("fetch dashboard snapshot: %w", err)
	}

	summary := core.BuildSummary(accounts, installments, categories)

	recent := make([]core.Installment, len(installments))
	copy(recent, installments)
	sort.SliceStable(recent, func(i, j int) bool {
		return recent[i].Date.After(recent[j].Date.Time)
	})
	if len(recent) > recentInstallments {
		recent = recent[:recentInstallments]
	}

	s.logger.DebugContext(ctx, "Dashboard snapshot built",
		"accounts", len(accounts),
		"installments", len(installments))

	return Dashboard{
		Accounts:       accounts,
		Balances:       summary.Balances,
		Total:          summary.Total,
		CategoryTotals: summary.CategoryTotals,
		Recent:         recent,
	}, nil
}
