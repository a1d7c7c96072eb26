package engine

import (
	"context"

	"smartcollect/internal/assignment"
	"smartcollect/internal/demo"
	"smartcollect/internal/domain"
	"smartcollect/internal/sla"
	"smartcollect/internal/strategy"
)

// BucketCount is one bar of a distribution chart.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// Overview aggregates the portfolio for the dashboard charts: delinquency
// age distribution, priority tiers, workflow statuses and the headline KPIs.
type Overview struct {
	Accounts int             `json:"accounts"`
	Aging    []BucketCount   `json:"aging"`
	Tiers    []BucketCount   `json:"tiers"`
	Statuses map[string]int  `json:"statuses"`
	KPIs     assignment.KPIs `json:"kpis"`
}

// Overview recomputes the dashboard aggregates from the current portfolio.
func (e Engine) Overview(ctx context.Context) (Overview, error) {
	res, err := e.Distribute(ctx)
	if err != nil {
		return Overview{}, err
	}

	aging := map[string]int{}
	tiers := map[string]int{}
	statuses := map[string]int{}
	for _, row := range res.Rows {
		aging[sla.AgingBucket(row.DaysOverdue)]++
		tiers[row.Tier]++
		statuses[row.Status]++
	}

	out := Overview{
		Accounts: len(res.Rows),
		Statuses: statuses,
		KPIs:     res.KPIs,
	}
	for _, b := range sla.AgingBuckets {
		out.Aging = append(out.Aging, BucketCount{Bucket: b, Count: aging[b]})
	}
	for _, tier := range []string{strategy.TierCritical, strategy.TierHigh, strategy.TierMedium, strategy.TierLow} {
		out.Tiers = append(out.Tiers, BucketCount{Bucket: tier, Count: tiers[tier]})
	}
	return out, nil
}

// RefreshPortfolio re-reads the portfolio through the simulated remote feed
// and stores the jittered result, mimicking a fresh pull from the upstream
// collections system.
func (e Engine) RefreshPortfolio(ctx context.Context, actor string) ([]domain.Account, error) {
	accounts, err := e.Portfolio(ctx)
	if err != nil {
		return nil, err
	}
	fetcher := demo.Fetcher{Base: accounts, Delay: e.FetchDelay, Rand: e.Rand}
	refreshed, err := fetcher.Fetch(ctx)
	if err != nil {
		return nil, err
	}
	if err := e.Repo.SavePortfolio(ctx, refreshed); err != nil {
		return nil, err
	}
	if err := e.audit(ctx, "portfolio.refreshed", actor, "Portfolio refreshed from the remote feed."); err != nil {
		return nil, err
	}
	return refreshed, nil
}
