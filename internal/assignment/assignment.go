// Package assignment distributes scored accounts across operators using a
// capacity-aware round robin. Capacity is a soft target: when every operator
// is full, the account still lands on the least-loaded one, so no account is
// ever dropped or rejected.
package assignment

import (
	"math"
	"sort"

	"smartcollect/internal/domain"
	"smartcollect/internal/sla"
	"smartcollect/internal/strategy"
)

// Row is an account enriched with the derived strategy output, the resolved
// no-contact counter and the operator it was distributed to.
type Row struct {
	domain.Account
	strategy.Evaluation
	SuggestedMessage string `json:"suggested_message"`
	NoContactDays    int    `json:"no_contact_days"`
}

// OperatorStats aggregates one operator's share of the distribution.
type OperatorStats struct {
	Name           string  `json:"name"`
	Capacity       int     `json:"capacity"`
	AssignedCount  int     `json:"assigned_count"`
	TotalAmount    float64 `json:"total_amount"`
	AverageScore   int     `json:"average_score"`
	CriticalCount  int     `json:"critical_count"`
	SLABreachCount int     `json:"sla_breach_count"`
	TargetAmount   float64 `json:"target_amount"`
}

// KPIs are portfolio-wide figures over the distributed rows. EstimatedRecovery
// is an expected value (amount weighted by success probability), not a
// guarantee.
type KPIs struct {
	TotalAmount       float64 `json:"total_amount"`
	CriticalCount     int     `json:"critical_count"`
	SLABreachCount    int     `json:"sla_breach_count"`
	EstimatedRecovery float64 `json:"estimated_recovery"`
}

// Result is the full output of one distribution run.
type Result struct {
	Rows      []Row           `json:"rows"`
	Operators []OperatorStats `json:"operators"`
	KPIs      KPIs            `json:"kpis"`
}

type operatorState struct {
	cfg      domain.OperatorConfig
	used     int
	total    float64
	score    int
	critical int
	breaches int
}

// Enrich runs one account through the scoring engine and resolves its
// no-contact counter. The same enrichment backs table views and analytics.
func Enrich(a domain.Account) Row {
	ev := strategy.Evaluate(strategy.FromAccount(a))
	return Row{
		Account:          a,
		Evaluation:       ev,
		SuggestedMessage: strategy.BuildMessage(ev.Tier, a.Name, a.Amount),
		NoContactDays:    sla.Resolve(a.NoContactDays, a.DaysOverdue, a.ContactAttempts),
	}
}

// Distribute scores every account, orders them by descending score and walks
// operators round robin, skipping full ones for at most one lap before
// overflowing onto the least-loaded operator. The cursor advances after every
// assignment regardless of where the account landed, so the rotation keeps
// cycling even under overflow.
//
// An empty operator list short-circuits to an empty result; an empty account
// list yields empty outputs with zero KPIs.
func Distribute(accounts []domain.Account, operators []domain.OperatorConfig, policy sla.Policy) Result {
	if len(operators) == 0 {
		return Result{}
	}

	ops := make([]*operatorState, len(operators))
	for i, cfg := range operators {
		ops[i] = &operatorState{cfg: cfg}
	}

	enriched := make([]Row, 0, len(accounts))
	for _, a := range accounts {
		enriched = append(enriched, Enrich(a))
	}
	// Stable: ties keep their pre-sort relative order.
	sort.SliceStable(enriched, func(i, j int) bool { return enriched[i].Score > enriched[j].Score })

	rows := make([]Row, 0, len(enriched))
	cursor := 0
	for _, row := range enriched {
		tries := 0
		for tries < len(ops) && ops[cursor].used >= ops[cursor].cfg.DailyCapacity {
			cursor = (cursor + 1) % len(ops)
			tries++
		}
		target := ops[cursor]
		if tries >= len(ops) {
			// Full lap found nobody free: overflow onto the least-loaded.
			target = ops[0]
			for _, op := range ops[1:] {
				if op.used < target.used {
					target = op
				}
			}
		}

		row.Operator = target.cfg.Name
		rows = append(rows, row)
		target.used++
		target.total += row.Amount
		target.score += row.Score
		if row.Tier == strategy.TierCritical {
			target.critical++
		}
		if policy.Breached(row.Tier, row.NoContactDays) {
			target.breaches++
		}

		cursor = (cursor + 1) % len(ops)
	}

	res := Result{Rows: rows}
	for _, op := range ops {
		avg := 0
		if op.used > 0 {
			avg = int(math.Round(float64(op.score) / float64(op.used)))
		}
		res.Operators = append(res.Operators, OperatorStats{
			Name:           op.cfg.Name,
			Capacity:       op.cfg.DailyCapacity,
			AssignedCount:  op.used,
			TotalAmount:    op.total,
			AverageScore:   avg,
			CriticalCount:  op.critical,
			SLABreachCount: op.breaches,
			TargetAmount:   op.cfg.TargetAmount,
		})
	}

	for _, row := range res.Rows {
		res.KPIs.TotalAmount += row.Amount
		if row.Tier == strategy.TierCritical {
			res.KPIs.CriticalCount++
		}
		if policy.Breached(row.Tier, row.NoContactDays) {
			res.KPIs.SLABreachCount++
		}
		res.KPIs.EstimatedRecovery += row.Amount * float64(row.SuccessProbability) / 100
	}
	return res
}
