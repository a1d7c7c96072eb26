package assignment_test

import (
	"math"
	"testing"

	"smartcollect/internal/assignment"
	"smartcollect/internal/domain"
	"smartcollect/internal/sla"
)

func acct(id string, days int, amount float64) domain.Account {
	return domain.Account{ID: id, Name: "Account " + id, DaysOverdue: days, Amount: amount, Status: domain.StatusOpen}
}

func ops(caps ...int) []domain.OperatorConfig {
	out := make([]domain.OperatorConfig, len(caps))
	for i, c := range caps {
		out[i] = domain.OperatorConfig{Name: string(rune('A' + i)), DailyCapacity: c}
	}
	return out
}

func TestDistributeRoundRobin(t *testing.T) {
	accounts := []domain.Account{
		acct("a", 0, 0),  // score 35
		acct("b", 65, 0), // score 100
		acct("c", 30, 0), // score 85
		acct("d", 8, 0),  // score 55
	}
	res := assignment.Distribute(accounts, ops(2, 2), sla.DefaultPolicy())

	if len(res.Rows) != len(accounts) {
		t.Fatalf("rows = %d, want %d", len(res.Rows), len(accounts))
	}
	// Highest score first, operators alternating.
	wantIDs := []string{"b", "c", "d", "a"}
	wantOps := []string{"A", "B", "A", "B"}
	for i, r := range res.Rows {
		if r.ID != wantIDs[i] {
			t.Errorf("row %d id = %s, want %s", i, r.ID, wantIDs[i])
		}
		if r.Account.Operator != wantOps[i] {
			t.Errorf("row %d operator = %s, want %s", i, r.Account.Operator, wantOps[i])
		}
	}
	for _, op := range res.Operators {
		if op.AssignedCount != 2 {
			t.Errorf("operator %s assigned = %d, want 2", op.Name, op.AssignedCount)
		}
	}
}

func TestDistributeSkipsFullOperators(t *testing.T) {
	accounts := []domain.Account{
		acct("a", 65, 0),
		acct("b", 30, 0),
		acct("c", 8, 0),
	}
	res := assignment.Distribute(accounts, ops(1, 5), sla.DefaultPolicy())

	counts := map[string]int{}
	for _, r := range res.Rows {
		counts[r.Account.Operator]++
	}
	if counts["A"] != 1 || counts["B"] != 2 {
		t.Fatalf("counts = %v, want A:1 B:2", counts)
	}
}

func TestDistributeOverflowsOntoLeastLoaded(t *testing.T) {
	accounts := []domain.Account{
		acct("a", 65, 0),
		acct("b", 30, 0),
		acct("c", 8, 0),
	}
	res := assignment.Distribute(accounts, ops(1, 1), sla.DefaultPolicy())

	total := 0
	for _, op := range res.Operators {
		total += op.AssignedCount
	}
	if total != 3 {
		t.Fatalf("assigned total = %d, want all 3 accounts placed", total)
	}
	// Both at capacity, overflow row still lands somewhere.
	if res.Rows[2].Account.Operator == "" {
		t.Fatalf("overflow row has no operator")
	}
}

func TestDistributeEmptyOperators(t *testing.T) {
	res := assignment.Distribute([]domain.Account{acct("a", 10, 100)}, nil, sla.DefaultPolicy())
	if len(res.Rows) != 0 || len(res.Operators) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestDistributeEmptyAccounts(t *testing.T) {
	res := assignment.Distribute(nil, ops(3), sla.DefaultPolicy())
	if len(res.Rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(res.Rows))
	}
	if len(res.Operators) != 1 || res.Operators[0].AssignedCount != 0 {
		t.Fatalf("operators = %+v", res.Operators)
	}
	if res.KPIs.TotalAmount != 0 || res.KPIs.EstimatedRecovery != 0 {
		t.Fatalf("kpis = %+v, want zeroes", res.KPIs)
	}
}

func TestDistributeStableTies(t *testing.T) {
	accounts := []domain.Account{
		acct("first", 8, 0),
		acct("second", 8, 0),
	}
	res := assignment.Distribute(accounts, ops(5), sla.DefaultPolicy())
	if res.Rows[0].ID != "first" || res.Rows[1].ID != "second" {
		t.Fatalf("equal scores must keep input order: %s, %s", res.Rows[0].ID, res.Rows[1].ID)
	}
}

func TestDistributeKPIs(t *testing.T) {
	accounts := []domain.Account{
		acct("a", 65, 12000), // score 100, critical, probability 95
		acct("b", 0, 100),    // score 35, probability 42
	}
	res := assignment.Distribute(accounts, ops(10), sla.DefaultPolicy())

	if res.KPIs.TotalAmount != 12100 {
		t.Fatalf("total amount = %v", res.KPIs.TotalAmount)
	}
	if res.KPIs.CriticalCount != 1 {
		t.Fatalf("critical count = %d", res.KPIs.CriticalCount)
	}
	want := 12000*0.95 + 100*0.42
	if math.Abs(res.KPIs.EstimatedRecovery-want) > 1e-9 {
		t.Fatalf("estimated recovery = %v, want %v", res.KPIs.EstimatedRecovery, want)
	}
}

func TestEnrichResolvesNoContactProxy(t *testing.T) {
	row := assignment.Enrich(acct("a", 10, 500))
	if row.NoContactDays != 5 {
		t.Fatalf("no-contact proxy = %d, want 5", row.NoContactDays)
	}
	explicit := 2
	a := acct("b", 10, 500)
	a.NoContactDays = &explicit
	if got := assignment.Enrich(a).NoContactDays; got != 2 {
		t.Fatalf("explicit counter = %d, want 2", got)
	}
}
