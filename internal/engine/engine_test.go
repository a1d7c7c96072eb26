package engine_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"smartcollect/internal/db"
	"smartcollect/internal/domain"
	"smartcollect/internal/engine"
	"smartcollect/internal/importer"
	"smartcollect/internal/migrate"
	"smartcollect/internal/promises"
	"smartcollect/internal/repo"
)

type testEnv struct {
	Engine engine.Engine
	Ctx    context.Context
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	dir := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: dir})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	if err := migrate.Migrate(conn); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	eng := engine.New(conn)
	eng.Now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.Local) }
	eng.Rand = rand.New(rand.NewSource(1))
	return testEnv{Engine: eng, Ctx: context.Background()}
}

func seedAccounts(t *testing.T, env testEnv, accounts ...domain.Account) {
	t.Helper()
	if err := env.Engine.ReplacePortfolio(env.Ctx, accounts, "tester", "test"); err != nil {
		t.Fatalf("seed accounts: %v", err)
	}
}

func TestPromiseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env, domain.Account{ID: "1", Name: "Mariana Silva", Status: domain.StatusOpen})

	p, err := env.Engine.CreatePromise(env.Ctx, "1", engine.PromiseOptions{
		Amount: 450, Date: "2024-03-20", Channel: "WhatsApp", Note: "  agreed on call  ",
	}, "tester")
	if err != nil {
		t.Fatalf("create promise: %v", err)
	}
	if p.Status != domain.PromiseOpen || p.AccountID != "1" || p.Note != "agreed on call" {
		t.Fatalf("created promise: %+v", p)
	}

	p, err = env.Engine.EditPromise(env.Ctx, p.ID, engine.PromiseOptions{Amount: 500, Date: "2024-03-22"}, "tester")
	if err != nil {
		t.Fatalf("edit promise: %v", err)
	}
	if p.Amount != 500 || p.Date != "2024-03-22" {
		t.Fatalf("edit not applied: %+v", p)
	}

	p, err = env.Engine.PayPromise(env.Ctx, p.ID, "tester")
	if err != nil {
		t.Fatalf("pay promise: %v", err)
	}
	if p.Status != domain.PromisePaid || p.PaidAt == nil {
		t.Fatalf("paid promise: %+v", p)
	}

	// paid is terminal
	if _, err := env.Engine.EditPromise(env.Ctx, p.ID, engine.PromiseOptions{Amount: 1, Date: "2024-03-25"}, "tester"); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("edit after pay: want ErrInvalidTransition, got %v", err)
	}
	if _, err := env.Engine.PayPromise(env.Ctx, p.ID, "tester"); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("double pay: want ErrInvalidTransition, got %v", err)
	}
	if _, err := env.Engine.CancelPromise(env.Ctx, p.ID, "tester"); !errors.Is(err, engine.ErrInvalidTransition) {
		t.Fatalf("cancel after pay: want ErrInvalidTransition, got %v", err)
	}

	second, err := env.Engine.CreatePromise(env.Ctx, "1", engine.PromiseOptions{Amount: 100, Date: "2024-04-01"}, "tester")
	if err != nil {
		t.Fatal(err)
	}
	second, err = env.Engine.CancelPromise(env.Ctx, second.ID, "tester")
	if err != nil || second.Status != domain.PromiseCanceled {
		t.Fatalf("cancel open promise: %+v, err %v", second, err)
	}

	if _, err := env.Engine.PayPromise(env.Ctx, "nope", "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown promise: want ErrNotFound, got %v", err)
	}
}

func TestCreatePromiseValidation(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env, domain.Account{ID: "1", Name: "Mariana Silva"})

	if _, err := env.Engine.CreatePromise(env.Ctx, "1", engine.PromiseOptions{Amount: 0, Date: "2024-03-20"}, "tester"); err == nil {
		t.Fatalf("zero amount accepted")
	}
	if _, err := env.Engine.CreatePromise(env.Ctx, "1", engine.PromiseOptions{Amount: 50, Date: "20/03/2024"}, "tester"); err == nil {
		t.Fatalf("non-ISO date accepted")
	}
	if _, err := env.Engine.CreatePromise(env.Ctx, "99", engine.PromiseOptions{Amount: 50, Date: "2024-03-20"}, "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown account: want ErrNotFound, got %v", err)
	}
}

func TestRegisterContactSideEffects(t *testing.T) {
	env := newTestEnv(t)
	nc := 9
	seedAccounts(t, env, domain.Account{
		ID: "1", Name: "Carlos Souza", Status: domain.StatusNoContact,
		ContactAttempts: 2, NoContactDays: &nc,
	})

	a, err := env.Engine.RegisterContact(env.Ctx, "1", "", "answered, will pay friday", "tester")
	if err != nil {
		t.Fatalf("register contact: %v", err)
	}
	if a.Status != domain.StatusOpen {
		t.Fatalf("no-contact status not cleared: %q", a.Status)
	}
	if a.ContactAttempts != 3 {
		t.Fatalf("attempts = %d", a.ContactAttempts)
	}
	if a.NoContactDays == nil || *a.NoContactDays != 0 {
		t.Fatalf("no-contact counter not reset: %v", a.NoContactDays)
	}
	if len(a.Contacts) != 1 || a.Contacts[0].Channel != "WhatsApp" {
		t.Fatalf("contact not appended with default channel: %+v", a.Contacts)
	}

	if _, err := env.Engine.RegisterContact(env.Ctx, "1", "Phone", "   ", "tester"); err == nil {
		t.Fatalf("blank note accepted")
	}
}

func TestSetStatus(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env, domain.Account{ID: "1", Name: "Julia Lima", Status: domain.StatusOpen})

	a, err := env.Engine.SetStatus(env.Ctx, "1", domain.StatusNegotiating, "tester")
	if err != nil || a.Status != domain.StatusNegotiating {
		t.Fatalf("set status: %+v, err %v", a, err)
	}
	got, _ := env.Engine.Portfolio(env.Ctx)
	if got[0].Status != domain.StatusNegotiating {
		t.Fatalf("status not persisted: %q", got[0].Status)
	}

	if _, err := env.Engine.SetStatus(env.Ctx, "1", "  ", "tester"); err == nil {
		t.Fatalf("blank status accepted")
	}
	if _, err := env.Engine.SetStatus(env.Ctx, "99", domain.StatusPaid, "tester"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown account: want ErrNotFound, got %v", err)
	}
}

func TestSeedDemoPersistsPortfolio(t *testing.T) {
	env := newTestEnv(t)
	accounts, err := env.Engine.SeedDemo(env.Ctx, 12, "tester")
	if err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	if len(accounts) != 12 {
		t.Fatalf("generated %d accounts", len(accounts))
	}
	stored, err := env.Engine.Portfolio(env.Ctx)
	if err != nil || len(stored) != 12 {
		t.Fatalf("stored %d accounts, err %v", len(stored), err)
	}

	events, err := env.Engine.Repo.ListAudit(env.Ctx, 1)
	if err != nil || len(events) != 1 || events[0].Type != "portfolio.seeded" {
		t.Fatalf("audit trail: %+v, err %v", events, err)
	}
}

func TestApplyImport(t *testing.T) {
	env := newTestEnv(t)
	mapping := importer.Mapping{
		importer.FieldName:        "Cliente",
		importer.FieldDaysOverdue: "Dias",
		importer.FieldAmount:      "Valor",
	}
	rows := []map[string]string{
		{"Cliente": "Mariana Silva", "Dias": "12", "Valor": "1.200,00"},
		{"Cliente": "X", "Dias": "4", "Valor": "300"},
	}

	report, err := env.Engine.ApplyImport(env.Ctx, rows, mapping, "tester")
	if err != nil {
		t.Fatalf("apply import: %v", err)
	}
	if len(report.Valid) != 1 || len(report.Invalid) != 1 {
		t.Fatalf("partition: %d valid, %d invalid", len(report.Valid), len(report.Invalid))
	}

	stored, _ := env.Engine.Portfolio(env.Ctx)
	if len(stored) != 1 || stored[0].Name != "Mariana Silva" || stored[0].Amount != 1200 {
		t.Fatalf("stored portfolio: %+v", stored)
	}
	saved, err := env.Engine.Repo.LoadMapping(env.Ctx)
	if err != nil || saved[importer.FieldName] != "Cliente" {
		t.Fatalf("mapping not saved as default: %v, err %v", saved, err)
	}
}

func TestApplyImportRejectsAllInvalid(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env, domain.Account{ID: "1", Name: "Keep Me", Status: domain.StatusOpen})

	mapping := importer.Mapping{importer.FieldName: "Cliente"}
	rows := []map[string]string{{"Cliente": "ab"}}
	if _, err := env.Engine.ApplyImport(env.Ctx, rows, mapping, "tester"); err == nil {
		t.Fatalf("expected error when no row is valid")
	}

	stored, _ := env.Engine.Portfolio(env.Ctx)
	if len(stored) != 1 || stored[0].Name != "Keep Me" {
		t.Fatalf("portfolio replaced despite failed import: %+v", stored)
	}
}

func TestFlatPromises(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env,
		domain.Account{ID: "1", Name: "Mariana Silva", Operator: "Abner", Promises: []domain.Promise{
			{ID: "p1", Amount: 200, Date: "2024-03-25", Status: domain.PromiseOpen},
			{ID: "p2", Amount: 150, Date: "2024-03-10", Status: domain.PromiseOpen},
		}},
		domain.Account{ID: "2", Name: "Carlos Souza", Promises: []domain.Promise{
			{ID: "p3", Amount: 300, Date: "2024-03-15", Status: domain.PromiseOpen},
		}},
	)

	flat, summary, err := env.Engine.FlatPromises(env.Ctx)
	if err != nil {
		t.Fatalf("flat promises: %v", err)
	}
	if len(flat) != 3 {
		t.Fatalf("flattened %d promises", len(flat))
	}
	// overdue first, then due today, future last
	if flat[0].ID != "p2" || flat[0].Classification != promises.Overdue {
		t.Fatalf("first row: %+v", flat[0])
	}
	if flat[1].ID != "p3" || flat[1].Classification != promises.DueToday {
		t.Fatalf("second row: %+v", flat[1])
	}
	if flat[2].ID != "p1" || flat[2].Classification != promises.Future {
		t.Fatalf("third row: %+v", flat[2])
	}
	if flat[1].AccountName != "Carlos Souza" {
		t.Fatalf("account context missing: %+v", flat[1])
	}
	// only p3 falls inside the next seven days
	if summary.SevenDayValue != 300 {
		t.Fatalf("seven-day value = %v", summary.SevenDayValue)
	}
}

func TestOverviewDistributions(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env,
		domain.Account{ID: "1", Name: "Aa Bb", DaysOverdue: 0, Status: domain.StatusPaid},
		domain.Account{ID: "2", Name: "Cc Dd", DaysOverdue: 7, Status: domain.StatusOpen},
		domain.Account{ID: "3", Name: "Ee Ff", DaysOverdue: 8, Status: domain.StatusOpen},
		domain.Account{ID: "4", Name: "Gg Hh", DaysOverdue: 61, Status: domain.StatusOpen},
	)

	overview, err := env.Engine.Overview(env.Ctx)
	if err != nil {
		t.Fatalf("overview: %v", err)
	}
	if overview.Accounts != 4 {
		t.Fatalf("accounts = %d", overview.Accounts)
	}

	aging := map[string]int{}
	for _, b := range overview.Aging {
		aging[b.Bucket] = b.Count
	}
	want := map[string]int{"0": 1, "1-7": 1, "8-15": 1, "60+": 1}
	for bucket, n := range want {
		if aging[bucket] != n {
			t.Fatalf("bucket %s = %d, want %d", bucket, aging[bucket], n)
		}
	}
	if aging["16-30"] != 0 || aging["31-60"] != 0 {
		t.Fatalf("empty buckets populated: %v", aging)
	}

	tiers := map[string]int{}
	for _, b := range overview.Tiers {
		tiers[b.Bucket] = b.Count
	}
	// 61 days scores 100 (Critical); 8 days scores 55 (Medium); the rest Low
	if tiers["Critical"] != 1 || tiers["Medium"] != 1 || tiers["Low"] != 2 {
		t.Fatalf("tier counts: %v", tiers)
	}
	if overview.Statuses[domain.StatusOpen] != 3 || overview.Statuses[domain.StatusPaid] != 1 {
		t.Fatalf("status counts: %v", overview.Statuses)
	}
}

func TestRefreshPortfolioJittersAmounts(t *testing.T) {
	env := newTestEnv(t)
	env.Engine.FetchDelay = time.Millisecond
	seedAccounts(t, env, domain.Account{ID: "1", Name: "Mariana Silva", Amount: 1000, Status: domain.StatusOpen})

	refreshed, err := env.Engine.RefreshPortfolio(env.Ctx, "tester")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(refreshed) != 1 {
		t.Fatalf("refreshed %d accounts", len(refreshed))
	}
	if refreshed[0].Amount < 970 || refreshed[0].Amount > 1030 {
		t.Fatalf("jitter out of range: %v", refreshed[0].Amount)
	}

	events, err := env.Engine.Repo.ListAudit(env.Ctx, 1)
	if err != nil || len(events) != 1 || events[0].Type != "portfolio.refreshed" {
		t.Fatalf("audit trail: %+v, err %v", events, err)
	}
}

func TestSuggestMessage(t *testing.T) {
	env := newTestEnv(t)
	seedAccounts(t, env, domain.Account{ID: "1", Name: "Mariana Silva", DaysOverdue: 65, Amount: 12000})

	msg, err := env.Engine.SuggestMessage(env.Ctx, "1", "WhatsApp")
	if err != nil {
		t.Fatalf("suggest message: %v", err)
	}
	if !strings.Contains(msg, "Mariana") || !strings.Contains(msg, "R$ 12.000,00") || !strings.Contains(msg, "65") {
		t.Fatalf("template not rendered: %q", msg)
	}
	if strings.Contains(msg, "{") {
		t.Fatalf("placeholder leaked: %q", msg)
	}

	// unmapped channel falls back to the built-in tier message
	fallback, err := env.Engine.SuggestMessage(env.Ctx, "1", "SMS")
	if err != nil {
		t.Fatalf("fallback message: %v", err)
	}
	if !strings.Contains(fallback, "Mariana") || fallback == msg {
		t.Fatalf("fallback message: %q", fallback)
	}

	if _, err := env.Engine.SuggestMessage(env.Ctx, "99", "WhatsApp"); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown account: want ErrNotFound, got %v", err)
	}
}
