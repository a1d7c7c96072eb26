package repo_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"smartcollect/internal/db"
	"smartcollect/internal/domain"
	"smartcollect/internal/importer"
	"smartcollect/internal/migrate"
	"smartcollect/internal/repo"
)

func newTestRepo(t *testing.T) (repo.Repo, context.Context) {
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
	return repo.Repo{DB: conn}, context.Background()
}

func TestPortfolioReplaceSemantics(t *testing.T) {
	r, ctx := newTestRepo(t)

	if _, err := r.LoadPortfolio(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("empty store: want ErrNotFound, got %v", err)
	}

	first := []domain.Account{{ID: "1", Name: "Mariana Silva", Status: domain.StatusOpen}}
	if err := r.SavePortfolio(ctx, first); err != nil {
		t.Fatalf("save portfolio: %v", err)
	}
	second := []domain.Account{
		{ID: "10", Name: "Carlos Souza", Status: domain.StatusOpen},
		{ID: "11", Name: "Julia Lima", Status: domain.StatusNegotiating},
	}
	if err := r.SavePortfolio(ctx, second); err != nil {
		t.Fatalf("replace portfolio: %v", err)
	}

	got, err := r.LoadPortfolio(ctx)
	if err != nil {
		t.Fatalf("load portfolio: %v", err)
	}
	if len(got) != 2 || got[0].ID != "10" || got[1].Name != "Julia Lima" {
		t.Fatalf("replace did not win wholesale: %+v", got)
	}

	if err := r.ClearPortfolio(ctx); err != nil {
		t.Fatalf("clear portfolio: %v", err)
	}
	if _, err := r.LoadPortfolio(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("after clear: want ErrNotFound, got %v", err)
	}
}

func TestUpdateAccount(t *testing.T) {
	r, ctx := newTestRepo(t)
	seed := []domain.Account{
		{ID: "1", Name: "Mariana Silva", Status: domain.StatusOpen},
		{ID: "2", Name: "Carlos Souza", Status: domain.StatusOpen},
	}
	if err := r.SavePortfolio(ctx, seed); err != nil {
		t.Fatal(err)
	}

	updated, err := r.UpdateAccount(ctx, "2", func(a *domain.Account) error {
		a.Status = domain.StatusPromised
		return nil
	})
	if err != nil {
		t.Fatalf("update account: %v", err)
	}
	if updated.Status != domain.StatusPromised {
		t.Fatalf("returned status = %q", updated.Status)
	}

	got, _ := r.LoadPortfolio(ctx)
	if got[0].Status != domain.StatusOpen || got[1].Status != domain.StatusPromised {
		t.Fatalf("persisted collection wrong: %+v", got)
	}

	if _, err := r.UpdateAccount(ctx, "99", func(a *domain.Account) error { return nil }); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("unknown account: want ErrNotFound, got %v", err)
	}

	boom := errors.New("boom")
	if _, err := r.UpdateAccount(ctx, "1", func(a *domain.Account) error { return boom }); !errors.Is(err, boom) {
		t.Fatalf("mutator error not propagated: %v", err)
	}
}

func TestLoadSettingsMissingYieldsDefaults(t *testing.T) {
	r, ctx := newTestRepo(t)
	s, err := r.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("load settings: %v", err)
	}
	if s.SLA.RiskDays != 7 || s.SLA.CriticalRiskDays != 3 {
		t.Fatalf("defaults not applied: %+v", s.SLA)
	}
	if len(s.Operators) == 0 {
		t.Fatalf("defaults carry no operators")
	}
}

func TestSaveSettingsRoundTrip(t *testing.T) {
	r, ctx := newTestRepo(t)
	s, _ := r.LoadSettings(ctx)
	s.SLA.RiskDays = 10
	if err := r.SaveSettings(ctx, s); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, err := r.LoadSettings(ctx)
	if err != nil {
		t.Fatalf("reload settings: %v", err)
	}
	if got.SLA.RiskDays != 10 {
		t.Fatalf("riskDays = %d", got.SLA.RiskDays)
	}

	s.SLA.RiskDays = 0
	if err := r.SaveSettings(ctx, s); err == nil {
		t.Fatalf("invalid settings accepted")
	}
}

func TestMappingDocument(t *testing.T) {
	r, ctx := newTestRepo(t)
	if _, err := r.LoadMapping(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("missing mapping: want ErrNotFound, got %v", err)
	}
	m := importer.Mapping{importer.FieldName: "Cliente", importer.FieldAmount: "Valor"}
	if err := r.SaveMapping(ctx, m); err != nil {
		t.Fatalf("save mapping: %v", err)
	}
	got, err := r.LoadMapping(ctx)
	if err != nil {
		t.Fatalf("load mapping: %v", err)
	}
	if got[importer.FieldName] != "Cliente" || got[importer.FieldAmount] != "Valor" {
		t.Fatalf("mapping round trip: %v", got)
	}
	if err := r.ClearMapping(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := r.LoadMapping(ctx); !errors.Is(err, repo.ErrNotFound) {
		t.Fatalf("after clear: want ErrNotFound, got %v", err)
	}
}

func TestAuditNewestFirstAndCapped(t *testing.T) {
	r, ctx := newTestRepo(t)
	total := repo.AuditCap + 25
	for i := 0; i < total; i++ {
		ev := domain.AuditEvent{
			ID:      fmt.Sprintf("ev-%d", i),
			TS:      fmt.Sprintf("2024-03-15T10:%02d:%02dZ", i/60, i%60),
			Type:    "test.event",
			Actor:   "tester",
			Message: fmt.Sprintf("event %d", i),
		}
		if err := r.AppendAudit(ctx, ev); err != nil {
			t.Fatalf("append %d: %v", i, err)
		}
	}

	all, err := r.ListAudit(ctx, 0)
	if err != nil {
		t.Fatalf("list audit: %v", err)
	}
	if len(all) != repo.AuditCap {
		t.Fatalf("retained %d events, want %d", len(all), repo.AuditCap)
	}
	if all[0].ID != fmt.Sprintf("ev-%d", total-1) {
		t.Fatalf("newest first violated: %s", all[0].ID)
	}
	// oldest retained entry is total-AuditCap
	if last := all[len(all)-1].ID; last != fmt.Sprintf("ev-%d", total-repo.AuditCap) {
		t.Fatalf("oldest retained = %s", last)
	}

	few, err := r.ListAudit(ctx, 5)
	if err != nil || len(few) != 5 {
		t.Fatalf("limited list: %d events, err %v", len(few), err)
	}
}
