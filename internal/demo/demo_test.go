package demo_test

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"smartcollect/internal/demo"
	"smartcollect/internal/domain"
)

func TestGenerateShape(t *testing.T) {
	accounts := demo.Generate(30, rand.New(rand.NewSource(7)))
	if len(accounts) != 30 {
		t.Fatalf("generated %d accounts", len(accounts))
	}
	for _, a := range accounts {
		if a.ID == "" || a.Name == "" || a.Operator == "" {
			t.Fatalf("incomplete account: %+v", a)
		}
		if a.DaysOverdue < 0 || a.DaysOverdue > 120 {
			t.Fatalf("days out of range: %d", a.DaysOverdue)
		}
		if a.DaysOverdue == 0 && a.Status != domain.StatusPaid {
			t.Fatalf("zero-day account not paid: %+v", a)
		}
	}
}

func TestGenerateIsDeterministicPerSeed(t *testing.T) {
	a := demo.Generate(10, rand.New(rand.NewSource(42)))
	b := demo.Generate(10, rand.New(rand.NewSource(42)))
	for i := range a {
		if a[i].Name != b[i].Name || a[i].Amount != b[i].Amount {
			t.Fatalf("row %d diverged: %+v vs %+v", i, a[i], b[i])
		}
	}
}

func TestGenerateDefaultsCount(t *testing.T) {
	if got := len(demo.Generate(0, rand.New(rand.NewSource(1)))); got != 50 {
		t.Fatalf("default count = %d", got)
	}
}

func TestFetcherHonorsContext(t *testing.T) {
	f := demo.Fetcher{
		Base:  demo.Generate(5, rand.New(rand.NewSource(1))),
		Delay: time.Hour,
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := f.Fetch(ctx); err == nil {
		t.Fatalf("expected context error")
	}
}

func TestFetcherJittersWithinBounds(t *testing.T) {
	base := []domain.Account{{ID: "1", Name: "Mariana Silva", Amount: 1000}}
	f := demo.Fetcher{Base: base, Delay: time.Millisecond, Rand: rand.New(rand.NewSource(3))}
	out, err := f.Fetch(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("fetched %d accounts", len(out))
	}
	if out[0].Amount < 970 || out[0].Amount > 1030 {
		t.Fatalf("jitter out of range: %v", out[0].Amount)
	}
	if base[0].Amount != 1000 {
		t.Fatalf("base mutated: %v", base[0].Amount)
	}
}
