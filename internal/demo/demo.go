// Package demo produces realistic sample portfolios and simulates the remote
// portfolio feed, so the dashboard is usable before any real import happens.
package demo

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"strconv"
	"time"

	"smartcollect/internal/domain"
)

var firstNames = []string{
	"Mariana", "Carlos", "Fernanda", "Rafael", "Julia", "Bruno", "Camila", "Diego", "Larissa", "Pedro",
	"Ana", "Lucas", "Beatriz", "Gustavo", "Amanda", "João", "Paula", "Felipe", "Renata", "Thiago",
}

var lastNames = []string{
	"Silva", "Santos", "Oliveira", "Souza", "Lima", "Pereira", "Costa", "Rodrigues", "Almeida", "Nascimento",
}

var operators = []string{"Abner", "João", "Larissa"}

var statuses = []string{
	domain.StatusOpen, domain.StatusNegotiating, domain.StatusPromised,
	domain.StatusNoContact, domain.StatusPaid,
}

// Generate builds count demo accounts. Pass a seeded *rand.Rand for
// reproducible output; nil falls back to a time-seeded source.
func Generate(count int, r *rand.Rand) []domain.Account {
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if count <= 0 {
		count = 50
	}
	pick := func(list []string) string { return list[r.Intn(len(list))] }
	randInt := func(min, max int) int { return r.Intn(max-min+1) + min }

	rows := make([]domain.Account, 0, count)
	for i := 0; i < count; i++ {
		days := randInt(0, 120)
		amount := math.Round((float64(randInt(80, 15000))+r.Float64())*100) / 100

		history := domain.HistoryGood
		switch h := r.Float64(); {
		case h > 0.75:
			history = domain.HistoryBad
		case h > 0.35:
			history = domain.HistoryMedium
		}

		status := pick(statuses)
		if days == 0 {
			status = domain.StatusPaid
		}

		attempts := randInt(0, 5)
		noContact := randInt(0, 14)
		if status == domain.StatusPaid {
			attempts = randInt(0, 2)
			noContact = 0
		}

		rows = append(rows, domain.Account{
			ID:              strconv.Itoa(i + 1),
			Name:            pick(firstNames) + " " + pick(lastNames),
			TaxID:           randomCPF(r),
			DaysOverdue:     days,
			Amount:          amount,
			RepeatOffender:  r.Float64() > 0.7,
			History:         history,
			ContactAttempts: attempts,
			Status:          status,
			Operator:        pick(operators),
			NoContactDays:   &noContact,
		})
	}
	return rows
}

func randomCPF(r *rand.Rand) string {
	d := func() int { return r.Intn(10) }
	return fmt.Sprintf("%d%d%d.%d%d%d.%d%d%d-%d%d", d(), d(), d(), d(), d(), d(), d(), d(), d(), d(), d())
}

// Fetcher simulates the remote portfolio feed: an artificial delay followed
// by the base portfolio with a small amount jitter, so repeated fetches look
// alive. There is no cancellation beyond ctx; a re-invocation simply starts a
// new independent wait.
type Fetcher struct {
	Base  []domain.Account
	Delay time.Duration
	Rand  *rand.Rand
}

// Fetch waits the configured delay (default 600ms-1.2s) and returns a
// jittered copy of the base portfolio.
func (f Fetcher) Fetch(ctx context.Context) ([]domain.Account, error) {
	r := f.Rand
	if r == nil {
		r = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	delay := f.Delay
	if delay <= 0 {
		delay = time.Duration(600+r.Intn(601)) * time.Millisecond
	}
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}

	out := make([]domain.Account, len(f.Base))
	for i, a := range f.Base {
		jitter := (r.Float64() - 0.5) * 0.06 // -3% to +3%
		amount := a.Amount * (1 + jitter)
		if amount < 50 {
			amount = 50
		}
		a.Amount = math.Round(amount*100) / 100
		if a.NoContactDays != nil && r.Float64() > 0.7 {
			n := *a.NoContactDays + 1
			a.NoContactDays = &n
		}
		out[i] = a
	}
	return out, nil
}
