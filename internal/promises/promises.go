// Package promises classifies and aggregates payment promises (PDPs) for
// triage. Promises are stored nested under their accounts; the flat view here
// is a read-side join recomputed on every call, never persisted.
package promises

import (
	"math"
	"sort"
	"time"

	"smartcollect/internal/domain"
)

// Classification buckets, in display/triage order.
const (
	Overdue     = "overdue"
	DueToday    = "due_today"
	DueTomorrow = "due_tomorrow"
	DueThisWeek = "due_this_week"
	Future      = "future"
	Paid        = "paid"
	Canceled    = "canceled"
)

var displayOrder = map[string]int{
	Overdue:     0,
	DueToday:    1,
	DueTomorrow: 2,
	DueThisWeek: 3,
	Future:      4,
	Paid:        5,
	Canceled:    6,
}

// Order returns the triage rank of a classification (lower sorts first).
func Order(classification string) int {
	if n, ok := displayOrder[classification]; ok {
		return n
	}
	return len(displayOrder)
}

// Flat is a promise joined with denormalized context from its owning account.
type Flat struct {
	domain.Promise
	AccountName        string  `json:"account_name"`
	Operator           string  `json:"operator,omitempty"`
	AccountAmount      float64 `json:"account_amount"`
	AccountDaysOverdue int     `json:"account_days_overdue"`
	AccountStatus      string  `json:"account_status"`
	Classification     string  `json:"classification"`
}

// StartOfDay truncates a time to local midnight. Promise dates carry local
// calendar semantics, so day math stays in the wall-clock location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ParseDate parses an ISO yyyy-mm-dd date at local midnight.
func ParseDate(iso string) (time.Time, error) {
	d, err := time.ParseInLocation("2006-01-02", iso, time.Local)
	if err != nil {
		return time.Time{}, err
	}
	return d, nil
}

// DayDiff returns b-a in whole days. Rounding absorbs the off-by-an-hour
// deltas that DST transitions introduce between local midnights.
func DayDiff(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// Classify buckets one promise against "today" (truncated to start of day).
// Terminal statuses win regardless of date; unparsable dates fall through to
// Future, mirroring the permissive behavior of the rest of the pipeline.
func Classify(p domain.Promise, today time.Time) string {
	switch p.Status {
	case domain.PromisePaid:
		return Paid
	case domain.PromiseCanceled:
		return Canceled
	}
	due, err := ParseDate(p.Date)
	if err != nil {
		return Future
	}
	diff := DayDiff(StartOfDay(today), due)
	switch {
	case diff < 0:
		return Overdue
	case diff == 0:
		return DueToday
	case diff == 1:
		return DueTomorrow
	case diff <= 7:
		return DueThisWeek
	default:
		return Future
	}
}

// Flatten joins every promise in the portfolio with its account context and
// classifies it against today.
func Flatten(accounts []domain.Account, today time.Time) []Flat {
	var out []Flat
	for _, a := range accounts {
		for _, p := range a.Promises {
			if p.AccountID == "" {
				p.AccountID = a.ID
			}
			out = append(out, Flat{
				Promise:            p,
				AccountName:        a.Name,
				Operator:           a.Operator,
				AccountAmount:      a.Amount,
				AccountDaysOverdue: a.DaysOverdue,
				AccountStatus:      a.Status,
				Classification:     Classify(p, today),
			})
		}
	}
	return out
}

// Sort orders a flat list by triage rank, then promised date ascending.
// ISO dates compare correctly as strings.
func Sort(list []Flat) {
	sort.SliceStable(list, func(i, j int) bool {
		oi, oj := Order(list[i].Classification), Order(list[j].Classification)
		if oi != oj {
			return oi < oj
		}
		return list[i].Date < list[j].Date
	})
}

// Summary counts promises per classification bucket. SevenDayValue sums the
// promised amounts of non-paid promises due within the next seven days
// (today inclusive).
type Summary struct {
	Counts        map[string]int `json:"counts"`
	SevenDayValue float64        `json:"seven_day_value"`
}

// Summarize aggregates a flat promise list against today.
func Summarize(list []Flat, today time.Time) Summary {
	s := Summary{Counts: map[string]int{}}
	start := StartOfDay(today)
	for _, p := range list {
		s.Counts[p.Classification]++
		if p.Status == domain.PromisePaid {
			continue
		}
		due, err := ParseDate(p.Date)
		if err != nil {
			continue
		}
		if diff := DayDiff(start, due); diff >= 0 && diff <= 7 {
			s.SevenDayValue += p.Amount
		}
	}
	return s
}
