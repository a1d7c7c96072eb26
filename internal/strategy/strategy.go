// Package strategy turns raw account attributes into a collection strategy:
// a 0-100 priority score, a tier, a recommended channel and tone, a success
// probability and a suggested outreach message. Evaluate is pure and total;
// garbage inputs are coerced to safe defaults instead of failing.
package strategy

import (
	"fmt"
	"math"
	"strings"

	"smartcollect/internal/domain"
)

// Priority tiers, ordered Critical > High > Medium > Low.
const (
	TierLow      = "Low"
	TierMedium   = "Medium"
	TierHigh     = "High"
	TierCritical = "Critical"
)

// Score breakpoints for tier classification.
const (
	mediumThreshold   = 55
	highThreshold     = 70
	criticalThreshold = 85
)

// Input is the subset of account attributes the scorer reads.
type Input struct {
	DaysOverdue     int
	Amount          float64
	RepeatOffender  bool
	History         string
	ContactAttempts int
}

// Evaluation is the derived, never-persisted strategy output.
type Evaluation struct {
	Score              int    `json:"score"`
	Tier               string `json:"tier"`
	RecommendedChannel string `json:"recommended_channel"`
	Tone               string `json:"tone"`
	SuccessProbability int    `json:"success_probability"`
}

// FromAccount builds a scoring input from an account record.
func FromAccount(a domain.Account) Input {
	return Input{
		DaysOverdue:     a.DaysOverdue,
		Amount:          a.Amount,
		RepeatOffender:  a.RepeatOffender,
		History:         a.History,
		ContactAttempts: a.ContactAttempts,
	}
}

// Evaluate scores one account. The weights model three signals: overdue age
// and open amount push urgency up, while prior contact attempts pull it down
// (outreach fatigue).
func Evaluate(in Input) Evaluation {
	days := in.DaysOverdue
	if days < 0 {
		days = 0
	}
	amount := in.Amount
	if math.IsNaN(amount) || math.IsInf(amount, 0) || amount < 0 {
		amount = 0
	}
	attempts := in.ContactAttempts
	if attempts < 0 {
		attempts = 0
	}

	score := 35

	// Overdue age, cumulative steps.
	if days >= 3 {
		score += 8
	}
	if days >= 8 {
		score += 12
	}
	if days >= 15 {
		score += 12
	}
	if days >= 30 {
		score += 18
	}
	if days >= 60 {
		score += 15
	}

	// Open amount, cumulative steps.
	if amount >= 300 {
		score += 6
	}
	if amount >= 1000 {
		score += 10
	}
	if amount >= 5000 {
		score += 12
	}
	if amount >= 10000 {
		score += 10
	}

	if in.RepeatOffender {
		score += 12
	}

	switch normalizeHistory(in.History) {
	case domain.HistoryMedium:
		score += 6
	case domain.HistoryBad:
		score += 12
	}

	score -= attempts * 3
	score = clampInt(score, 0, 100)

	tier := TierLow
	switch {
	case score >= criticalThreshold:
		tier = TierCritical
	case score >= highThreshold:
		tier = TierHigh
	case score >= mediumThreshold:
		tier = TierMedium
	}

	return Evaluation{
		Score:              score,
		Tier:               tier,
		RecommendedChannel: channelFor(tier),
		Tone:               toneFor(tier),
		SuccessProbability: clampInt(int(math.Round(float64(score)*0.9+10)), 5, 95),
	}
}

func channelFor(tier string) string {
	switch tier {
	case TierMedium:
		return "WhatsApp + Call"
	case TierHigh:
		return "Call + WhatsApp"
	case TierCritical:
		return "Direct call"
	default:
		return "WhatsApp"
	}
}

func toneFor(tier string) string {
	switch tier {
	case TierMedium:
		return "Direct and objective"
	case TierHigh:
		return "Firm, never aggressive"
	case TierCritical:
		return "Firm and urgent"
	default:
		return "Light and friendly"
	}
}

// BuildMessage renders the tier-specific outreach message for a display name.
// The name is reduced to its first given name, matching how operators address
// debtors over chat.
func BuildMessage(tier, name string, amount float64) string {
	first := FirstName(name)
	if first == "" {
		first = "Hello"
	}
	money := FormatMoney(amount)
	switch tier {
	case TierMedium:
		return fmt.Sprintf("Hi %s. There is an open balance of %s on your account. Can you confirm a payment date today?", first, money)
	case TierHigh:
		return fmt.Sprintf("%s, good morning. We need to settle the pending %s to avoid service and registry impacts. What is the best time to close this today?", first, money)
	case TierCritical:
		return fmt.Sprintf("%s, good afternoon. Your pending balance of %s is severely overdue. We need an immediate payment confirmation or a negotiation now.", first, money)
	default:
		return fmt.Sprintf("Hi %s! I noticed a pending payment of %s. Can I help you settle it today?", first, money)
	}
}

// FirstName extracts the first given name from a full display name.
func FirstName(name string) string {
	fields := strings.Fields(strings.TrimSpace(name))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// FormatMoney renders an amount as Brazilian real, e.g. "R$ 1.234,56".
// Negative and non-finite inputs render as zero.
func FormatMoney(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		v = 0
	}
	cents := int64(math.Round(v * 100))
	whole := cents / 100
	frac := cents % 100

	digits := fmt.Sprintf("%d", whole)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}
	return fmt.Sprintf("R$ %s,%02d", b.String(), frac)
}

func normalizeHistory(h string) string {
	switch strings.ToLower(strings.TrimSpace(h)) {
	case domain.HistoryMedium:
		return domain.HistoryMedium
	case domain.HistoryBad:
		return domain.HistoryBad
	default:
		return domain.HistoryGood
	}
}

func clampInt(n, min, max int) int {
	if n < min {
		return min
	}
	if n > max {
		return max
	}
	return n
}
