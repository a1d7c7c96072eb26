// Package sla models contact-recency risk: a proxy for days without contact,
// the SLA-breach predicate and the fixed aging buckets used by distribution
// reports. Every consumer (table views, assignment, analytics) must resolve
// the proxy through this package so the same account never yields divergent
// SLA readings.
package sla

import (
	"math"

	"smartcollect/internal/strategy"
)

// Default breach thresholds, overridable through settings.
const (
	DefaultRiskDays         = 7
	DefaultCriticalRiskDays = 3
)

// Policy carries the configurable breach thresholds.
type Policy struct {
	RiskDays         int `json:"risk_days" yaml:"riskDays"`
	CriticalRiskDays int `json:"critical_risk_days" yaml:"criticalRiskDays"`
}

// DefaultPolicy returns the stock thresholds.
func DefaultPolicy() Policy {
	return Policy{RiskDays: DefaultRiskDays, CriticalRiskDays: DefaultCriticalRiskDays}
}

// NoContactDays estimates days without contact when the account does not
// track it explicitly. This is a heuristic proxy, not measured time: half the
// overdue age plus one day per past attempt, capped at 45.
func NoContactDays(daysOverdue, contactAttempts int) int {
	if daysOverdue < 0 {
		daysOverdue = 0
	}
	if contactAttempts < 0 {
		contactAttempts = 0
	}
	n := int(math.Round(float64(daysOverdue)/2)) + contactAttempts
	if n < 0 {
		return 0
	}
	if n > 45 {
		return 45
	}
	return n
}

// Resolve returns the explicit no-contact counter when present, the proxy
// otherwise.
func Resolve(explicit *int, daysOverdue, contactAttempts int) int {
	if explicit != nil && *explicit >= 0 {
		return *explicit
	}
	return NoContactDays(daysOverdue, contactAttempts)
}

// Breached reports whether an account has gone without contact longer than
// its risk threshold. Critical-tier accounts breach on the tighter critical
// threshold as well.
func (p Policy) Breached(tier string, noContactDays int) bool {
	return noContactDays > p.RiskDays ||
		(tier == strategy.TierCritical && noContactDays > p.CriticalRiskDays)
}

// AgingBuckets lists the fixed delinquency-age bins in display order.
var AgingBuckets = []string{"0", "1-7", "8-15", "16-30", "31-60", "60+"}

// AgingBucket maps an overdue age onto exactly one bucket. Boundaries are
// inclusive on the upper edge.
func AgingBucket(daysOverdue int) string {
	switch {
	case daysOverdue <= 0:
		return "0"
	case daysOverdue <= 7:
		return "1-7"
	case daysOverdue <= 15:
		return "8-15"
	case daysOverdue <= 30:
		return "16-30"
	case daysOverdue <= 60:
		return "31-60"
	default:
		return "60+"
	}
}
