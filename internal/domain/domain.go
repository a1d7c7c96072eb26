package domain

// Account is a delinquent-debt record tracked for collection. Only the fields
// below are persisted; score, tier, recommended channel and the rest of the
// strategy output are recomputed from these on every read.
type Account struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	TaxID           string    `json:"tax_id,omitempty"`
	DaysOverdue     int       `json:"days_overdue"`
	Amount          float64   `json:"amount"`
	RepeatOffender  bool      `json:"repeat_offender"`
	History         string    `json:"history" enum:"good,medium,bad"`
	ContactAttempts int       `json:"contact_attempts"`
	Status          string    `json:"status"`
	Operator        string    `json:"operator,omitempty"`
	NoContactDays   *int      `json:"no_contact_days,omitempty"`
	Contacts        []Contact `json:"contacts,omitempty"`
	Promises        []Promise `json:"promises,omitempty"`
}

// Recognized account statuses. Status is persisted verbatim; unrecognized
// values are treated as StatusOpen wherever a closed set is needed.
const (
	StatusOpen        = "open"
	StatusNegotiating = "negotiating"
	StatusPromised    = "promised"
	StatusPaid        = "paid"
	StatusNoContact   = "no-contact"
)

// Payment-history classes.
const (
	HistoryGood   = "good"
	HistoryMedium = "medium"
	HistoryBad    = "bad"
)

// Contact is one outreach event. Immutable once appended; the contact list is
// append-only and its order is chronological.
type Contact struct {
	ID        string `json:"id"`
	Timestamp string `json:"ts" format:"date-time"`
	Channel   string `json:"channel"`
	Note      string `json:"note"`
}

// Promise statuses. Open is the only non-terminal state.
const (
	PromiseOpen     = "open"
	PromisePaid     = "paid"
	PromiseCanceled = "canceled"
)

// Promise is a debtor's commitment to pay an amount by a date. It lives
// inside its account's promise list; AccountID is a back-reference.
type Promise struct {
	ID        string  `json:"id"`
	AccountID string  `json:"account_id"`
	Amount    float64 `json:"amount"`
	Date      string  `json:"date"`
	Channel   string  `json:"channel,omitempty"`
	Note      string  `json:"note,omitempty"`
	Status    string  `json:"status" enum:"open,paid,canceled"`
	CreatedAt string  `json:"created_at" format:"date-time"`
	PaidAt    *string `json:"paid_at,omitempty" format:"date-time"`
}

// OperatorConfig is static per-operator capacity configuration. The pipeline
// never mutates it.
type OperatorConfig struct {
	Name          string  `json:"name" yaml:"name"`
	DailyCapacity int     `json:"daily_capacity" yaml:"daily_capacity"`
	TargetAmount  float64 `json:"target_amount" yaml:"target_amount"`
}

// AuditEvent is one entry in the capped, newest-first audit log.
type AuditEvent struct {
	ID      string `json:"id"`
	TS      string `json:"ts" format:"date-time"`
	Type    string `json:"type"`
	Actor   string `json:"actor"`
	Message string `json:"message"`
}
