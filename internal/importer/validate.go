package importer

import (
	"strings"

	"smartcollect/internal/domain"
)

// RowError flags one invalid field on one normalized row.
type RowError struct {
	Row     int    `json:"row"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Report partitions normalized rows into valid and invalid. A row is invalid
// when it appears in at least one error; invalid rows are segregated, never
// dropped silently.
type Report struct {
	Valid   []domain.Account `json:"valid"`
	Invalid []domain.Account `json:"invalid"`
	Errors  []RowError       `json:"errors"`
}

// Validate checks normalized rows against the portfolio entry rules.
func Validate(rows []domain.Account) Report {
	var report Report
	bad := map[int]bool{}

	flag := func(i int, field, msg string) {
		report.Errors = append(report.Errors, RowError{Row: i, Field: field, Message: msg})
		bad[i] = true
	}

	for i, r := range rows {
		if len(strings.TrimSpace(r.Name)) < 3 {
			flag(i, FieldName, "name missing or too short")
		}
		if !taxIDLike(r.TaxID) {
			flag(i, FieldTaxID, "tax id must have 11 or 14 digits")
		}
		if r.DaysOverdue < 0 || r.DaysOverdue > 3650 {
			flag(i, FieldDaysOverdue, "days overdue out of range")
		}
		if r.Amount < 0 {
			flag(i, FieldAmount, "amount must be non-negative")
		}
		if r.ContactAttempts < 0 || r.ContactAttempts > 200 {
			flag(i, FieldContactAttempts, "contact attempts out of range")
		}
	}

	for i, r := range rows {
		if bad[i] {
			report.Invalid = append(report.Invalid, r)
		} else {
			report.Valid = append(report.Valid, r)
		}
	}
	return report
}

// taxIDLike accepts empty (the field is optional) or a CPF/CNPJ-sized digit
// string: 11 or 14 digits after stripping everything else. Format only, no
// checksum validation.
func taxIDLike(v string) bool {
	digits := 0
	for _, r := range v {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits == 0 {
		return true
	}
	return digits == 11 || digits == 14
}
