// Package importer maps arbitrary spreadsheet columns onto canonical account
// fields, coerces values and validates the result before it enters the
// portfolio. Decoding of the file itself lives behind the Source interface.
package importer

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"smartcollect/internal/domain"
)

// Canonical import fields.
const (
	FieldName            = "name"
	FieldTaxID           = "tax_id"
	FieldDaysOverdue     = "days_overdue"
	FieldAmount          = "amount"
	FieldHistory         = "history"
	FieldRepeatOffender  = "repeat_offender"
	FieldContactAttempts = "contact_attempts"
	FieldStatus          = "status"
	FieldOperator        = "operator"
	FieldNoContactDays   = "no_contact_days"
)

// Fields lists the canonical fields in display order.
var Fields = []string{
	FieldName, FieldTaxID, FieldDaysOverdue, FieldAmount, FieldHistory,
	FieldRepeatOffender, FieldContactAttempts, FieldStatus, FieldOperator,
	FieldNoContactDays,
}

// Mapping pairs each canonical field with a source header name. An empty
// value means the field is unmapped and will take its default.
type Mapping map[string]string

// synonyms, per canonical field. Portuguese aliases come from the
// spreadsheets this system typically ingests.
var synonyms = map[string][]string{
	FieldName:            {"name", "client", "customer", "nome", "cliente", "razao social", "devedor"},
	FieldTaxID:           {"tax id", "taxid", "cpf", "cnpj", "documento", "doc", "cnpjcpf", "cpfcnpj"},
	FieldDaysOverdue:     {"days overdue", "overdue", "dias", "dias atraso", "atraso", "dias_em_atraso"},
	FieldAmount:          {"amount", "value", "balance", "valor", "valor aberto", "saldo", "valor_em_aberto", "vlr"},
	FieldHistory:         {"history", "profile", "historico", "perfil", "cluster"},
	FieldRepeatOffender:  {"repeat", "repeat offender", "reincidente", "recorrente", "reincidencia"},
	FieldContactAttempts: {"attempts", "contact attempts", "tentativas", "tentativas contato", "qtde contatos"},
	FieldStatus:          {"status", "situacao", "stage"},
	FieldOperator:        {"operator", "agent", "operador", "responsavel", "agente"},
	FieldNoContactDays:   {"no contact days", "sla days", "sla", "sem contato dias", "dias sem contato"},
}

// InferMapping proposes a best-effort default mapping from raw header names.
// Headers are normalized (lowercased, diacritics and whitespace stripped) and
// matched against the synonym table: exact match first, then substring
// containment. First match wins; unresolved fields stay empty.
func InferMapping(headers []string) Mapping {
	type header struct{ raw, key string }
	hs := make([]header, 0, len(headers))
	for _, h := range headers {
		hs = append(hs, header{raw: h, key: normalizeHeader(h)})
	}

	pick := func(candidates []string) string {
		for _, cand := range candidates {
			key := normalizeHeader(cand)
			for _, h := range hs {
				if h.key == key {
					return h.raw
				}
			}
		}
		for _, cand := range candidates {
			key := normalizeHeader(cand)
			for _, h := range hs {
				if strings.Contains(h.key, key) {
					return h.raw
				}
			}
		}
		return ""
	}

	m := Mapping{}
	for _, f := range Fields {
		m[f] = pick(synonyms[f])
	}
	return m
}

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeHeader(s string) string {
	out, _, err := transform.String(stripMarks, strings.ToLower(s))
	if err != nil {
		out = strings.ToLower(s)
	}
	return strings.Join(strings.Fields(out), "")
}

// Normalize coerces raw rows into account records using the given mapping.
// Every field degrades to a safe default on bad input; normalization never
// fails.
func Normalize(rows []map[string]string, mapping Mapping) []domain.Account {
	get := func(row map[string]string, field string) string {
		header := mapping[field]
		if header == "" {
			return ""
		}
		return row[header]
	}

	out := make([]domain.Account, 0, len(rows))
	for i, row := range rows {
		name := strings.TrimSpace(get(row, FieldName))
		if name == "" {
			name = fmt.Sprintf("Client %d", i+1)
		}
		status := strings.TrimSpace(get(row, FieldStatus))
		if status == "" {
			status = domain.StatusOpen
		}
		a := domain.Account{
			ID:              strconv.Itoa(i + 1),
			Name:            name,
			TaxID:           strings.TrimSpace(get(row, FieldTaxID)),
			DaysOverdue:     parseIntSafe(get(row, FieldDaysOverdue)),
			Amount:          parseNumber(get(row, FieldAmount)),
			History:         normalizeHistory(get(row, FieldHistory)),
			RepeatOffender:  parseBool(get(row, FieldRepeatOffender)),
			ContactAttempts: parseIntSafe(get(row, FieldContactAttempts)),
			Status:          status,
			Operator:        strings.TrimSpace(get(row, FieldOperator)),
		}
		if mapping[FieldNoContactDays] != "" {
			if raw := strings.TrimSpace(get(row, FieldNoContactDays)); raw != "" {
				n := parseIntSafe(raw)
				a.NoContactDays = &n
			}
		}
		out = append(out, a)
	}
	return out
}

// parseNumber reads locale-formatted decimals: "." thousands separator, ","
// decimal separator, currency symbols stripped. Defaults to 0.
func parseNumber(v string) float64 {
	cleaned := strings.ReplaceAll(v, ".", "")
	cleaned = strings.ReplaceAll(cleaned, ",", ".")
	cleaned = strings.Map(func(r rune) rune {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			return r
		}
		return -1
	}, cleaned)
	n, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0
	}
	return n
}

// parseIntSafe reads the leading integer of a string ("12 dias" -> 12),
// defaulting to 0.
func parseIntSafe(v string) int {
	s := strings.TrimSpace(v)
	end := 0
	for i, r := range s {
		if i == 0 && (r == '-' || r == '+') {
			end = i + 1
			continue
		}
		if r < '0' || r > '9' {
			break
		}
		end = i + 1
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

func parseBool(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "sim", "1", "yes":
		return true
	}
	return false
}

// normalizeHistory folds free text onto the closed history-class set.
// Unrecognized or empty input defaults to medium, the neutral class.
func normalizeHistory(v string) string {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "good", "bom", "boa", "alto", "high":
		return domain.HistoryGood
	case "bad", "ruim", "baixo", "low":
		return domain.HistoryBad
	default:
		return domain.HistoryMedium
	}
}
