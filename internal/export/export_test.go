package export_test

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/xuri/excelize/v2"

	"smartcollect/internal/domain"
	"smartcollect/internal/export"
)

func sampleAccounts() []domain.Account {
	nc := 2
	return []domain.Account{
		{
			ID: "1", Name: "Mariana Silva", TaxID: "52998224725",
			DaysOverdue: 20, Amount: 1234.5, RepeatOffender: true,
			History: domain.HistoryBad, ContactAttempts: 3,
			Status: domain.StatusNegotiating, Operator: "Abner",
			NoContactDays: &nc,
			Contacts:      []domain.Contact{{ID: "c1"}, {ID: "c2"}},
		},
		{ID: "2", Name: "Carlos Souza", DaysOverdue: 10, Amount: 300, Status: domain.StatusOpen},
	}
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, sampleAccounts()); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("got %d records", len(records))
	}
	if records[0][0] != "ID" || records[0][len(records[0])-1] != "Contacts" {
		t.Fatalf("header row: %v", records[0])
	}
	row := records[1]
	if row[1] != "Mariana Silva" || row[4] != "1234.50" || row[7] != "2" || row[9] != "Yes" || row[11] != "2" {
		t.Fatalf("first row: %v", row)
	}
	// second account has no explicit no-contact counter; the proxy applies
	if records[2][7] != "5" {
		t.Fatalf("proxied no-contact days: %v", records[2])
	}
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, sampleAccounts()); err != nil {
		t.Fatalf("write xlsx: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Portfolio")
	if err != nil {
		t.Fatalf("get rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("got %d rows", len(rows))
	}
	if rows[1][1] != "Mariana Silva" || rows[2][1] != "Carlos Souza" {
		t.Fatalf("data rows: %v", rows)
	}
}
