// Package export renders the portfolio as tabular files for download.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"smartcollect/internal/domain"
	"smartcollect/internal/sla"
)

// Headers is the column order shared by the CSV and XLSX writers.
var Headers = []string{
	"ID",
	"Name",
	"Tax ID",
	"Days Overdue",
	"Amount",
	"Status",
	"Operator",
	"No-Contact Days",
	"Contact Attempts",
	"Repeat Offender",
	"History",
	"Contacts",
}

const sheetName = "Portfolio"

// Rows flattens accounts into string records matching Headers.
func Rows(accounts []domain.Account) [][]string {
	out := make([][]string, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, []string{
			a.ID,
			a.Name,
			a.TaxID,
			strconv.Itoa(a.DaysOverdue),
			strconv.FormatFloat(a.Amount, 'f', 2, 64),
			a.Status,
			a.Operator,
			strconv.Itoa(sla.Resolve(a.NoContactDays, a.DaysOverdue, a.ContactAttempts)),
			strconv.Itoa(a.ContactAttempts),
			yesNo(a.RepeatOffender),
			a.History,
			strconv.Itoa(len(a.Contacts)),
		})
	}
	return out
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

// WriteCSV streams the portfolio as a header-plus-records CSV document.
func WriteCSV(w io.Writer, accounts []domain.Account) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Headers); err != nil {
		return err
	}
	for _, row := range Rows(accounts) {
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes a single-sheet workbook with the same columns as the CSV
// export.
func WriteXLSX(w io.Writer, accounts []domain.Account) error {
	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		return err
	}
	f.SetActiveSheet(idx)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return err
	}

	write := func(rownum int, values []string) error {
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, rownum)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheetName, cell, v); err != nil {
				return err
			}
		}
		return nil
	}

	if err := write(1, Headers); err != nil {
		return err
	}
	for i, row := range Rows(accounts) {
		if err := write(i+2, row); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}
