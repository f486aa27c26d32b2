// Package export renders a statement session snapshot as a downloadable
// document: a CSV stream or an XLSX workbook.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/hisabat/pos_backend/internal/core/services"
)

const dateLayout = "2006-01-02"

var columnHeaders = []string{"Date", "Description", "Reference", "Payment Method", "Debit", "Credit", "Balance"}

func customerName(snapshot services.StatementSnapshot) string {
	if snapshot.Customer == nil {
		return ""
	}
	return snapshot.Customer.Name
}

func periodLabel(snapshot services.StatementSnapshot) string {
	switch {
	case snapshot.DateFrom != nil && snapshot.DateTo != nil:
		return snapshot.DateFrom.Format(dateLayout) + " to " + snapshot.DateTo.Format(dateLayout)
	case snapshot.DateFrom != nil:
		return "from " + snapshot.DateFrom.Format(dateLayout)
	case snapshot.DateTo != nil:
		return "until " + snapshot.DateTo.Format(dateLayout)
	default:
		return "all history"
	}
}

// WriteCSV streams the statement as CSV: a header block, the column headers,
// an opening-balance row, one row per entry and a totals row.
func WriteCSV(w io.Writer, snapshot services.StatementSnapshot) error {
	cw := csv.NewWriter(w)

	headerBlock := [][]string{
		{"Customer Statement"},
		{"Customer", customerName(snapshot)},
		{"Period", periodLabel(snapshot)},
		{"Printed", time.Now().Format(dateLayout)},
		{},
		columnHeaders,
		{"", "Opening Balance", "", "", "", "", snapshot.OpeningBalance.StringFixed(2)},
	}
	for _, row := range headerBlock {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write statement header: %w", err)
		}
	}

	for _, entry := range snapshot.Entries {
		row := []string{
			entry.Date.Format(dateLayout),
			entry.Description,
			entry.ReferenceNumber,
			entry.PaymentMethod,
			entry.Debit.StringFixed(2),
			entry.Credit.StringFixed(2),
			entry.RunningBalance.StringFixed(2),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write statement row: %w", err)
		}
	}

	totals := []string{
		"", "Totals", "", "",
		snapshot.TotalDebit.StringFixed(2),
		snapshot.TotalCredit.StringFixed(2),
		snapshot.CurrentBalance.StringFixed(2),
	}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("failed to write statement totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX renders the statement as a single-sheet workbook with the same
// layout as the CSV export.
func WriteXLSX(w io.Writer, snapshot services.StatementSnapshot) error {
	f := excelize.NewFile()
	defer func() {
		_ = f.Close()
	}()

	const sheet = "Statement"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create statement sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	setRow := func(row int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := setRow(1, []interface{}{"Customer Statement"}); err != nil {
		return fmt.Errorf("failed to write workbook title: %w", err)
	}
	if err := setRow(2, []interface{}{"Customer", customerName(snapshot)}); err != nil {
		return fmt.Errorf("failed to write customer row: %w", err)
	}
	if err := setRow(3, []interface{}{"Period", periodLabel(snapshot)}); err != nil {
		return fmt.Errorf("failed to write period row: %w", err)
	}
	if err := setRow(4, []interface{}{"Printed", time.Now().Format(dateLayout)}); err != nil {
		return fmt.Errorf("failed to write printed row: %w", err)
	}

	headers := make([]interface{}, len(columnHeaders))
	for i, h := range columnHeaders {
		headers[i] = h
	}
	if err := setRow(6, headers); err != nil {
		return fmt.Errorf("failed to write column headers: %w", err)
	}

	openingBalance, _ := snapshot.OpeningBalance.Float64()
	if err := setRow(7, []interface{}{"", "Opening Balance", "", "", "", "", openingBalance}); err != nil {
		return fmt.Errorf("failed to write opening balance row: %w", err)
	}

	row := 8
	for _, entry := range snapshot.Entries {
		debit, _ := entry.Debit.Float64()
		credit, _ := entry.Credit.Float64()
		balance, _ := entry.RunningBalance.Float64()
		if err := setRow(row, []interface{}{
			entry.Date.Format(dateLayout),
			entry.Description,
			entry.ReferenceNumber,
			entry.PaymentMethod,
			debit,
			credit,
			balance,
		}); err != nil {
			return fmt.Errorf("failed to write entry row %d: %w", row, err)
		}
		row++
	}

	totalDebit, _ := snapshot.TotalDebit.Float64()
	totalCredit, _ := snapshot.TotalCredit.Float64()
	currentBalance, _ := snapshot.CurrentBalance.Float64()
	if err := setRow(row, []interface{}{"", "Totals", "", "", totalDebit, totalCredit, currentBalance}); err != nil {
		return fmt.Errorf("failed to write totals row: %w", err)
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
