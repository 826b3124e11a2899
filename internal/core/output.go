package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// CleanHeader is the header row of the clean table.
var CleanHeader = []string{ColAge, ColIncome, ColEmployed, ColCreditScore, ColLoanAmount, ColApproved}

// RejectedHeader is the header row of the rejects report.
var RejectedHeader = []string{"row_number", "reasons", "raw_row"}

// Separators used inside the rejects report cells.
const (
	ReasonSeparator = ";"
	RawSeparator    = "|"
)

// WriteClean writes the clean table, header first, with LF line endings.
func WriteClean(w io.Writer, records []CleanRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CleanHeader); err != nil {
		return fmt.Errorf("writing clean header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Cells()); err != nil {
			return fmt.Errorf("writing clean row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteRejected writes the rejects report, header first, with LF line endings.
func WriteRejected(w io.Writer, records []RejectedRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(RejectedHeader); err != nil {
		return fmt.Errorf("writing rejects header: %w", err)
	}
	for _, rec := range records {
		if err := cw.Write(rec.Cells()); err != nil {
			return fmt.Errorf("writing rejects row %d: %w", rec.RowNumber, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Cells returns the record as a rejects report row.
func (r RejectedRecord) Cells() []string {
	return []string{
		strconv.Itoa(r.RowNumber),
		strings.Join(r.Reasons, ReasonSeparator),
		strings.Join(r.Raw, RawSeparator),
	}
}
