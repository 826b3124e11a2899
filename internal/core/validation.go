package core

// validation.go partitions a CSV table into clean and rejected rows.
//
// Validation happens at two levels:
//  1. Header detection: row 1 is a header only when it names every required
//     column; otherwise all rows are data and columns are positional.
//  2. Row evaluation: every cell is run through its FieldRule and the row is
//     routed to exactly one of the clean or rejected outputs.
//
// Row-level failures are data, not errors. Only an empty input, text that is
// not UTF-8, a malformed CSV stream, or a header lacking required columns
// abort validation.
//
// A blank line is a data row with no cells. It keeps its place in the row
// numbering and is rejected like any row missing its required fields.

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
)

// ErrEmptyInput is returned when the input contains no rows at all.
var ErrEmptyInput = errors.New("empty file: input CSV has no rows")

// SchemaError reports required columns absent from a detected header.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return "missing required columns: " + strings.Join(e.Missing, ", ")
}

// Options configures a Validator.
type Options struct {
	// RequireHeader treats row 1 as a header unconditionally. A header that
	// then lacks required columns fails with *SchemaError.
	RequireHeader bool

	// Rules overrides the field rules. Nil uses DefaultRules.
	Rules []FieldRule
}

// Validator classifies rows of the applicant dataset.
// It holds no per-run state and is safe for concurrent use.
type Validator struct {
	rules         []FieldRule
	required      []string
	requireHeader bool
}

// NewValidator creates a validator with the given options.
func NewValidator(opts Options) *Validator {
	rules := opts.Rules
	if rules == nil {
		rules = DefaultRules()
	}
	return &Validator{
		rules:         rules,
		required:      requiredNames(rules),
		requireHeader: opts.RequireHeader,
	}
}

// ValidateString validates CSV text held in memory.
func (v *Validator) ValidateString(text string) (*Result, error) {
	return v.Validate(strings.NewReader(text))
}

// Validate reads the whole table from r and partitions its rows.
// The input is decoded with DecodeText before parsing.
func (v *Validator) Validate(r io.Reader) (*Result, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	text, err := DecodeText(data)
	if err != nil {
		return nil, err
	}

	rows, err := readAll(text)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrEmptyInput
	}

	columns, hasHeader, err := v.resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}

	dataRows := rows
	if hasHeader {
		dataRows = rows[1:]
	}

	result := &Result{
		HasHeader: hasHeader,
		Columns:   columns,
		Clean:     make([]CleanRecord, 0, len(dataRows)),
	}

	for i, row := range dataRows {
		rec, reasons, ok := v.EvaluateRow(row, columns)
		if ok {
			result.Clean = append(result.Clean, rec)
			continue
		}
		result.Rejected = append(result.Rejected, RejectedRecord{
			RowNumber: i + 1,
			Reasons:   reasons,
			Raw:       slices.Clone(row),
		})
	}

	result.Stats = ValidationStats{
		TotalRows:    len(rows),
		DataRows:     len(dataRows),
		CleanRows:    len(result.Clean),
		RejectedRows: len(result.Rejected),
	}

	return result, nil
}

// resolveColumns decides whether first is a header and returns the
// column→position mapping to use for data rows.
func (v *Validator) resolveColumns(first []string) (HeaderIndex, bool, error) {
	idx := MakeHeaderIndex(trimCells(first))

	var missing []string
	for _, name := range v.required {
		if _, ok := idx[name]; !ok {
			missing = append(missing, name)
		}
	}

	if len(missing) == 0 {
		return idx, true, nil
	}
	if v.requireHeader {
		return nil, true, &SchemaError{Missing: missing}
	}

	return PositionalIndex(ruleNames(v.rules)), false, nil
}

// EvaluateRow runs every rule against row. It returns the clean record and
// true when the row passes; otherwise the reasons, in rule order, or the
// single ReasonRequiredMissing when no specific reason fired.
func (v *Validator) EvaluateRow(row []string, columns HeaderIndex) (CleanRecord, []string, bool) {
	var (
		rec             CleanRecord
		reasons         []string
		requiredMissing bool
	)

	for _, rule := range v.rules {
		raw, present := cell(row, columns, rule.Name)
		res := rule.Evaluate(raw, present)

		if res.Reason != "" {
			reasons = append(reasons, rule.Name+":"+res.Reason)
		}
		if rule.Required && !res.Usable {
			requiredMissing = true
		}
		if res.Usable {
			assign(&rec, rule.Name, res.Value)
		}
	}

	if len(reasons) > 0 {
		return CleanRecord{}, reasons, false
	}
	if requiredMissing {
		return CleanRecord{}, []string{ReasonRequiredMissing}, false
	}
	return rec, nil, true
}

// cell returns the raw value of a named column and whether the row has it.
func cell(row []string, columns HeaderIndex, name string) (string, bool) {
	pos, ok := columns[name]
	if !ok || pos >= len(row) {
		return "", false
	}
	return row[pos], true
}

// assign stores a parsed value on the record field named by column. Only
// values from passing rules reach the record, so the bounded fields fit an
// int64.
func assign(rec *CleanRecord, column string, v Integer) {
	n, _ := v.Int64()
	switch column {
	case ColAge:
		rec.Age = n
	case ColIncome:
		rec.Income = v
	case ColEmployed:
		rec.Employed = n
	case ColCreditScore:
		rec.CreditScore = n
	case ColLoanAmount:
		rec.LoanAmount = v
	case ColApproved:
		rec.Approved = ApprovedValue(n)
	}
}

// readAll parses the full CSV text. Rows may have differing lengths and bare
// quotes inside unquoted fields are tolerated.
//
// encoding/csv skips empty lines, so readAll puts them back as empty rows by
// inspecting the bytes between consecutive records.
func readAll(text []byte) ([][]string, error) {
	reader := csv.NewReader(bytes.NewReader(text))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		rows   [][]string
		offset int64
	)
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return nil, fmt.Errorf("invalid csv: %w", err)
			}
			return nil, fmt.Errorf("reading input: %w", err)
		}
		rows = appendBlankLines(rows, text[offset:])
		rows = append(rows, record)
		offset = reader.InputOffset()
	}
	return appendBlankLines(rows, text[offset:]), nil
}

// appendBlankLines appends an empty row for every empty line at the start
// of b.
func appendBlankLines(rows [][]string, b []byte) [][]string {
	for {
		switch {
		case bytes.HasPrefix(b, []byte("\n")):
			b = b[1:]
		case bytes.HasPrefix(b, []byte("\r\n")):
			b = b[2:]
		default:
			return rows
		}
		rows = append(rows, []string{})
	}
}
