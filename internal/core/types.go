package core

import "strconv"

// Column names of the applicant dataset.
const (
	ColAge         = "Age"
	ColIncome      = "Income"
	ColEmployed    = "Employed"
	ColCreditScore = "CreditScore"
	ColLoanAmount  = "LoanAmount"
	ColApproved    = "Approved"
)

// Credit score bounds, inclusive.
const (
	CreditScoreMin = 0
	CreditScoreMax = 850
)

// Reason codes recorded against a field as "Field:reason".
const (
	ReasonMissing            = "missing"
	ReasonNegativeNotAllowed = "negative_not_allowed"
	ReasonNotInteger         = "not_integer"
	ReasonNotZeroOrOne       = "not_0_or_1"
	ReasonOutOfRange         = "out_of_range"

	// ReasonRequiredMissing is the row-level fallback used only when no
	// field-specific reason was recorded.
	ReasonRequiredMissing = "required_missing"
)

// HeaderIndex maps column names to their position in the CSV row.
type HeaderIndex map[string]int

// Approved is the optional approval flag. The zero value is the empty marker.
type Approved struct {
	Value int64
	Set   bool
}

// ApprovedValue returns a set Approved flag.
func ApprovedValue(v int64) Approved {
	return Approved{Value: v, Set: true}
}

// String renders the flag as written to the clean table: "" when unset.
func (a Approved) String() string {
	if !a.Set {
		return ""
	}
	return strconv.FormatInt(a.Value, 10)
}

// CleanRecord is a row that passed every field rule. Income and LoanAmount
// are unbounded; the other fields are range-checked to fit an int64.
type CleanRecord struct {
	Age         int64
	Income      Integer
	Employed    int64
	CreditScore int64
	LoanAmount  Integer
	Approved    Approved
}

// Cells returns the record in clean-table column order.
func (r CleanRecord) Cells() []string {
	return []string{
		strconv.FormatInt(r.Age, 10),
		r.Income.String(),
		strconv.FormatInt(r.Employed, 10),
		strconv.FormatInt(r.CreditScore, 10),
		r.LoanAmount.String(),
		r.Approved.String(),
	}
}

// RejectedRecord is a row that failed at least one rule.
type RejectedRecord struct {
	RowNumber int      `json:"row_number"` // 1-based over data rows
	Reasons   []string `json:"reasons"`
	Raw       []string `json:"raw"`
}

// ValidationStats are the aggregate counts of one validation pass.
type ValidationStats struct {
	TotalRows    int `json:"total_rows_including_header"`
	DataRows     int `json:"data_rows_evaluated"`
	CleanRows    int `json:"clean_rows"`
	RejectedRows int `json:"rejected_rows"`
}

// Result is the output of Validator.Validate.
type Result struct {
	HasHeader bool
	Columns   HeaderIndex
	Clean     []CleanRecord
	Rejected  []RejectedRecord
	Stats     ValidationStats
}
