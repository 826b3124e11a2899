// Package core provides the business logic for validating applicant datasets.
//
// This package is the heart of the pipeline, containing all domain logic
// independent of storage, notification or transport. It is used by the
// pipeline's validate stage, the HTTP validate endpoint and the CLI.
//
// # Field Rules
//
// Each column of the dataset is described by a [FieldRule]. The default rules
// are returned by [DefaultRules] in evaluation order:
//
//	Age          required, 2-3 digits, non-negative
//	Income       required, may be negative, any length
//	Employed     required, 0 or 1
//	CreditScore  required, 0-850 inclusive
//	LoanAmount   required, may be negative, any length
//	Approved     optional, 0 or 1, empty when absent
//
// # Header Detection
//
// Row 1 is a header when it names every required column; data columns are then
// resolved by name. Otherwise every row is data and columns are positional in
// rule order. With [Options.RequireHeader] set, row 1 is always a header and a
// missing required column fails with [*SchemaError].
//
// A blank line is a data row with no cells. Input must be UTF-8; a leading
// byte order mark is ignored.
//
// # Outputs
//
// [Validator.Validate] returns a [Result] that partitions the data rows into
// clean records and rejected records. [WriteClean] and [WriteRejected] render
// them as CSV. Rejected rows carry "Field:reason" codes joined by ";" and the
// raw row joined by "|".
//
// # Error Handling
//
// Technical errors are mapped to user-friendly messages using [MapError].
// Each error category has a unique code for support reference:
//
//   - VAL004: Missing required column
//   - FILE001-FILE005: File errors (size, format, encoding, empty)
//   - STG001-STG004: Staging and object storage errors
//   - RUN001-RUN004: Run errors (busy, not found, cancelled, timeout)
package core
