package core

import (
	"bytes"
	"encoding/csv"
	"io"
	"strconv"
	"testing"
)

// ============================================================================
// Field Rule Benchmarks
// ============================================================================

// BenchmarkParseInteger benchmarks the integer parser across its branches.
// Every cell of every row goes through it.
func BenchmarkParseInteger(b *testing.B) {
	testCases := []struct {
		raw           string
		allowNegative bool
	}{
		{"34", false},
		{"  52000 ", true},
		{"-15000", true},
		{"-1", false},
		{"1.5", false},
		{"", false},
		{"99999999999999999999", true},
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		for _, tc := range testCases {
			ParseInteger(tc.raw, tc.allowNegative, 0, 0)
		}
	}
}

// BenchmarkEvaluateRow benchmarks one clean row against the default rules.
func BenchmarkEvaluateRow(b *testing.B) {
	v := NewValidator(Options{})
	row := []string{"34", "52000", "1", "710", "15000", "1"}
	columns := PositionalIndex(ruleNames(v.rules))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v.EvaluateRow(row, columns)
	}
}

// BenchmarkEvaluateRow_Rejected benchmarks a row failing several rules.
func BenchmarkEvaluateRow_Rejected(b *testing.B) {
	v := NewValidator(Options{})
	row := []string{"7", "abc", "2", "900", "", "yes"}
	columns := PositionalIndex(ruleNames(v.rules))

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		v.EvaluateRow(row, columns)
	}
}

// BenchmarkMakeHeaderIndex benchmarks header index creation.
func BenchmarkMakeHeaderIndex(b *testing.B) {
	header := []string{"Age", "Income", "Employed", "CreditScore", "LoanAmount", "Approved", "Notes"}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		MakeHeaderIndex(header)
	}
}

// ============================================================================
// Whole Table Benchmarks
// ============================================================================

// BenchmarkValidate benchmarks a full validation pass over 100 rows.
func BenchmarkValidate(b *testing.B) {
	benchmarkValidate(b, 100)
}

// BenchmarkValidate_Large benchmarks a full validation pass over 10k rows.
func BenchmarkValidate_Large(b *testing.B) {
	benchmarkValidate(b, 10_000)
}

func benchmarkValidate(b *testing.B, rows int) {
	data := generateTestCSV(rows)
	v := NewValidator(Options{})

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := v.Validate(bytes.NewReader(data)); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkDecodeText benchmarks BOM removal and UTF-8 verification on valid input.
func BenchmarkDecodeText(b *testing.B) {
	data := append([]byte("\xEF\xBB\xBF"), generateTestCSV(1000)...)

	b.SetBytes(int64(len(data)))
	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if _, err := DecodeText(data); err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkWriteOutputs benchmarks rendering both output tables.
func BenchmarkWriteOutputs(b *testing.B) {
	res, err := NewValidator(Options{}).Validate(bytes.NewReader(generateTestCSV(1000)))
	if err != nil {
		b.Fatal(err)
	}

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		if err := WriteClean(io.Discard, res.Clean); err != nil {
			b.Fatal(err)
		}
		if err := WriteRejected(io.Discard, res.Rejected); err != nil {
			b.Fatal(err)
		}
	}
}

// ============================================================================
// Parallel Benchmarks
// ============================================================================

// BenchmarkValidateParallel benchmarks concurrent validators sharing no state.
func BenchmarkValidateParallel(b *testing.B) {
	data := generateTestCSV(100)

	b.RunParallel(func(pb *testing.PB) {
		v := NewValidator(Options{})
		for pb.Next() {
			if _, err := v.Validate(bytes.NewReader(data)); err != nil {
				b.Error(err)
				return
			}
		}
	})
}

// ============================================================================
// Helper Functions
// ============================================================================

// generateTestCSV generates a headed dataset with the specified number of
// rows. Every fifth row is rejected.
func generateTestCSV(rows int) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	w.Write(CleanHeader)

	for i := 0; i < rows; i++ {
		credit := strconv.Itoa(300 + i%500)
		if i%5 == 4 {
			credit = "900"
		}
		w.Write([]string{
			strconv.Itoa(18 + i%70),
			strconv.Itoa(20000 + i),
			strconv.Itoa(i % 2),
			credit,
			strconv.Itoa(-5000 + i),
			"",
		})
	}
	w.Flush()

	return buf.Bytes()
}
