package taxtree

import (
	"fmt"
	"strings"
	"testing"
)

// reportLine renders one tab-delimited report line the way kraken2 does:
// coverage, clade count, direct count, rank code, taxon id, indented name.
func reportLine(cov float64, rank, taxid, name string, depth int) string {
	return fmt.Sprintf("%.2f\t0\t0\t%s\t%s\t%s", cov, rank, taxid, strings.Repeat("  ", depth)+name)
}

// parseLines parses rendered report lines, failing the test on error.
func parseLines(t *testing.T, lines []string) []ReportRow {
	t.Helper()
	rows := make([]ReportRow, 0, len(lines))
	for _, line := range lines {
		row, err := ParseReportLine(line)
		if err != nil {
			t.Fatalf("ParseReportLine(%q): %v", line, err)
		}
		rows = append(rows, row)
	}
	return rows
}

func TestParseReportLine(t *testing.T) {
	row, err := ParseReportLine("12.50\t100\t10\tS1\t562\t      Escherichia coli")
	if err != nil {
		t.Fatalf("ParseReportLine: %v", err)
	}
	if row.Coverage != 12.5 {
		t.Errorf("Coverage = %v, want 12.5", row.Coverage)
	}
	if row.Rank.String() != "S1" {
		t.Errorf("Rank = %v, want S1", row.Rank)
	}
	if row.TaxID != "562" {
		t.Errorf("TaxID = %v, want 562", row.TaxID)
	}
	if row.Name != "Escherichia coli" {
		t.Errorf("Name = %q, want %q", row.Name, "Escherichia coli")
	}
	if row.Depth != 3 {
		t.Errorf("Depth = %d, want 3", row.Depth)
	}
}

func TestParseReportLineErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"too few columns", "1.0\t0\t0\tS\t1"},
		{"too many columns", "1.0\t0\t0\t0\t0\tS\t1\tname"},
		{"bad coverage", "abc\t0\t0\tS\t1\tname"},
		{"unknown rank letter", "1.0\t0\t0\tX\t1\tname"},
		{"bad infraclade suffix", "1.0\t0\t0\tSx\t1\tname"},
		{"empty rank", "1.0\t0\t0\t\t1\tname"},
		{"odd indentation", "1.0\t0\t0\tS\t1\t   name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseReportLine(tt.line); err == nil {
				t.Errorf("ParseReportLine(%q) = nil error, want error", tt.line)
			}
		})
	}
}

func TestFilterRows(t *testing.T) {
	rows := parseLines(t, []string{
		reportLine(0.05, "D", "1", "a", 1),
		reportLine(0.1, "D", "2", "b", 1),
		reportLine(55, "D", "3", "c", 1),
	})

	kept := FilterRows(rows, 0.1)
	if len(kept) != 2 {
		t.Fatalf("FilterRows kept %d rows, want 2", len(kept))
	}
	// the threshold is an inclusive lower bound
	if kept[0].TaxID != "2" || kept[1].TaxID != "3" {
		t.Errorf("FilterRows kept %v and %v, want taxa 2 and 3", kept[0].TaxID, kept[1].TaxID)
	}

	if got := FilterRows(rows, 100); len(got) != 0 {
		t.Errorf("FilterRows with threshold 100 kept %d rows, want 0", len(got))
	}
}

func TestRankCode(t *testing.T) {
	tests := []struct {
		code       string
		skip       bool
		reportable bool
		prefix     string
	}{
		{"U", true, true, "u__"},
		{"R", true, true, "r__"},
		{"D", false, true, "d__"},
		{"D1", false, false, "d1__"},
		{"K2", false, false, "k2__"},
		{"G", false, true, "g__"},
		{"S", false, true, "s__"},
		{"S1", false, true, "s1__"},
		{"S12", false, true, "s12__"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			r, err := ParseRankCode(tt.code)
			if err != nil {
				t.Fatalf("ParseRankCode(%q): %v", tt.code, err)
			}
			if r.Skip() != tt.skip {
				t.Errorf("Skip() = %v, want %v", r.Skip(), tt.skip)
			}
			if r.Reportable() != tt.reportable {
				t.Errorf("Reportable() = %v, want %v", r.Reportable(), tt.reportable)
			}
			if r.Prefix() != tt.prefix {
				t.Errorf("Prefix() = %q, want %q", r.Prefix(), tt.prefix)
			}
			if r.String() != tt.code {
				t.Errorf("String() = %q, want %q", r.String(), tt.code)
			}
		})
	}
}
