// Copyright © 2023-2024 Bokulich Lab
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package taxtree

import (
	"fmt"
	"strconv"
	"strings"
)

// indentUnit is the number of leading spaces per tree level in the name
// column of a kraken2-style report.
const indentUnit = 2

// ReportRow is one line of a taxonomic report.
type ReportRow struct {
	Coverage float64  // percentage of reads/bases covered by the clade
	Rank     RankCode // rank-code token
	TaxID    string   // opaque taxon identifier, unique within one report
	Name     string   // display name, indentation stripped
	Depth    int      // tree depth encoded by the name indentation
}

// ParseReportLine parses one tab-delimited report line with the columns
// coverage, clade count, direct count, rank code, taxon id, indented name.
// A line that cannot be parsed is fatal for the whole sample: a wrong depth
// would corrupt the parent linkage of every following line.
func ParseReportLine(line string) (ReportRow, error) {
	fields := strings.Split(line, "\t")
	if len(fields) != 6 {
		return ReportRow{}, fmt.Errorf("taxtree: report line should have 6 columns, given: %d", len(fields))
	}

	coverage, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return ReportRow{}, fmt.Errorf("taxtree: invalid coverage value: %s", fields[0])
	}

	rank, err := ParseRankCode(fields[3])
	if err != nil {
		return ReportRow{}, err
	}

	name := fields[5]
	stripped := strings.TrimLeft(name, " ")
	indent := len(name) - len(stripped)
	if indent%indentUnit != 0 {
		return ReportRow{}, fmt.Errorf("taxtree: indentation of %d spaces is not a multiple of %d: %q", indent, indentUnit, name)
	}

	return ReportRow{
		Coverage: coverage,
		Rank:     rank,
		TaxID:    fields[4],
		Name:     strings.TrimSpace(stripped),
		Depth:    indent / indentUnit,
	}, nil
}

// FilterRows returns the rows whose coverage is at or above the threshold.
func FilterRows(rows []ReportRow, threshold float64) []ReportRow {
	kept := make([]ReportRow, 0, len(rows))
	for _, row := range rows {
		if row.Coverage >= threshold {
			kept = append(kept, row)
		}
	}
	return kept
}
