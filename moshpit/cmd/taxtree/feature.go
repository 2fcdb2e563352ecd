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

// Sample is one sample's parsed report.
type Sample struct {
	ID   string
	Rows []ReportRow
}

// FeatureTable is a sample × taxon presence/absence matrix. Samples without
// any tip surviving the coverage threshold carry no row. Taxa are ordered by
// first appearance across samples.
type FeatureTable struct {
	Samples  []string
	Taxa     []string
	Presence map[string]map[string]bool // sample id -> taxon id -> present
}

// Present reports presence of a taxon in a sample; absent entries are false.
func (ft *FeatureTable) Present(sample, taxon string) bool {
	return ft.Presence[sample][taxon]
}

// TaxonomyTable maps taxon ids to rank-padded taxonomy strings, restricted
// to the ids present in the feature table and kept in the same order.
type TaxonomyTable struct {
	IDs  []string
	Taxa map[string]string // taxon id -> taxonomy string
}

// BuildFeatureTable derives the presence/absence feature table and the
// matching taxonomy table from per-sample reports. The coverage threshold
// (0-100 scale, inclusive) decides presence only: the reference tree behind
// the taxonomy strings is merged from the unfiltered trees of all samples,
// so which taxa CAN be named never depends on the threshold. A threshold
// that filters out everything yields empty tables, not an error.
func BuildFeatureTable(samples []Sample, threshold float64) (*FeatureTable, *TaxonomyTable, error) {
	ft := &FeatureTable{
		Presence: make(map[string]map[string]bool, len(samples)),
	}
	trees := make([]*Tree, 0, len(samples))
	seen := make(map[string]bool, 128)

	for _, sample := range samples {
		trees = append(trees, BuildTree(sample.Rows))

		tips := BuildTree(FilterRows(sample.Rows, threshold)).TipTaxIDs()
		if len(tips) == 0 {
			continue
		}

		row := make(map[string]bool, len(tips))
		for _, id := range tips {
			row[id] = true
			if !seen[id] {
				seen[id] = true
				ft.Taxa = append(ft.Taxa, id)
			}
		}
		ft.Samples = append(ft.Samples, sample.ID)
		ft.Presence[sample.ID] = row
	}

	merged, err := Merge(trees)
	if err != nil {
		return nil, nil, err
	}
	taxa, err := merged.Taxonomy(ft.Taxa)
	if err != nil {
		return nil, nil, err
	}

	taxonomy := &TaxonomyTable{
		IDs:  append([]string(nil), ft.Taxa...),
		Taxa: taxa,
	}
	return ft, taxonomy, nil
}
