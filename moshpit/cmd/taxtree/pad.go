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

import "strings"

// rankLadder is the canonical rank ladder, domain to species.
var rankLadder = []string{"d", "k", "p", "c", "o", "f", "g", "s"}

// PadRanks renders one semicolon-joined taxonomy string from the
// rank-prefixed labels on a root-to-node path, filling gaps in the canonical
// rank ladder:
//
//   - species/subspecies infraclade labels (s1__, s2__, ...) are kept
//     verbatim below the species rank;
//   - a missing rank between two known ranks becomes the placeholder
//     "<rank>__containing <last good label>", except at the kingdom rank for
//     the domains Bacteria and Archaea, where the domain label is reused
//     ("k__Bacteria") rather than propagated upwards;
//   - missing ranks above the outermost known rank are omitted.
func PadRanks(ranks []string) string {
	available := make(map[string]string, len(ranks))
	taxonomy := make([]string, 0, len(rankLadder)+2)

	for i := len(ranks) - 1; i >= 0; i-- {
		rank := ranks[i]
		j := strings.Index(rank, "__")
		if j < 0 {
			continue
		}
		r, label := rank[:j], rank[j+2:]
		available[r] = label
		if len(r) > 1 && r[0] == 's' {
			taxonomy = append(taxonomy, rank)
		}
	}

	var lastGood string
	for i := len(rankLadder) - 1; i >= 0; i-- {
		r := rankLadder[i]
		if label, ok := available[r]; ok {
			lastGood = r + "__" + label
			taxonomy = append(taxonomy, lastGood)
		} else if len(taxonomy) > 0 {
			if r == "k" && (available["d"] == "Bacteria" || available["d"] == "Archaea") {
				taxonomy = append(taxonomy, "k__"+available["d"])
			} else {
				// smear the most specific label we have upwards
				taxonomy = append(taxonomy, r+"__containing "+lastGood)
			}
		}
	}

	for i, j := 0, len(taxonomy)-1; i < j; i, j = i+1, j-1 {
		taxonomy[i], taxonomy[j] = taxonomy[j], taxonomy[i]
	}
	return strings.Join(taxonomy, ";")
}
