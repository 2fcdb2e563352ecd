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
	"strings"
)

// rankLetters is the closed alphabet of kraken2-style rank codes:
// Unclassified, Root, Domain, Kingdom, Phylum, Class, Order, Family,
// Genus, Species.
const rankLetters = "URDKPCOFGS"

// RankCode is one rank-code token of a taxonomic report, e.g. "P" or "S1".
// A non-empty Sub marks an infraclade, a sub-rank squeezed between two
// canonical ranks.
type RankCode struct {
	Letter byte   // one of rankLetters
	Sub    string // trailing digits of an infraclade code, "" for canonical ranks
}

// ParseRankCode validates and parses a rank-code token.
func ParseRankCode(code string) (RankCode, error) {
	if code == "" {
		return RankCode{}, fmt.Errorf("taxtree: empty rank code")
	}
	if strings.IndexByte(rankLetters, code[0]) < 0 {
		return RankCode{}, fmt.Errorf("taxtree: unknown rank code: %s", code)
	}
	for i := 1; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return RankCode{}, fmt.Errorf("taxtree: unknown rank code: %s", code)
		}
	}
	return RankCode{Letter: code[0], Sub: code[1:]}, nil
}

func (r RankCode) String() string {
	return string(r.Letter) + r.Sub
}

// Skip reports whether rows of this rank never become tree nodes
// (unclassified and root lines).
func (r RankCode) Skip() bool {
	return r.Letter == 'U' || r.Letter == 'R'
}

// Reportable reports whether a node of this rank is a real taxon worth a
// taxon id: any canonical rank, or any species-level code (S, S1, ...).
// Infraclades of other ranks (D1, K1, ...) are structural placeholders.
func (r RankCode) Reportable() bool {
	return r.Sub == "" || r.Letter == 'S'
}

// Prefix returns the label prefix for nodes of this rank, e.g. "p__" or "s1__".
func (r RankCode) Prefix() string {
	return strings.ToLower(string(r.Letter)) + r.Sub + "__"
}
