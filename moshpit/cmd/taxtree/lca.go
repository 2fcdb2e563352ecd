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
	"errors"
	"regexp"
	"strings"
)

// rankHandleRe strips the rank handle of one taxonomy entry, e.g. "g__" or
// the species/subspecies markers "s__"/"s1__".
var rankHandleRe = regexp.MustCompile(`^[dkpcofgs]\d*__`)

// SplitTaxon splits a rendered taxonomy string into a rank path, rank
// handles stripped.
func SplitTaxon(taxon string) []string {
	entries := strings.Split(taxon, ";")
	path := make([]string, len(entries))
	for i, entry := range entries {
		path[i] = rankHandleRe.ReplaceAllString(strings.TrimSpace(entry), "")
	}
	return path
}

// Consensus computes the least-common-ancestor consensus of several rank
// paths: the longest rank prefix on which all paths carry the same label.
// A position missing from a shorter path (or holding an empty label) counts
// as a disagreement, it is not truncated away. At least one path is
// required, a classification group without members is a caller error.
func Consensus(paths [][]string) ([]string, error) {
	if len(paths) == 0 {
		return nil, errors.New("taxtree: consensus of zero classifications")
	}

	maxLen := 0
	for _, p := range paths {
		if len(p) > maxLen {
			maxLen = len(p)
		}
	}

	consensus := make([]string, 0, maxLen)
	for i := 0; i < maxLen; i++ {
		var label string
		distinct := 0
		absent := false
		for _, p := range paths {
			if i >= len(p) || p[i] == "" {
				absent = true
				continue
			}
			switch {
			case distinct == 0:
				label = p[i]
				distinct = 1
			case p[i] != label:
				distinct = 2
			}
		}
		if absent || distinct != 1 {
			break
		}
		consensus = append(consensus, label)
	}
	return consensus, nil
}

// lcaLadder is the rank ladder used to render consensus paths, the canonical
// ladder plus a trailing subspecies slot.
var lcaLadder = []string{"d", "k", "p", "c", "o", "f", "g", "s", "s1"}

// JoinRanks renders a rank path as a semicolon-joined taxonomy string over
// the consensus rank ladder.
func JoinRanks(path []string) string {
	if len(path) > len(lcaLadder) {
		path = path[:len(lcaLadder)]
	}
	entries := make([]string, len(path))
	for i, label := range path {
		entries[i] = lcaLadder[i] + "__" + label
	}
	return strings.Join(entries, ";")
}
