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

import "fmt"

// pathNodes returns the node indices from the root (exclusive) down to node
// i, outermost first.
func (t *Tree) pathNodes(i int) ([]int, error) {
	path := make([]int, 0, 8)
	for steps := 0; i > 0; steps++ {
		if steps > len(t.Nodes) {
			return nil, fmt.Errorf("taxtree: cycle detected at node %q", t.Nodes[i].Label)
		}
		path = append(path, i)
		i = t.Nodes[i].Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

func (t *Tree) findChild(parent int, label string) (int, bool) {
	for _, c := range t.Nodes[parent].Children {
		if t.Nodes[c].Label == label {
			return c, true
		}
	}
	return 0, false
}

// Merge folds per-sample trees into one reference tree spanning the union of
// all observed taxa. The inputs are read-only; the result owns all of its
// nodes. Labels identify "the same taxon" across samples, no taxon-id
// remapping happens.
//
// For every leaf of every subsequent tree: a leaf whose label is already in
// the accumulator is skipped; otherwise its ancestor path is matched against
// the accumulator child by child, and the suffix below the first mismatch is
// grafted there, so a taxon sharing a genus with an already-merged node only
// inserts its species-level tail.
func Merge(trees []*Tree) (*Tree, error) {
	if len(trees) == 0 {
		return NewTree(), nil
	}
	merged := trees[0].Clone()

	for _, t := range trees[1:] {
		for _, tip := range t.Leaves() {
			if _, ok := merged.byLabel[t.Nodes[tip].Label]; ok {
				continue
			}
			path, err := t.pathNodes(tip)
			if err != nil {
				return nil, err
			}

			cur := 0
			for k, ni := range path {
				if c, ok := merged.findChild(cur, t.Nodes[ni].Label); ok {
					cur = c
					continue
				}
				for _, mi := range path[k:] {
					src := t.Nodes[mi]
					cur = merged.add(cur, Node{
						Label:      src.Label,
						TaxID:      src.TaxID,
						Reportable: src.Reportable,
						ActualTip:  src.ActualTip,
					})
				}
				break
			}
		}
	}

	return merged, nil
}
