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

// Package taxtree converts flat, indentation-encoded taxonomic reports into
// rooted taxonomy trees, merges per-sample trees into one reference tree,
// renders rank-padded taxonomy strings, derives presence/absence feature
// tables, and computes LCA consensus taxonomies across classifications.
package taxtree

import "fmt"

// Node is one taxon of a Tree, stored in the tree's node arena and addressed
// by index.
type Node struct {
	Label      string // rank-prefixed name, e.g. "p__Firmicutes"
	TaxID      string // set for reportable nodes only
	Parent     int    // -1 for the root
	Children   []int  // insertion order = report order
	Reportable bool
	ActualTip  bool // finalized as a reportable leaf of its report
}

// Tree is a rooted taxonomy tree. Nodes[0] is the synthetic unnamed root.
type Tree struct {
	Nodes   []Node
	byLabel map[string]int
	byTaxID map[string]int
}

// NewTree returns a tree holding only the synthetic root.
func NewTree() *Tree {
	t := &Tree{
		Nodes:   make([]Node, 1, 64),
		byLabel: make(map[string]int, 64),
		byTaxID: make(map[string]int, 64),
	}
	t.Nodes[0] = Node{Parent: -1}
	return t
}

func (t *Tree) add(parent int, n Node) int {
	i := len(t.Nodes)
	n.Parent = parent
	t.Nodes = append(t.Nodes, n)
	t.Nodes[parent].Children = append(t.Nodes[parent].Children, i)
	if _, ok := t.byLabel[n.Label]; !ok {
		t.byLabel[n.Label] = i
	}
	if n.TaxID != "" {
		if _, ok := t.byTaxID[n.TaxID]; !ok {
			t.byTaxID[n.TaxID] = i
		}
	}
	return i
}

// FindLabel returns the index of the first node carrying the label.
func (t *Tree) FindLabel(label string) (int, bool) {
	i, ok := t.byLabel[label]
	return i, ok
}

// FindTaxID returns the index of the node carrying the taxon id.
func (t *Tree) FindTaxID(id string) (int, bool) {
	i, ok := t.byTaxID[id]
	return i, ok
}

// Leaves returns the indices of all childless nodes, the root excluded.
func (t *Tree) Leaves() []int {
	leaves := make([]int, 0, len(t.Nodes)/2)
	for i := 1; i < len(t.Nodes); i++ {
		if len(t.Nodes[i].Children) == 0 {
			leaves = append(leaves, i)
		}
	}
	return leaves
}

// TipTaxIDs returns the taxon ids of all actual tips in report order.
func (t *Tree) TipTaxIDs() []string {
	ids := make([]string, 0, len(t.Nodes)/2)
	for i := 1; i < len(t.Nodes); i++ {
		if t.Nodes[i].ActualTip && t.Nodes[i].TaxID != "" {
			ids = append(ids, t.Nodes[i].TaxID)
		}
	}
	return ids
}

// RankPath returns the labels on the path from the root (exclusive) down to
// node i. A parent chain longer than the node count means the tree is
// corrupt and is reported as an error.
func (t *Tree) RankPath(i int) ([]string, error) {
	path := make([]string, 0, 8)
	for steps := 0; i > 0; steps++ {
		if steps > len(t.Nodes) {
			return nil, fmt.Errorf("taxtree: cycle detected at node %q", t.Nodes[i].Label)
		}
		path = append(path, t.Nodes[i].Label)
		i = t.Nodes[i].Parent
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, nil
}

// Clone returns a deep copy owning its own nodes.
func (t *Tree) Clone() *Tree {
	c := &Tree{
		Nodes:   make([]Node, len(t.Nodes)),
		byLabel: make(map[string]int, len(t.byLabel)),
		byTaxID: make(map[string]int, len(t.byTaxID)),
	}
	for i, n := range t.Nodes {
		n.Children = append([]int(nil), n.Children...)
		c.Nodes[i] = n
	}
	for k, v := range t.byLabel {
		c.byLabel[k] = v
	}
	for k, v := range t.byTaxID {
		c.byTaxID[k] = v
	}
	return c
}

// BuildTree builds a rooted taxonomy tree from the ordered rows of one
// report. Rows arrive in depth-first pre-order, so a stack of
// (depth, node) pairs is enough to restore the hierarchy in a single pass:
// a new row at depth d finalizes the node currently on top of the stack as
// an actual tip when that node is reportable and not shallower than d,
// i.e. when the parser has moved past it without descending into it.
func BuildTree(rows []ReportRow) *Tree {
	t := NewTree()

	type frame struct {
		depth int
		node  int
	}
	stack := make([]frame, 1, 16) // seeded with the root

	for _, row := range rows {
		if row.Rank.Skip() {
			continue
		}

		top := stack[len(stack)-1]
		if top.depth >= row.Depth && t.Nodes[top.node].Reportable {
			t.Nodes[top.node].ActualTip = true
		}
		for len(stack) > 1 && stack[len(stack)-1].depth >= row.Depth {
			stack = stack[:len(stack)-1]
		}

		n := Node{
			Label:      row.Rank.Prefix() + row.Name,
			Reportable: row.Rank.Reportable(),
		}
		if n.Reportable {
			n.TaxID = row.TaxID
		}
		i := t.add(stack[len(stack)-1].node, n)
		stack = append(stack, frame{row.Depth, i})
	}

	// The last row of a report always finalizes a tip. When it is an
	// infraclade placeholder, the nearest reportable node on the stack
	// takes the tip instead.
	for j := len(stack) - 1; j > 0; j-- {
		if t.Nodes[stack[j].node].Reportable {
			t.Nodes[stack[j].node].ActualTip = true
			break
		}
	}

	return t
}

// Taxonomy renders the rank-padded taxonomy string for each of the given
// taxon ids. Every id must be present in the tree.
func (t *Tree) Taxonomy(ids []string) (map[string]string, error) {
	taxa := make(map[string]string, len(ids))
	for _, id := range ids {
		i, ok := t.byTaxID[id]
		if !ok {
			return nil, fmt.Errorf("taxtree: taxon %s not found in reference tree", id)
		}
		ranks, err := t.RankPath(i)
		if err != nil {
			return nil, err
		}
		taxa[id] = PadRanks(ranks)
	}
	return taxa, nil
}
