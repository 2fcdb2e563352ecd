package taxtree

import (
	"reflect"
	"testing"
)

func TestBuildTreeSiblingTips(t *testing.T) {
	// three kingdom-level siblings, every one of them a real tip
	rows := parseLines(t, []string{
		reportLine(100, "R", "1", "root", 0),
		reportLine(40, "D", "2", "a", 1),
		reportLine(30, "D", "3", "b", 1),
		reportLine(30, "D", "4", "c", 1),
	})
	tree := BuildTree(rows)

	want := []string{"2", "3", "4"}
	if got := tree.TipTaxIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("TipTaxIDs() = %v, want %v", got, want)
	}
	if len(tree.Nodes) != 4 { // root + 3
		t.Errorf("node count = %d, want 4", len(tree.Nodes))
	}
	for _, c := range tree.Nodes[0].Children {
		if tree.Nodes[c].Parent != 0 {
			t.Errorf("node %q not attached to the root", tree.Nodes[c].Label)
		}
	}
}

func TestBuildTreeInfracladePlaceholders(t *testing.T) {
	// placeholders interleaved with real nodes: only the terminal real node
	// is a tip, placeholders stay structural
	rows := parseLines(t, []string{
		reportLine(100, "R", "1", "root", 0),
		reportLine(90, "D", "2", "a", 1),
		reportLine(80, "K1", "3", "a.s", 2),
		reportLine(80, "K", "4", "a.b", 2),
		reportLine(70, "K1", "5", "a.b.s", 3),
		reportLine(70, "P", "6", "a.b.s.a", 4),
	})
	tree := BuildTree(rows)

	if got := tree.TipTaxIDs(); !reflect.DeepEqual(got, []string{"6"}) {
		t.Errorf("TipTaxIDs() = %v, want [6]", got)
	}

	i, ok := tree.FindTaxID("6")
	if !ok {
		t.Fatal("taxon 6 not in tree")
	}
	ranks, err := tree.RankPath(i)
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"d__a", "k__a.b", "k1__a.b.s", "p__a.b.s.a"}
	if !reflect.DeepEqual(ranks, want) {
		t.Errorf("RankPath() = %v, want %v", ranks, want)
	}
	if PadRanks(ranks) != "d__a;k__a.b;p__a.b.s.a" {
		t.Errorf("PadRanks() = %q, want %q", PadRanks(ranks), "d__a;k__a.b;p__a.b.s.a")
	}

	// placeholders carry no taxon id
	if j, ok := tree.FindLabel("k1__a.s"); !ok {
		t.Error("placeholder k1__a.s missing from tree")
	} else if tree.Nodes[j].TaxID != "" || tree.Nodes[j].ActualTip {
		t.Error("placeholder k1__a.s should not be a reportable tip")
	}
}

func TestBuildTreeTrailingPlaceholder(t *testing.T) {
	// a report ending on an infraclade placeholder still finalizes the
	// nearest real node as a tip
	rows := parseLines(t, []string{
		reportLine(100, "R", "1", "root", 0),
		reportLine(90, "D", "2", "a", 1),
		reportLine(80, "D1", "3", "a.s", 2),
	})
	tree := BuildTree(rows)

	if got := tree.TipTaxIDs(); !reflect.DeepEqual(got, []string{"2"}) {
		t.Errorf("TipTaxIDs() = %v, want [2]", got)
	}
}

func TestBuildTreeNestedTips(t *testing.T) {
	rows := parseLines(t, []string{
		reportLine(100, "R", "1", "root", 0),
		reportLine(90, "D", "2", "Bacteria", 1),
		reportLine(50, "P", "3", "Firmicutes", 2),
		reportLine(50, "G", "4", "Bacillus", 3),
		reportLine(40, "P", "5", "Proteobacteria", 2),
	})
	tree := BuildTree(rows)

	// moving from g__Bacillus (depth 3) back to depth 2 finalizes Bacillus;
	// the last row finalizes Proteobacteria; their ancestors stay internal
	want := []string{"4", "5"}
	if got := tree.TipTaxIDs(); !reflect.DeepEqual(got, want) {
		t.Errorf("TipTaxIDs() = %v, want %v", got, want)
	}
}

func TestBuildTreeEmptyReport(t *testing.T) {
	rows := parseLines(t, []string{
		reportLine(99, "U", "0", "unclassified", 0),
		reportLine(1, "R", "1", "root", 0),
	})
	tree := BuildTree(rows)

	if len(tree.Nodes) != 1 {
		t.Errorf("node count = %d, want only the root", len(tree.Nodes))
	}
	if got := tree.TipTaxIDs(); len(got) != 0 {
		t.Errorf("TipTaxIDs() = %v, want none", got)
	}
}

func TestTreeClone(t *testing.T) {
	rows := parseLines(t, []string{
		reportLine(90, "D", "2", "a", 1),
		reportLine(80, "P", "3", "b", 2),
	})
	tree := BuildTree(rows)
	clone := tree.Clone()

	clone.add(0, Node{Label: "d__x", TaxID: "9", Reportable: true})
	if len(tree.Nodes) != 3 {
		t.Errorf("Clone() shares the node arena with its source")
	}
	if _, ok := tree.FindLabel("d__x"); ok {
		t.Errorf("Clone() shares the label index with its source")
	}
}
