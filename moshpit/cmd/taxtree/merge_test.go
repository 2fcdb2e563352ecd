package taxtree

import (
	"reflect"
	"sort"
	"testing"
)

// treeShape maps every node label to its parent label ("" for children of
// the root), which pins down the parent/child structure label-wise.
func treeShape(t *Tree) map[string]string {
	shape := make(map[string]string, len(t.Nodes))
	for i := 1; i < len(t.Nodes); i++ {
		parent := ""
		if p := t.Nodes[i].Parent; p > 0 {
			parent = t.Nodes[p].Label
		}
		shape[t.Nodes[i].Label] = parent
	}
	return shape
}

func sampleTree(t *testing.T, lines []string) *Tree {
	t.Helper()
	return BuildTree(parseLines(t, lines))
}

func TestMergeIdempotence(t *testing.T) {
	lines := []string{
		reportLine(90, "D", "2", "Bacteria", 1),
		reportLine(50, "P", "3", "Firmicutes", 2),
		reportLine(50, "G", "4", "Bacillus", 3),
		reportLine(40, "P", "5", "Proteobacteria", 2),
	}
	tree := sampleTree(t, lines)

	merged, err := Merge([]*Tree{tree, sampleTree(t, lines), sampleTree(t, lines)})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(treeShape(merged), treeShape(tree)) {
		t.Errorf("merging a tree with copies of itself changed its shape:\ngot  %v\nwant %v",
			treeShape(merged), treeShape(tree))
	}
}

func TestMergePartialPath(t *testing.T) {
	t1 := sampleTree(t, []string{
		reportLine(90, "D", "2", "Bacteria", 1),
		reportLine(50, "G", "3", "Bacillus", 2),
		reportLine(50, "S", "4", "Bacillus subtilis", 3),
	})
	t2 := sampleTree(t, []string{
		reportLine(80, "D", "2", "Bacteria", 1),
		reportLine(60, "G", "3", "Bacillus", 2),
		reportLine(60, "S", "5", "Bacillus cereus", 3),
	})

	merged, err := Merge([]*Tree{t1, t2})
	if err != nil {
		t.Fatal(err)
	}

	// only the species tail of t2 is inserted, the shared genus path is reused
	if len(merged.Nodes) != 5 { // root, d, g, 2 species
		t.Fatalf("node count = %d, want 5", len(merged.Nodes))
	}
	g, ok := merged.FindLabel("g__Bacillus")
	if !ok {
		t.Fatal("g__Bacillus missing from merged tree")
	}
	var species []string
	for _, c := range merged.Nodes[g].Children {
		species = append(species, merged.Nodes[c].Label)
	}
	sort.Strings(species)
	want := []string{"s__Bacillus cereus", "s__Bacillus subtilis"}
	if !reflect.DeepEqual(species, want) {
		t.Errorf("children of g__Bacillus = %v, want %v", species, want)
	}

	// merging never mutates its inputs
	if _, ok := t1.FindLabel("s__Bacillus cereus"); ok {
		t.Error("merge grafted nodes into a source tree")
	}
	if len(t2.Nodes) != 4 {
		t.Errorf("source tree node count changed to %d", len(t2.Nodes))
	}
}

func TestMergeDisjointTrees(t *testing.T) {
	t1 := sampleTree(t, []string{
		reportLine(90, "D", "2", "Bacteria", 1),
		reportLine(50, "P", "3", "Firmicutes", 2),
	})
	t2 := sampleTree(t, []string{
		reportLine(80, "D", "4", "Archaea", 1),
		reportLine(60, "P", "5", "Euryarchaeota", 2),
	})

	merged, err := Merge([]*Tree{t1, t2})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]string{
		"d__Bacteria":      "",
		"p__Firmicutes":    "d__Bacteria",
		"d__Archaea":       "",
		"p__Euryarchaeota": "d__Archaea",
	}
	if got := treeShape(merged); !reflect.DeepEqual(got, want) {
		t.Errorf("treeShape = %v, want %v", got, want)
	}

	// taxon ids survive the merge for taxonomy rendering
	for _, id := range []string{"2", "3", "4", "5"} {
		if _, ok := merged.FindTaxID(id); !ok {
			t.Errorf("taxon %s missing from merged tree", id)
		}
	}
}

func TestMergeEmptyAccumulator(t *testing.T) {
	empty := BuildTree(nil)
	t2 := sampleTree(t, []string{
		reportLine(80, "D", "2", "Bacteria", 1),
	})

	merged, err := Merge([]*Tree{empty, t2})
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := merged.FindLabel("d__Bacteria"); !ok {
		t.Error("d__Bacteria missing after merging into an empty tree")
	}

	merged, err = Merge(nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(merged.Nodes) != 1 {
		t.Errorf("Merge(nil) node count = %d, want only the root", len(merged.Nodes))
	}
}
