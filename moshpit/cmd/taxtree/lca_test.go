package taxtree

import (
	"reflect"
	"strings"
	"testing"
)

func TestSplitTaxon(t *testing.T) {
	tests := []struct {
		name  string
		taxon string
		want  []string
	}{
		{
			name:  "canonical handles",
			taxon: "d__Bacteria;p__Firmicutes;g__Bacillus",
			want:  []string{"Bacteria", "Firmicutes", "Bacillus"},
		},
		{
			name:  "subspecies handle",
			taxon: "s__Escherichia coli;s1__Escherichia coli K-12",
			want:  []string{"Escherichia coli", "Escherichia coli K-12"},
		},
		{
			name:  "surrounding whitespace",
			taxon: "d__Bacteria; p__Firmicutes",
			want:  []string{"Bacteria", "Firmicutes"},
		},
		{
			name:  "placeholder labels survive stripping",
			taxon: "o__containing g__Bacillus;g__Bacillus",
			want:  []string{"containing g__Bacillus", "Bacillus"},
		},
		{
			name:  "empty entries stay empty",
			taxon: "d__Bacteria;;g__Bacillus",
			want:  []string{"Bacteria", "", "Bacillus"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SplitTaxon(tt.taxon); !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SplitTaxon(%q) = %v, want %v", tt.taxon, got, tt.want)
			}
		})
	}
}

func TestConsensus(t *testing.T) {
	tests := []struct {
		name  string
		paths [][]string
		want  []string
	}{
		{
			name: "agreement through genus",
			paths: [][]string{
				{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium avium"},
				{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium leprae"},
				{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium avium"},
				{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium bovis"},
			},
			want: []string{"Bacteria", "Actinomycetota", "Mycobacterium"},
		},
		{
			name: "full agreement extends to species",
			paths: [][]string{
				{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium avium"},
				{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium avium"},
			},
			want: []string{"Bacteria", "Actinomycetota", "Mycobacterium", "Mycobacterium avium"},
		},
		{
			name: "single path is its own consensus",
			paths: [][]string{
				{"Bacteria", "Firmicutes"},
			},
			want: []string{"Bacteria", "Firmicutes"},
		},
		{
			name: "shorter path forces disagreement instead of truncating",
			paths: [][]string{
				{"Bacteria", "Firmicutes", "Bacillus"},
				{"Bacteria", "Firmicutes"},
			},
			want: []string{"Bacteria", "Firmicutes"},
		},
		{
			name: "empty label counts as absent",
			paths: [][]string{
				{"Bacteria", "", "Bacillus"},
				{"Bacteria", "Firmicutes", "Bacillus"},
			},
			want: []string{"Bacteria"},
		},
		{
			name: "disagreement at the first rank",
			paths: [][]string{
				{"Bacteria"},
				{"Archaea"},
			},
			want: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Consensus(tt.paths)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Consensus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConsensusNoPaths(t *testing.T) {
	if _, err := Consensus(nil); err == nil {
		t.Error("Consensus(nil) = nil error, want error")
	}
}

func TestConsensusMonotonicity(t *testing.T) {
	paths := [][]string{
		{"Bacteria", "Firmicutes", "Bacillus", "Bacillus subtilis"},
		{"Bacteria", "Firmicutes", "Bacillus", "Bacillus subtilis"},
	}
	base, err := Consensus(paths)
	if err != nil {
		t.Fatal(err)
	}

	// adding one more classification can only shorten the consensus
	extra := [][]string{
		{"Bacteria", "Firmicutes", "Bacillus", "Bacillus cereus"},
		{"Bacteria", "Firmicutes", "Listeria"},
		{"Archaea"},
		{"Bacteria", "Firmicutes", "Bacillus", "Bacillus subtilis"},
	}
	for _, p := range extra {
		got, err := Consensus(append(paths, p))
		if err != nil {
			t.Fatal(err)
		}
		if len(got) > len(base) {
			t.Errorf("consensus with %v grew from %d to %d ranks", p, len(base), len(got))
		}
		if !reflect.DeepEqual(got, base[:len(got)]) {
			t.Errorf("consensus %v is not a prefix of %v", got, base)
		}
	}
}

func TestJoinRanks(t *testing.T) {
	tests := []struct {
		name string
		path []string
		want string
	}{
		{
			name: "genus-level consensus",
			path: []string{"Bacteria", "Bacteria", "Actinomycetota", "Actinomycetes", "Mycobacteriales", "Mycobacteriaceae", "Mycobacterium"},
			want: "d__Bacteria;k__Bacteria;p__Actinomycetota;c__Actinomycetes;o__Mycobacteriales;f__Mycobacteriaceae;g__Mycobacterium",
		},
		{
			name: "subspecies slot",
			path: []string{"a", "b", "c", "d", "e", "f", "g", "h", "i"},
			want: "d__a;k__b;p__c;c__d;o__e;f__f;g__g;s__h;s1__i",
		},
		{
			name: "empty path",
			path: nil,
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := JoinRanks(tt.path); got != tt.want {
				t.Errorf("JoinRanks(%v) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}

func TestConsensusFromTaxonomyStrings(t *testing.T) {
	// end to end: rendered taxonomies in, one consensus taxonomy out
	taxa := []string{
		"d__Bacteria;k__Bacteria;p__Actinomycetota;c__Actinomycetes;o__Mycobacteriales;f__Mycobacteriaceae;g__Mycobacterium;s__Mycobacterium avium",
		"d__Bacteria;k__Bacteria;p__Actinomycetota;c__Actinomycetes;o__Mycobacteriales;f__Mycobacteriaceae;g__Mycobacterium;s__Mycobacterium leprae",
	}
	paths := make([][]string, len(taxa))
	for i, taxon := range taxa {
		paths[i] = SplitTaxon(taxon)
	}
	consensus, err := Consensus(paths)
	if err != nil {
		t.Fatal(err)
	}
	got := JoinRanks(consensus)
	want := "d__Bacteria;k__Bacteria;p__Actinomycetota;c__Actinomycetes;o__Mycobacteriales;f__Mycobacteriaceae;g__Mycobacterium"
	if got != want {
		t.Errorf("consensus = %q, want %q", got, want)
	}
	if strings.Contains(got, "s__") {
		t.Error("species rank leaked into a genus-level consensus")
	}
}
