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

package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bokulich-lab/q2-moshpit-sub000/moshpit/cmd/taxtree"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/breader"
	"github.com/shenwei356/util/cliutil"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts/sortutil"
)

var lcaCmd = &cobra.Command{
	Use:   "lca",
	Short: "Compute per-genome consensus taxonomy from contig annotations",
	Long: `Compute per-genome consensus taxonomy from contig annotations

Input:
  1. Taxonomy files with two tab-delimited columns, contig id and a
     ";"-separated taxonomy string (the taxonomy.tsv written by
     "moshpit features" has this layout). A "Feature ID" header line
     is skipped.
  2. A two-column mapping of contig ids to genome (bin/MAG) ids,
     given with -b/--contig-bins.

Output:
  One row per genome: the genome id and the lowest-common-ancestor
  consensus of the taxonomies of its contigs. The consensus keeps
  ranks from the top downwards while all contigs agree, and stops at
  the first rank with a disagreement or a missing label.

Attention:
  1. Contigs absent from the mapping are skipped with a warning.
  2. A genome whose contigs disagree already at the domain rank is
     reported as "d__Unclassified".

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var fhLog *os.File
		if opt.Log2File {
			fhLog = addLog(opt.LogFile, opt.Verbose)
		}
		timeStart := time.Now()
		defer func() {
			if opt.Verbose || opt.Log2File {
				log.Info()
				log.Infof("elapsed time: %s", time.Since(timeStart))
				log.Info()
			}
			if opt.Log2File {
				fhLog.Close()
			}
		}()

		outFile := getFlagString(cmd, "out-file")
		mappingFile := getFlagString(cmd, "contig-bins")
		if mappingFile == "" {
			checkError(fmt.Errorf("flag -b/--contig-bins needed"))
		}

		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)

		contig2bin, err := cliutil.ReadKVs(mappingFile, false)
		checkError(errors.Wrap(err, mappingFile))
		if opt.Verbose || opt.Log2File {
			log.Infof("%s contig-to-genome mapping(s) loaded", humanize.Comma(int64(len(contig2bin))))
		}

		// ---------------------------------------------------------------
		// group classification paths by genome

		type taxEntry struct {
			ID    string
			Taxon string
		}

		fn := func(line string) (interface{}, bool, error) {
			line = strings.TrimRight(line, "\r\n")
			if line == "" || strings.HasPrefix(line, "Feature ID") || line[0] == '#' {
				return nil, false, nil
			}
			items := strings.SplitN(line, "\t", 3)
			if len(items) < 2 {
				return nil, false, fmt.Errorf("invalid taxonomy line: %s", line)
			}
			return taxEntry{ID: items[0], Taxon: items[1]}, true, nil
		}

		paths := make(map[string][][]string, 1024)
		var nContigs, nUnmapped int
		for _, file := range files {
			if opt.Verbose || opt.Log2File {
				log.Infof("  parsing file: %s", file)
			}

			reader, err := breader.NewBufferedReader(file, opt.NumCPUs, 64, fn)
			checkError(err)
			for chunk := range reader.Ch {
				checkError(chunk.Err)
				for _, data := range chunk.Data {
					entry := data.(taxEntry)
					bin, ok := contig2bin[entry.ID]
					if !ok {
						nUnmapped++
						continue
					}
					nContigs++
					paths[bin] = append(paths[bin], taxtree.SplitTaxon(entry.Taxon))
				}
			}
		}
		if nUnmapped > 0 {
			log.Warningf("%s contig(s) skipped: not in the contig-to-genome mapping", humanize.Comma(int64(nUnmapped)))
		}

		binIDs := make([]string, 0, len(paths))
		for bin := range paths {
			binIDs = append(binIDs, bin)
		}
		sortutil.Strings(binIDs)

		// ---------------------------------------------------------------
		// write consensus per genome

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(outFile, ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		outfh.WriteString("Feature ID\tTaxon\n")
		for _, bin := range binIDs {
			consensus, err := taxtree.Consensus(paths[bin])
			checkError(errors.Wrap(err, bin))

			taxon := taxtree.JoinRanks(consensus)
			if taxon == "" {
				taxon = "d__Unclassified"
			}
			outfh.WriteString(bin + "\t" + taxon + "\n")
		}

		if opt.Verbose || opt.Log2File {
			log.Infof("consensus taxonomy of %s genome(s) from %s contig(s) saved to: %s",
				humanize.Comma(int64(len(binIDs))), humanize.Comma(int64(nContigs)), outFile)
		}
	},
}

func init() {
	RootCmd.AddCommand(lcaCmd)

	lcaCmd.Flags().StringP("out-file", "o", "-",
		formatFlagUsage(`Out file, supports and recommends a ".gz" suffix ("-" for stdout).`))
	lcaCmd.Flags().StringP("contig-bins", "b", "",
		formatFlagUsage(`Two-column tab-delimited file mapping contig ids to genome ids.`))
}
