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
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/bokulich-lab/q2-moshpit-sub000/moshpit/cmd/taxtree"
	humanize "github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/shenwei356/natsort"
	"github.com/spf13/cobra"
	"github.com/vbauerster/mpb/v5"
	"github.com/vbauerster/mpb/v5/decor"
)

var featuresCmd = &cobra.Command{
	Use:   "features",
	Short: "Generate a feature table and taxonomy from classification reports",
	Long: `Generate a feature table and taxonomy from classification reports

Input:
  Tab-delimited classification reports with six columns:
  coverage, clade count, direct count, rank code, taxon id, and an
  indented taxon name (two spaces per level). Plain or gzipped files
  are both accepted.

  One report per sample. Sample identifiers are derived from the file
  names unless -s/--sample-sheet maps them explicitly.

Output (in -O/--out-dir):
  feature-table.tsv  presence/absence matrix, one row per sample and
                     one column per taxon id.
  taxonomy.tsv       rank-padded taxonomy string for every taxon that
                     is present in at least one sample.

Attention:
  1. The coverage threshold (-t) decides which taxa count as present
     in a sample. The taxonomy is always rendered from the unfiltered
     reports, so annotations do not change with the threshold.
  2. Samples in which no taxon passes the threshold are left out of
     the feature table.

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

		outDir := getFlagString(cmd, "out-dir")
		force := getFlagBool(cmd, "force")
		threshold := getFlagNonNegativeFloat64(cmd, "coverage-threshold")
		inDir := getFlagString(cmd, "in-dir")
		filePattern := getFlagString(cmd, "file-pattern")
		sampleSheet := getFlagString(cmd, "sample-sheet")
		skipErr := getFlagBool(cmd, "skip-err")

		if outDir == "" {
			checkError(fmt.Errorf("flag -O/--out-dir needed"))
		}
		if threshold > 100 {
			checkError(fmt.Errorf("value of -t/--coverage-threshold should be in range of [0, 100]: %f", threshold))
		}

		// ---------------------------------------------------------------
		// gather samples

		var ids []string
		var paths map[string]string
		var err error

		if sampleSheet != "" {
			ids, paths, err = readSampleSheet(sampleSheet)
			checkError(errors.Wrap(err, sampleSheet))
		} else {
			files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
			if inDir != "" {
				if len(files) == 1 && isStdin(files[0]) {
					files = files[:0]
				}

				reFile, err := regexp.Compile(`(?i)` + filePattern)
				checkError(errors.Wrapf(err, "failed to parse: -r/--file-pattern"))

				_files, err := getFileListFromDir(inDir, reFile, opt.NumCPUs)
				checkError(errors.Wrapf(err, "walking dir: %s", inDir))
				files = append(files, _files...)
			}
			if len(files) == 0 || (len(files) == 1 && isStdin(files[0]) && !detectStdin()) {
				checkError(fmt.Errorf("no report files given, please check the help message with -h/--help"))
			}

			paths = make(map[string]string, len(files))
			ids = make([]string, 0, len(files))
			for _, file := range files {
				id := sampleIDFromFile(file)
				if isStdin(file) {
					id = "stdin"
				}
				if _, dup := paths[id]; dup {
					checkError(fmt.Errorf("duplicated sample id derived from file names: %s", id))
				}
				ids = append(ids, id)
				paths[id] = file
			}
			natsort.Sort(ids)
		}

		if opt.Verbose || opt.Log2File {
			log.Infof("moshpit v%s", VERSION)
			log.Info("  https://github.com/bokulich-lab/q2-moshpit-sub000")
			log.Info()
			log.Infof("%d sample(s) to process", len(ids))
			log.Infof("coverage threshold: %f%%", threshold)
		}

		// ---------------------------------------------------------------
		// parse reports in parallel

		showProgress := opt.Verbose && len(ids) > 1
		var pbs *mpb.Progress
		var bar *mpb.Bar
		var chDuration chan time.Duration
		var doneDuration chan int
		if showProgress {
			pbs = mpb.New(mpb.WithWidth(79))
			bar = pbs.AddBar(int64(len(ids)),
				mpb.BarStyle("[=>-]<+"),
				mpb.PrependDecorators(
					decor.Name("parsing reports: ", decor.WC{W: len("parsing reports: "), C: decor.DidentRight}),
					decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
				),
				mpb.AppendDecorators(
					decor.EwmaETA(decor.ET_STYLE_GO, 10),
				),
			)

			chDuration = make(chan time.Duration, opt.NumCPUs)
			doneDuration = make(chan int)
			go func() {
				for t := range chDuration {
					bar.Increment()
					bar.DecoratorEwmaUpdate(t)
				}
				doneDuration <- 1
			}()
		}

		type parsedSample struct {
			Rows []taxtree.ReportRow
			Err  error
		}
		results := make([]parsedSample, len(ids))

		var wg sync.WaitGroup
		tokens := make(chan int, opt.NumCPUs)
		for i, id := range ids {
			wg.Add(1)
			tokens <- 1
			go func(i int, file string) {
				startTime := time.Now()
				defer func() {
					wg.Done()
					<-tokens
					if showProgress {
						chDuration <- time.Since(startTime)
					}
				}()

				rows, err := readReportRows(file)
				results[i] = parsedSample{Rows: rows, Err: err}
			}(i, paths[id])
		}
		wg.Wait()
		if showProgress {
			close(chDuration)
			<-doneDuration
			pbs.Wait()
		}

		samples := make([]taxtree.Sample, 0, len(ids))
		var nFailed int
		for i, id := range ids {
			if results[i].Err != nil {
				if skipErr {
					log.Warningf("skipping sample %s: %s", id, results[i].Err)
					nFailed++
					continue
				}
				checkError(errors.Wrap(results[i].Err, paths[id]))
			}
			samples = append(samples, taxtree.Sample{ID: id, Rows: results[i].Rows})
		}
		if nFailed > 0 {
			log.Warningf("%d of %d sample(s) skipped on parse errors", nFailed, len(ids))
		}

		// ---------------------------------------------------------------
		// build and write tables

		table, taxonomy, err := taxtree.BuildFeatureTable(samples, threshold)
		checkError(err)

		if opt.Verbose || opt.Log2File {
			log.Infof("%s taxa present in %s sample(s)",
				humanize.Comma(int64(len(table.Taxa))), humanize.Comma(int64(len(table.Samples))))
			if n := len(samples) - len(table.Samples); n > 0 {
				log.Infof("%d sample(s) dropped: no taxon passed the coverage threshold", n)
			}
		}

		makeOutDir(outDir, force)

		checkError(writeFeatureTable(filepath.Join(outDir, "feature-table.tsv"), table, opt))
		checkError(writeTaxonomy(filepath.Join(outDir, "taxonomy.tsv"), taxonomy, opt))

		if opt.Verbose || opt.Log2File {
			log.Infof("feature table saved to: %s", filepath.Join(outDir, "feature-table.tsv"))
			log.Infof("taxonomy saved to: %s", filepath.Join(outDir, "taxonomy.tsv"))
		}
	},
}

// readReportRows parses one classification report, keeping row order.
func readReportRows(file string) ([]taxtree.ReportRow, error) {
	reader, fh, err := inStream(file)
	if err != nil {
		return nil, err
	}
	if fh != nil {
		defer fh.Close()
	}

	rows := make([]taxtree.ReportRow, 0, 1024)
	var line string
	var lineNum int
	for {
		line, err = reader.ReadString('\n')
		if line != "" {
			lineNum++
			trimmed := strings.TrimRight(line, "\r\n")
			if trimmed != "" {
				row, err := taxtree.ParseReportLine(trimmed)
				if err != nil {
					return nil, fmt.Errorf("line %d: %s", lineNum, err)
				}
				rows = append(rows, row)
			}
		}
		if err != nil {
			break
		}
	}
	return rows, nil
}

func writeFeatureTable(file string, table *taxtree.FeatureTable, opt *Options) error {
	outfh, gw, w, err := outStream(file, strings.HasSuffix(file, ".gz"), opt.CompressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	outfh.WriteString("#SampleID")
	for _, taxon := range table.Taxa {
		outfh.WriteString("\t" + taxon)
	}
	outfh.WriteString("\n")

	for _, sample := range table.Samples {
		outfh.WriteString(sample)
		for _, taxon := range table.Taxa {
			if table.Present(sample, taxon) {
				outfh.WriteString("\t1")
			} else {
				outfh.WriteString("\t0")
			}
		}
		outfh.WriteString("\n")
	}
	return nil
}

func writeTaxonomy(file string, taxonomy *taxtree.TaxonomyTable, opt *Options) error {
	outfh, gw, w, err := outStream(file, strings.HasSuffix(file, ".gz"), opt.CompressionLevel)
	if err != nil {
		return err
	}
	defer func() {
		outfh.Flush()
		if gw != nil {
			gw.Close()
		}
		w.Close()
	}()

	outfh.WriteString("Feature ID\tTaxon\n")
	for _, id := range taxonomy.IDs {
		outfh.WriteString(id + "\t" + taxonomy.Taxa[id] + "\n")
	}
	return nil
}

func init() {
	RootCmd.AddCommand(featuresCmd)

	featuresCmd.Flags().StringP("out-dir", "O", "",
		formatFlagUsage(`Output directory.`))
	featuresCmd.Flags().BoolP("force", "", false,
		formatFlagUsage(`Overwrite existing output directory.`))
	featuresCmd.Flags().Float64P("coverage-threshold", "t", 0,
		formatFlagUsage(`Keep a taxon as present in a sample only if the percent coverage of its clade is >= this value. range: [0, 100]`))
	featuresCmd.Flags().StringP("in-dir", "I", "",
		formatFlagUsage(`Directory containing classification reports. Directory symlinks are followed.`))
	featuresCmd.Flags().StringP("file-pattern", "r", `\.(report|kreport2?|txt|tsv)(\.gz)?$`,
		formatFlagUsage(`Regular expression for matching report files in -I/--in-dir, case ignored.`))
	featuresCmd.Flags().StringP("sample-sheet", "s", "",
		formatFlagUsage(`YAML file mapping sample ids to report files, used instead of positional arguments. Sample order follows the sheet.`))
	featuresCmd.Flags().BoolP("skip-err", "", false,
		formatFlagUsage(`Skip samples whose reports fail to parse, with a warning.`))
}
