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
	"path/filepath"
	"strings"
	"sync"

	"github.com/bokulich-lab/q2-moshpit-sub000/moshpit/cmd/taxtree"
	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	prettytable "github.com/tatsushid/go-prettytable"
	"github.com/twotwotwo/sorts/sortutil"
)

var reportInfoCmd = &cobra.Command{
	Use:   "report-info",
	Short: "Print information of classification report files",
	Long: `Print information of classification report files

For every report the number of rows, the size and depth of the taxonomy
tree built from it, and the number of reported tips are shown.

Tips:
  1. For lots of small files (especially on SDD), use big value of '-j' to
     parallelize parsing.

`,
	Run: func(cmd *cobra.Command, args []string) {
		opt := getOptions(cmd)

		var err error

		if opt.Verbose {
			log.Info("checking input files ...")
		}
		files := getFileListFromArgsAndFile(cmd, args, true, "infile-list", true)
		if opt.Verbose {
			if len(files) == 1 && isStdin(files[0]) {
				log.Info("no files given, reading from stdin")
			} else {
				log.Infof("%d input file(s) given", len(files))
			}
		}

		outFile := getFlagString(cmd, "out-file")
		tabular := getFlagBool(cmd, "tabular")
		skipErr := getFlagBool(cmd, "skip-err")
		basename := getFlagBool(cmd, "basename")

		outfh, gw, w, err := outStream(outFile, strings.HasSuffix(strings.ToLower(outFile), ".gz"), opt.CompressionLevel)
		checkError(err)
		defer func() {
			outfh.Flush()
			if gw != nil {
				gw.Close()
			}
			w.Close()
		}()

		writeTabular := func(info reportInfo) {
			outfh.WriteString(fmt.Sprintf(
				"%s\t%s\t%d\t%d\t%d\t%d\n",
				info.file,
				info.sample,
				info.rows,
				info.nodes,
				info.tips,
				info.maxDepth,
			))
			outfh.Flush()
		}

		if tabular {
			outfh.WriteString(strings.Join([]string{
				"file",
				"sample",
				"rows",
				"nodes",
				"tips",
				"max-depth",
			}, "\t") + "\n")
			outfh.Flush()
		}

		ch := make(chan reportInfo, opt.NumCPUs)
		infos := make([]reportInfo, 0, 256)

		cancel := make(chan struct{})

		done := make(chan int)

		go func() {
			var id uint64 = 1 // for keepping order
			buf := make(map[uint64]reportInfo)

			for info := range ch {
				if info.err != nil {
					if skipErr {
						log.Warningf("%s: %s", info.file, info.err)
						continue
					} else {
						log.Errorf("%s: %s", info.file, info.err)
						close(cancel)
						break
					}
				}

				if id == info.id { // right the one
					if !tabular {
						infos = append(infos, info)
					} else {
						writeTabular(info)
					}
					id++
				} else { // check bufferd result
					for true {
						if info1, ok := buf[id]; ok {
							if !tabular {
								infos = append(infos, info1)
							} else {
								writeTabular(info1)
							}

							delete(buf, info1.id)
							id++
						} else {
							break
						}
					}
					buf[info.id] = info
				}
			}

			if len(buf) > 0 {
				ids := make([]uint64, len(buf))
				i := 0
				for id := range buf {
					ids[i] = id
					i++
				}
				sortutil.Uint64s(ids)
				for _, id := range ids {
					info := buf[id]
					if !tabular {
						infos = append(infos, info)
					} else {
						writeTabular(info)
					}
				}
			}

			done <- 1
		}()

		chFile := make(chan string, opt.NumCPUs)
		doneSendFile := make(chan int)
		go func() {
			for _, file := range files {
				select {
				case <-cancel:
					break
				default:
				}
				chFile <- file
			}
			close(chFile)
			doneSendFile <- 1
		}()

		var wg sync.WaitGroup
		token := make(chan int, opt.NumCPUs)
		var id uint64

		for file := range chFile {
			select {
			case <-cancel:
				break
			default:
			}

			token <- 1
			wg.Add(1)
			id++
			go func(file string, id uint64) {
				defer func() {
					wg.Done()
					<-token
				}()

				sample := sampleIDFromFile(file)
				if isStdin(file) {
					sample = "stdin"
				}

				rows, err := readReportRows(file)
				if err != nil {
					select {
					case <-cancel:
						return
					default:
					}
					if basename {
						file = filepath.Base(file)
					}
					ch <- reportInfo{file: file, err: err, id: id}
					return
				}

				tree := taxtree.BuildTree(rows)

				var maxDepth, depth int
				var tips int
				for i := 1; i < len(tree.Nodes); i++ {
					if tree.Nodes[i].ActualTip {
						tips++
					}
					path, err := tree.RankPath(i)
					if err != nil {
						ch <- reportInfo{file: file, err: err, id: id}
						return
					}
					if depth = len(path); depth > maxDepth {
						maxDepth = depth
					}
				}

				if basename {
					file = filepath.Base(file)
				}
				ch <- reportInfo{
					file:     file,
					sample:   sample,
					rows:     len(rows),
					nodes:    len(tree.Nodes) - 1, // not counting the root
					tips:     tips,
					maxDepth: maxDepth,

					err: nil,
					id:  id,
				}

			}(file, id)
		}

		<-doneSendFile
		wg.Wait()
		close(ch)
		<-done

		select {
		case <-cancel:
			return
		default:
		}

		if tabular {
			return
		}

		// format output
		columns := []prettytable.Column{
			{Header: "file"},
			{Header: "sample"},
			{Header: "rows", AlignRight: true},
			{Header: "nodes", AlignRight: true},
			{Header: "tips", AlignRight: true},
			{Header: "max-depth", AlignRight: true},
		}
		tbl, err := prettytable.NewTable(columns...)
		checkError(err)
		tbl.Separator = "  "

		for _, info := range infos {
			tbl.AddRow(
				info.file,
				info.sample,
				humanize.Comma(int64(info.rows)),
				humanize.Comma(int64(info.nodes)),
				humanize.Comma(int64(info.tips)),
				info.maxDepth,
			)
		}
		outfh.Write(tbl.Bytes())
	},
}

type reportInfo struct {
	file     string
	sample   string
	rows     int
	nodes    int
	tips     int
	maxDepth int

	err error
	id  uint64
}

func init() {
	RootCmd.AddCommand(reportInfoCmd)

	reportInfoCmd.Flags().StringP("out-file", "o", "-", formatFlagUsage(`Out file ("-" for stdout, suffix .gz for gzipped out.)`))

	reportInfoCmd.Flags().BoolP("tabular", "T", false, formatFlagUsage("Output in machine-friendly tabular format."))

	reportInfoCmd.Flags().BoolP("skip-err", "e", false, formatFlagUsage("Skip error, only show warning message."))

	reportInfoCmd.Flags().BoolP("basename", "b", false, formatFlagUsage("Only output basename of files."))
}
