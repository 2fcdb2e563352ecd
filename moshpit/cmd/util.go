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
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/iafan/cwalk"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/shenwei356/util/pathutil"
	"github.com/shenwei356/xopen"
	"github.com/spf13/cobra"
	"github.com/twotwotwo/sorts"
	yaml "gopkg.in/yaml.v2"
)

// Options contains the global flags
type Options struct {
	NumCPUs int
	Verbose bool

	LogFile  string
	Log2File bool

	Compress         bool
	CompressionLevel int
}

func getOptions(cmd *cobra.Command) *Options {
	threads := getFlagNonNegativeInt(cmd, "threads")
	if threads == 0 {
		threads = runtime.NumCPU()
	}

	sorts.MaxProcs = threads
	runtime.GOMAXPROCS(threads)

	logfile := getFlagString(cmd, "log")
	return &Options{
		NumCPUs: threads,
		Verbose: !getFlagBool(cmd, "quiet"),

		LogFile:  logfile,
		Log2File: logfile != "",

		Compress:         true,
		CompressionLevel: -1,
	}
}

func makeOutDir(outDir string, force bool) {
	pwd, _ := os.Getwd()
	if outDir != "./" && outDir != "." && pwd != filepath.Clean(outDir) {
		existed, err := pathutil.DirExists(outDir)
		checkError(errors.Wrap(err, outDir))
		if existed {
			empty, err := pathutil.IsEmpty(outDir)
			checkError(errors.Wrap(err, outDir))
			if !empty {
				if force {
					log.Infof("removing old output directory: %s", outDir)
					checkError(os.RemoveAll(outDir))
				} else {
					checkError(fmt.Errorf("out-dir not empty: %s, use --force to overwrite", outDir))
				}
			} else {
				checkError(os.RemoveAll(outDir))
			}
		}
		checkError(os.MkdirAll(outDir, 0777))
	}
}

func getFileListFromDir(path string, pattern *regexp.Regexp, threads int) ([]string, error) {
	files := make([]string, 0, 512)
	ch := make(chan string, threads)
	done := make(chan int)
	go func() {
		for file := range ch {
			files = append(files, file)
		}
		done <- 1
	}()

	cwalk.NumWorkers = threads
	err := cwalk.WalkWithSymlinks(path, func(_path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && pattern.MatchString(info.Name()) {
			ch <- filepath.Join(path, _path)
		}
		return nil
	})
	close(ch)
	<-done
	if err != nil {
		return nil, err
	}

	return files, err
}

// readSampleSheet parses a YAML mapping of sample identifiers to report
// files, keeping the order in which samples appear in the file. The sheet
// may be gzipped, and paths may start with "~/".
func readSampleSheet(file string) ([]string, map[string]string, error) {
	fh, err := xopen.Ropen(file)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to read sample sheet %s: %s", file, err)
	}
	defer fh.Close()

	data, err := io.ReadAll(fh)
	if err != nil {
		return nil, nil, fmt.Errorf("fail to read sample sheet %s: %s", file, err)
	}

	var sheet yaml.MapSlice
	if err = yaml.Unmarshal(data, &sheet); err != nil {
		return nil, nil, fmt.Errorf("fail to parse sample sheet %s: %s", file, err)
	}

	ids := make([]string, 0, len(sheet))
	paths := make(map[string]string, len(sheet))
	for _, item := range sheet {
		id, ok := item.Key.(string)
		if !ok || id == "" {
			return nil, nil, fmt.Errorf("invalid sample id in sample sheet: %v", item.Key)
		}
		path, ok := item.Value.(string)
		if !ok || path == "" {
			return nil, nil, fmt.Errorf("invalid report path for sample %s: %v", id, item.Value)
		}
		if _, dup := paths[id]; dup {
			return nil, nil, fmt.Errorf("duplicated sample id in sample sheet: %s", id)
		}

		path, err = homedir.Expand(path)
		if err != nil {
			return nil, nil, errors.Wrap(err, id)
		}
		ids = append(ids, id)
		paths[id] = path
	}
	return ids, paths, nil
}

var reReportSuffix = regexp.MustCompile(`(?i)\.(report|kreport2?|txt|tsv)$`)

// sampleIDFromFile derives a sample identifier from a report file name.
func sampleIDFromFile(file string) string {
	base := filepath.Base(file)
	if gz := strings.HasSuffix(base, ".gz") || strings.HasSuffix(base, ".GZ"); gz {
		base = base[:len(base)-3]
	}
	if loc := reReportSuffix.FindStringIndex(base); loc != nil {
		return base[:loc[0]]
	}
	return base
}
