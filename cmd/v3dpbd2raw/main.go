// v3dpbd2raw converts Vaa3D PBD volumes to uncompressed .v3draw files.
//
// Usage:
//
//	v3dpbd2raw [options] infile outfile [infile outfile ...]
//
// Options:
//
//	-z <container>  wrap the output in a container (gzip, zstd)
//	-j <n>          number of files converted in parallel (default: number of CPUs)
//	-legacy         read headers with 2-byte dimensions
//	-q              only report errors
//	-version        show version information
//
// Exit codes:
//
//	0: All files converted
//	1: One or more conversions failed
//	2: Usage error
package main

import (
	"flag"
	"fmt"
	"os"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/mrjoshuak/go-vaa3d/v3d"
	"github.com/mrjoshuak/go-vaa3d/v3dutil"
)

const version = "1.0.0"

func main() {
	containerStr := flag.String("z", "", "output container (gzip, zstd)")
	jobs := flag.Int("j", runtime.NumCPU(), "number of parallel conversions")
	legacy := flag.Bool("legacy", false, "read headers with 2-byte dimensions")
	quiet := flag.Bool("q", false, "only report errors")
	showVersion := flag.Bool("version", false, "show version information")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: v3dpbd2raw [options] infile outfile [infile outfile ...]\n\n")
		fmt.Fprintf(os.Stderr, "Decompress Vaa3D PBD volumes (.v3dpbd) into raw volumes (.v3draw).\n")
		fmt.Fprintf(os.Stderr, "Inputs may also be raw volumes or gzip/zstd wrapped files.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("v3dpbd2raw version %s\n", version)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 || len(args)%2 != 0 {
		flag.Usage()
		os.Exit(2)
	}
	container, err := v3dutil.ParseContainer(*containerStr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	if *jobs < 1 {
		fmt.Fprintf(os.Stderr, "Error: -j must be at least 1\n")
		os.Exit(2)
	}

	opts := v3dutil.ConvertOptions{
		Container: container,
		Read:      &v3d.ReadOptions{LegacySizes: *legacy},
	}

	var failed atomic.Int32
	var g errgroup.Group
	g.SetLimit(*jobs)
	for i := 0; i < len(args); i += 2 {
		in, out := args[i], args[i+1]
		g.Go(func() error {
			res, err := v3dutil.ConvertFile(in, out, opts)
			if err != nil {
				fmt.Fprintf(os.Stderr, "%s: error: %v\n", in, err)
				failed.Add(1)
				return nil
			}
			if !*quiet {
				report(in, out, res)
			}
			return nil
		})
	}
	g.Wait()

	if n := failed.Load(); n > 0 {
		if !*quiet {
			fmt.Fprintf(os.Stderr, "%d of %d conversions failed\n", n, len(args)/2)
		}
		os.Exit(1)
	}
}

func report(in, out string, res *v3dutil.ConvertResult) {
	h := res.Header
	fmt.Printf("%s -> %s: %s %s %dx%dx%dx%d, %d bytes",
		in, out, h.Format, h.DataType,
		h.Size[v3d.DimX], h.Size[v3d.DimY], h.Size[v3d.DimZ], h.Size[v3d.DimC],
		res.DataBytes)
	if h.Format == v3d.FormatPBD {
		fmt.Printf(" (ratio %.2f)", res.Stats.Ratio())
	}
	fmt.Println()
}
