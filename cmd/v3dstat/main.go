// v3dstat prints the header of a Vaa3D volume and, for PBD volumes, the
// statistics of its compressed runs.
//
// Usage:
//
//	v3dstat [-svg chart.svg] [-legacy] infile [infile ...]
//
// With -svg, a bar chart of the samples produced by each run kind is written
// for the last input file.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-vaa3d/v3d"
	"github.com/mrjoshuak/go-vaa3d/v3dutil"
)

func main() {
	svgFile := flag.String("svg", "", "write a run chart as SVG")
	legacy := flag.Bool("legacy", false, "read headers with 2-byte dimensions")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: v3dstat [-svg chart.svg] [-legacy] infile [infile ...]\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	opts := &v3d.ReadOptions{LegacySizes: *legacy}
	status := 0
	for i, path := range files {
		chart := ""
		if i == len(files)-1 {
			chart = *svgFile
		}
		if err := stat(path, chart, opts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: error: %v\n", path, err)
			status = 1
		}
	}
	os.Exit(status)
}

func stat(path, svgFile string, opts *v3d.ReadOptions) error {
	info, err := v3dutil.GetFileInfo(path, opts)
	if err != nil {
		return err
	}
	fmt.Printf("%s:\n", path)
	fmt.Printf("  format     %s", info.Format)
	if info.Container != v3dutil.ContainerNone {
		fmt.Printf(" in %s", info.Container)
	}
	fmt.Println()
	fmt.Printf("  byte order %s\n", info.ByteOrder)
	fmt.Printf("  data type  %s\n", info.DataType)
	fmt.Printf("  size       %d x %d x %d, %d channels\n", info.Size[0], info.Size[1], info.Size[2], info.Size[3])
	fmt.Printf("  data       %d bytes in a %d byte file\n", info.DataBytes, info.FileSize)

	if info.Format != v3d.FormatPBD {
		if svgFile != "" {
			return fmt.Errorf("%s volume has no runs to chart", info.Format)
		}
		return nil
	}

	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	stats, err := v3dutil.CollectStats(f, opts)
	if err != nil {
		return err
	}
	fmt.Print(v3dutil.FormatStats(stats))

	if svgFile == "" {
		return nil
	}
	out, err := os.Create(svgFile)
	if err != nil {
		return err
	}
	err = v3dutil.RunChart(out, stats, path)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	return err
}
