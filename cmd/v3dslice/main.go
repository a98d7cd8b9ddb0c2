// v3dslice exports one x-y plane of a Vaa3D volume as a JPEG 2000 codestream.
//
// Usage:
//
//	v3dslice -z <z> [-c <channel>] infile outfile.j2k
//
// The slice is encoded as a 16-bit grayscale image. 8-bit volumes are
// widened to 16 bits.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mrjoshuak/go-vaa3d/v3d"
	"github.com/mrjoshuak/go-vaa3d/v3dutil"
)

func main() {
	z := flag.Int("z", 0, "z index of the slice")
	c := flag.Int("c", 0, "channel of the slice")
	legacy := flag.Bool("legacy", false, "read headers with 2-byte dimensions")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: v3dslice -z <z> [-c <channel>] infile outfile.j2k\n\n")
		fmt.Fprintf(os.Stderr, "Export one slice of a Vaa3D volume as JPEG 2000.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	args := flag.Args()
	if len(args) != 2 {
		flag.Usage()
		os.Exit(2)
	}

	if err := export(args[0], args[1], *z, *c, *legacy); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func export(inFile, outFile string, z, c int, legacy bool) error {
	in, err := v3dutil.Open(inFile, &v3d.ReadOptions{LegacySizes: legacy})
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(outFile)
	if err != nil {
		return err
	}
	err = v3dutil.ExportSliceJ2K(in.Reader, z, c, out)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outFile)
	}
	return err
}
