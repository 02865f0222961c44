// Command inspect parses a model header and dumps every field, for
// triage of assets that fail conversion. Converted files are detected
// by magic; source schemas have none, so their version must be named.
package main

import (
	"encoding/binary"
	"flag"
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"

	"rmdlconv/internal/studio"
)

func main() {
	version := flag.String("version", "", "Source schema version (14, 15, 16..19, 19.1)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Usage: inspect [-version V] model.rmdl")
		os.Exit(1)
	}

	data, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	r := studio.NewReader(data)

	var hdr any
	switch *version {
	case "14", "14.1", "15":
		hdr = &studio.StudioHdr140{}
	case "16", "17", "18", "19":
		hdr = &studio.StudioHdr160{}
	case "19.1":
		hdr = &studio.StudioHdr191{}
	case "":
		if len(data) < 8 || binary.LittleEndian.Uint32(data) != studio.IDStudioHeader {
			fmt.Fprintln(os.Stderr, "Error: no studio magic; pass -version for source schemas")
			os.Exit(1)
		}
		hdr = &studio.StudioHdr{}
	default:
		fmt.Fprintf(os.Stderr, "Error: unknown version %q\n", *version)
		os.Exit(1)
	}

	if err := r.Struct(0, hdr); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s: %d bytes\n", flag.Arg(0), len(data))
	spew.Dump(hdr)
}
