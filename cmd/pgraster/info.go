package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"math"
	"os"

	"github.com/eak1mov/go-pgraster/codec"
	"github.com/eak1mov/go-pgraster/wkb"
	"github.com/google/subcommands"
)

type infoCmd struct {
	inputPath string
	padded    bool
}

func (c *infoCmd) Name() string     { return "info" }
func (c *infoCmd) Synopsis() string { return "print header and bands of a hex WKB raster" }
func (c *infoCmd) Usage() string {
	return "pgraster info -i <path> [-padded]\n"
}
func (c *infoCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input file with hex WKB")
	f.BoolVar(&c.padded, "padded", false, "Bands always carry a nodata slot")
}

func (c *infoCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	doc, err := readDocument(c.inputPath, wkbOptions(c.padded)...)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if err := printDocument(os.Stdout, doc); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func printDocument(w io.Writer, doc *wkb.Document) error {
	gt := doc.GeoTransform
	fmt.Fprintf(w, "size:   %dx%d\n", doc.Width, doc.Height)
	fmt.Fprintf(w, "srid:   %d\n", doc.SRID)
	fmt.Fprintf(w, "origin: %v, %v\n", gt[0], gt[3])
	fmt.Fprintf(w, "scale:  %v, %v\n", gt[1], gt[5])
	fmt.Fprintf(w, "skew:   %v, %v\n", gt[2], gt[4])
	fmt.Fprintf(w, "bands:  %d\n", len(doc.Bands))

	for i, band := range doc.Bands {
		code, err := band.Type.PackCode()
		if err != nil {
			return err
		}
		low, high := math.Inf(1), math.Inf(-1)
		for offset := 0; offset < len(band.Data); offset += code.Width() {
			v, err := codec.Value(code, band.Data[offset:])
			if err != nil {
				return err
			}
			if band.HasNodata && v == band.Nodata {
				continue
			}
			low, high = min(low, v), max(high, v)
		}

		nodata := "none"
		if band.HasNodata {
			nodata = fmt.Sprint(band.Nodata)
		}
		if low > high {
			fmt.Fprintf(w, "band %d: %v nodata=%s (no data)\n", i, band.Type, nodata)
			continue
		}
		fmt.Fprintf(w, "band %d: %v nodata=%s min=%v max=%v\n", i, band.Type, nodata, low, high)
	}
	return nil
}
