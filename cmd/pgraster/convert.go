package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/eak1mov/go-pgraster/mb"
	"github.com/eak1mov/go-pgraster/raster"
	"github.com/eak1mov/go-pgraster/tile"
	"github.com/google/subcommands"
	"github.com/schollz/progressbar/v3"
)

type convertCmd struct {
	inputFormat  string
	inputPath    string
	outputFormat string
	outputPath   string
	padded       bool
}

func (c *convertCmd) Name() string     { return "convert" }
func (c *convertCmd) Synopsis() string { return "convert between raster tile storage formats" }
func (c *convertCmd) Usage() string {
	return "pgraster convert -i <path> -o <path> [-if <format> | -of <format>] [-padded]\n"
}
func (c *convertCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.inputPath, "i", "", "Input path")
	f.StringVar(&c.inputFormat, "if", "", "Input format (mbtiles, xyz)")
	f.StringVar(&c.outputPath, "o", "", "Output path")
	f.StringVar(&c.outputFormat, "of", "", "Output format (mbtiles, xyz)")
	f.BoolVar(&c.padded, "padded", false, "Bands always carry a nodata slot, on both sides")
}

func (c *convertCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	inputFormat := deduceFormat(c.inputFormat, c.inputPath)
	outputFormat := deduceFormat(c.outputFormat, c.outputPath)
	opts := wkbOptions(c.padded)

	reader, err := openReader(inputFormat, c.inputPath, raster.NewMemDriver(), opts)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := reader.(io.Closer); ok {
		defer closer.Close()
	}

	var metadata map[string]string
	if r, ok := reader.(*mb.Reader); ok {
		if metadata, err = r.ReadMetadata(); err != nil {
			log.Println(err)
			return subcommands.ExitFailure
		}
	}

	writer, err := openWriter(outputFormat, c.outputPath, metadata, opts)
	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}
	if closer, ok := writer.(io.Closer); ok {
		defer closer.Close()
	}

	bar := progressbar.NewOptions(-1, progressbar.OptionShowIts(), progressbar.OptionShowCount())
	err = reader.VisitTiles(func(tileID tile.ID, ds raster.Dataset) error {
		err := writer.WriteTile(tileID, ds)
		bar.Add(1)
		return err
	})
	bar.Finish()
	fmt.Println()

	if err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	if err := writer.Finalize(); err != nil {
		log.Println(err)
		return subcommands.ExitFailure
	}

	return subcommands.ExitSuccess
}
