// icoder runs 8x8 DCT block coding on single test blocks and on image files.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"

	"github.com/tuomass/icoder-go/pkg/icoder"
)

var errUsage = errors.New("usage")

func main() {
	log.SetFlags(0)
	log.SetPrefix("icoder: ")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Args[1:], os.Stdout); err != nil {
		if errors.Is(err, errUsage) {
			fmt.Fprint(os.Stderr, help)
			os.Exit(2)
		}
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return errUsage
	}

	switch cmd, rest := args[0], args[1:]; cmd {
	case "demo":
		return runDemo(rest, stdout)
	case "encode":
		return runEncode(ctx, rest)
	case "decode":
		return runDecode(ctx, rest)
	case "inspect":
		return runInspect(rest, stdout)
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, help)
		return nil
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, cmd)
	}
}

func runDemo(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("demo", flag.ContinueOnError)
	source := fs.String("source", icoder.PatternFace, "test `pattern`: face, dc or point")
	bits := fs.Int("bits", 0, "quantisation `bits`; 0 disables quantisation")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}

	block, err := icoder.Pattern(*source)
	if err != nil {
		return err
	}
	st, err := icoder.InitCosineTable().RunBlock(block, *bits)
	if err != nil {
		return err
	}
	return printStages(stdout, st)
}

func runEncode(ctx context.Context, args []string) error {
	def := icoder.DefaultEncodeOptions()

	fs := flag.NewFlagSet("encode", flag.ContinueOnError)
	bits := fs.Int("bits", def.QuantBits, "quantisation `bits` per coefficient")
	peak := fs.Float64("peak", def.Peak, "coefficient `magnitude` mapped to the largest code")
	gray := fs.Bool("gray", false, "store the luma plane only")
	raw := fs.Bool("raw", false, "skip zstd compression of the coefficients")
	workers := fs.Int("workers", 0, "parallel block rows; 0 uses GOMAXPROCS")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: encode needs an input image and an output path", errUsage)
	}

	opts := &icoder.EncodeOptions{
		QuantBits: *bits,
		Peak:      *peak,
		Grayscale: *gray,
		Compress:  !*raw,
		Workers:   *workers,
	}
	if err := icoder.EncodeFile(ctx, fs.Arg(0), fs.Arg(1), opts); err != nil {
		return err
	}
	log.Printf("Wrote %s", fs.Arg(1))
	return nil
}

func runDecode(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("decode", flag.ContinueOnError)
	format := fs.String("format", "", "output `format`: png or jpeg; defaults to the output extension")
	quality := fs.Int("quality", 90, "JPEG `quality` (1-100)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %v", errUsage, err)
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: decode needs an input stream and an output path", errUsage)
	}

	if err := icoder.DecodeFile(ctx, fs.Arg(0), fs.Arg(1), *format, *quality); err != nil {
		return err
	}
	log.Printf("Wrote %s", fs.Arg(1))
	return nil
}

func runInspect(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: inspect needs exactly one stream", errUsage)
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	info, err := icoder.Inspect(data)
	if err != nil {
		return err
	}
	return printInfo(stdout, info)
}

const help = `icoder codes images with an 8x8 block DCT, zig-zag scan and
uniform quantisation.
Usage:
	icoder demo [-source face|dc|point] [-bits n]
	icoder encode [-bits n] [-peak p] [-gray] [-raw] [-workers n] in.png out.icd
	icoder decode [-format png|jpeg] [-quality q] in.icd out.png
	icoder inspect in.icd

demo prints every stage of the coding chain for one 8x8 test block.
`
