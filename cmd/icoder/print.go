package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/tuomass/icoder-go/pkg/icoder"
)

func printStages(out io.Writer, st *icoder.BlockStages) error {
	w := tabwriter.NewWriter(out, 9, 1, 1, ' ', tabwriter.AlignRight)

	stages := []struct {
		title string
		data  []float64
	}{
		{"Scaled source block", st.Source},
		{"DCT coefficients", st.Coefficients},
		{fmt.Sprintf("Zig-zag scanned, gain %.6f", st.Gain), st.ZigZag},
		{"Quantized", st.Quantized},
		{"Descanned", st.Descanned},
		{"Inverse DCT", st.Reconstructed},
	}
	for i, s := range stages {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, s.title)
		printBlock(w, s.data)
	}
	return w.Flush()
}

// printBlock writes 64 values as an 8x8 grid
func printBlock(w io.Writer, data []float64) {
	for row := 0; row < icoder.BlockSize; row++ {
		for col := 0; col < icoder.BlockSize; col++ {
			fmt.Fprintf(w, "%.3f\t", data[row*icoder.BlockSize+col])
		}
		fmt.Fprintln(w)
	}
}

func printInfo(out io.Writer, info *icoder.StreamInfo) error {
	w := tabwriter.NewWriter(out, 0, 1, 2, ' ', 0)
	fmt.Fprintf(w, "size:\t%dx%d\n", info.Width, info.Height)
	fmt.Fprintf(w, "blocks:\t%dx%d\n", info.BlocksAcross, info.BlocksDown)
	fmt.Fprintf(w, "channels:\t%d\n", info.Channels)
	fmt.Fprintf(w, "quantisation:\t%d bits, peak %g\n", info.QuantBits, info.Peak)
	fmt.Fprintf(w, "compressed:\t%t\n", info.Compressed)
	fmt.Fprintf(w, "payload:\t%d bytes\n", info.PayloadBytes)
	fmt.Fprintf(w, "stream:\t%d bytes (%.3f bits/pixel)\n", info.StreamBytes, info.BitsPerPixel)
	return w.Flush()
}
