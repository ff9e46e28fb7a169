package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_Usage(t *testing.T) {
	var out bytes.Buffer
	for _, args := range [][]string{nil, {"frobnicate"}, {"encode", "only-one"}, {"inspect"}} {
		if err := run(context.Background(), args, &out); !errors.Is(err, errUsage) {
			t.Errorf("run(%v): expected usage error, got %v", args, err)
		}
	}

	out.Reset()
	if err := run(context.Background(), []string{"help"}, &out); err != nil {
		t.Fatalf("help failed: %v", err)
	}
	if !strings.Contains(out.String(), "icoder demo") {
		t.Errorf("help output missing usage: %q", out.String())
	}
}

func TestRun_Demo(t *testing.T) {
	var out bytes.Buffer
	if err := run(context.Background(), []string{"demo", "-source", "dc", "-bits", "5"}, &out); err != nil {
		t.Fatalf("demo failed: %v", err)
	}

	s := out.String()
	for _, title := range []string{"Scaled source block", "DCT coefficients", "Zig-zag scanned", "Quantized", "Descanned", "Inverse DCT"} {
		if !strings.Contains(s, title) {
			t.Errorf("demo output missing %q", title)
		}
	}
	if !strings.Contains(s, "512.000") {
		t.Errorf("expected DC coefficient 512.000 in output:\n%s", s)
	}

	if err := run(context.Background(), []string{"demo", "-source", "nope"}, &out); err == nil {
		t.Errorf("expected error for unknown pattern")
	}
}

func TestRun_EncodeInspectDecode(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "in.png")
	stream := filepath.Join(dir, "in.icd")
	output := filepath.Join(dir, "out.png")

	img := image.NewRGBA(image.Rect(0, 0, 24, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 24; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 15), B: 90, A: 255})
		}
	}
	f, err := os.Create(input)
	if err != nil {
		t.Fatalf("failed to create input: %v", err)
	}
	if err := png.Encode(f, img); err != nil {
		t.Fatalf("failed to encode input: %v", err)
	}
	f.Close()

	ctx := context.Background()
	var out bytes.Buffer
	if err := run(ctx, []string{"encode", "-bits", "12", "-gray", input, stream}, &out); err != nil {
		t.Fatalf("encode failed: %v", err)
	}
	if err := run(ctx, []string{"inspect", stream}, &out); err != nil {
		t.Fatalf("inspect failed: %v", err)
	}
	for _, want := range []string{"24x16", "3x2", "12 bits"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("inspect output missing %q:\n%s", want, out.String())
		}
	}
	for _, line := range strings.Split(out.String(), "\n") {
		if f := strings.Fields(line); len(f) == 2 && f[0] == "channels:" && f[1] != "1" {
			t.Errorf("expected 1 channel, got %q", line)
		}
	}

	if err := run(ctx, []string{"decode", stream, output}, &out); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if _, err := os.Stat(output); err != nil {
		t.Errorf("expected decoded image: %v", err)
	}
}
