package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// Writes a sample media directory to point MEDIA_ROOT at.
func main() {
	outputDir := flag.String("out", "./test_data", "Destination directory")
	videoSize := flag.Int64("size", 2_500_000, "Size in bytes of the generated binary")
	flag.Parse()

	if err := os.MkdirAll(*outputDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "Cannot create %s: %v\n", *outputDir, err)
		os.Exit(1)
	}

	fmt.Println("Generating sample media...")

	steps := []struct {
		name string
		gen  func(path string) error
	}{
		{"report.pdf", genPDF},
		{"images/capture.png", genImage},
		{"sample.bin", func(path string) error { return genBinary(path, *videoSize) }},
	}
	for _, step := range steps {
		path := filepath.Join(*outputDir, filepath.FromSlash(step.name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "Cannot create %s: %v\n", filepath.Dir(path), err)
			os.Exit(1)
		}
		if err := step.gen(path); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", step.name, err)
			os.Exit(1)
		}
		fmt.Printf("Generated %s\n", path)
	}

	fmt.Printf("\nDone, set MEDIA_ROOT=%s\n", *outputDir)
}

// genPDF writes a one page document, it is sniffed as application/pdf by the catalog.
func genPDF(path string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 20)
	pdf.Cell(40, 20, "Stream-Lab : ranged PDF")
	pdf.Ln(20)

	pdf.SetFont("Arial", "", 12)
	pdf.MultiCell(0, 10, "This document is served in chunks of CHUNK_SIZE bytes.", "", "", false)

	return pdf.OutputFileAndClose(path)
}

func genImage(path string) error {
	width, height := 800, 600
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		for y := 0; y < height; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 255), G: 100, B: 200, A: 0xff})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, img)
}

// genBinary writes size pseudo random bytes, enough to span several chunks.
func genBinary(path string, size int64) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	rng := rand.New(rand.NewPCG(uint64(size), 42))
	_, err = io.CopyN(f, randomReader{rng}, size)
	return err
}

type randomReader struct {
	rng *rand.Rand
}

func (r randomReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r.rng.Uint32())
	}
	return len(p), nil
}
