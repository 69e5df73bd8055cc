package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Transcriber converts a grayscale buffer into a text transcript. The OCR
// engine itself stays external; implementations only bridge to it.
type Transcriber interface {
	Transcribe(ctx context.Context, gray []byte, width, height int) (string, error)
}

// TesseractCLI drives a tesseract binary over stdin/stdout pipes: the
// luminance buffer goes in as a binary PGM image, the transcript comes
// back on stdout.
type TesseractCLI struct {
	// Binary is the tesseract executable (default "tesseract")
	Binary string
	// Lang is the recognition language (default "eng")
	Lang string
	// Timeout bounds one transcription call (default 10s)
	Timeout time.Duration
}

// NewTesseractCLI creates a transcriber and verifies the binary is
// resolvable, so a missing engine surfaces at startup rather than on the
// first duty tick.
func NewTesseractCLI(binary, lang string) (*TesseractCLI, error) {
	if binary == "" {
		binary = "tesseract"
	}
	if lang == "" {
		lang = "eng"
	}
	if _, err := exec.LookPath(binary); err != nil {
		return nil, fmt.Errorf("ocr engine not available: %w", err)
	}
	return &TesseractCLI{Binary: binary, Lang: lang, Timeout: 10 * time.Second}, nil
}

// Transcribe runs one OCR pass over the grayscale buffer.
func (t *TesseractCLI) Transcribe(ctx context.Context, gray []byte, width, height int) (string, error) {
	if width <= 0 || height <= 0 || len(gray) < width*height {
		return "", fmt.Errorf("invalid grayscale buffer: %dx%d with %d bytes", width, height, len(gray))
	}

	timeout := t.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	// Binary PGM: header then raw 8-bit samples
	var in bytes.Buffer
	in.Grow(len(gray) + 32)
	fmt.Fprintf(&in, "P5\n%d %d\n255\n", width, height)
	in.Write(gray[:width*height])

	// "stdin stdout" makes tesseract read the image from stdin and print
	// the transcript; psm 6 assumes a uniform block of text, the closest
	// mode to a rendered screen
	cmd := exec.CommandContext(ctx, t.Binary, "stdin", "stdout", "-l", t.Lang, "--psm", "6")
	cmd.Stdin = &in

	var out, stderr bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("tesseract failed: %w (%s)", err, strings.TrimSpace(stderr.String()))
	}
	return out.String(), nil
}
