// ocrsynth - synthetic text image generator for OCR training
//
// ocrsynth renders each line of a text corpus onto a background image with
// randomized geometric and photometric distortions, and writes the images
// with train/val/test label files.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/jmylchreest/ocrsynth/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := cli.NewRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}
