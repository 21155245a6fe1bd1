package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/better-hash/ai-video-generator/internal/gateway"
)

func newDownloadCommand(ctx *commandContext) *cobra.Command {
	var outputPath string
	var overwrite bool
	cmd := &cobra.Command{
		Use:   "download <video-url>",
		Short: "Download a finished video",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !overwrite && fileExists(outputPath) {
				return fmt.Errorf("%s already exists (use --overwrite to replace it)", outputPath)
			}
			client, err := ctx.gatewayClient(false)
			if err != nil {
				return err
			}
			return downloadVideo(cmd, client, args[0], outputPath, false)
		},
	}
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Destination file")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "Replace an existing file")
	_ = cmd.MarkFlagRequired("output")
	return cmd
}

// downloadVideo streams videoURL into path through a temporary file so a
// failed transfer never leaves a truncated video behind.
func downloadVideo(cmd *cobra.Command, client *gateway.Client, videoURL, path string, quiet bool) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.part")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	errOut := cmd.ErrOrStderr()
	var bar *progressbar.ProgressBar
	progress := func(written, total int64) {
		if quiet {
			return
		}
		if bar == nil {
			bar = progressbar.NewOptions64(total,
				progressbar.OptionSetWriter(errOut),
				progressbar.OptionSetDescription("downloading"),
				progressbar.OptionShowBytes(true),
				progressbar.OptionSetWidth(30),
				progressbar.OptionThrottle(100*time.Millisecond),
				progressbar.OptionClearOnFinish(),
			)
		}
		_ = bar.Set64(written)
	}

	start := time.Now()
	n, err := client.Download(cmd.Context(), videoURL, tmp, progress)
	if bar != nil {
		_ = bar.Finish()
	}
	if closeErr := tmp.Close(); err == nil && closeErr != nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("download video: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("move download into place: %w", err)
	}
	if !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "Saved %s (%s in %s)\n", path, humanize.Bytes(uint64(n)), time.Since(start).Round(time.Millisecond))
	}
	return nil
}
