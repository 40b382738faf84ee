package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/media"
)

var extractCmd = &cobra.Command{
	Use:   "extract [video_file]",
	Short: "Extract a compressed audio track from a video file",
	Long: `Extract the audio track from a video file into a small compressed file.

Useful for shrinking a large video below the 4 GiB upload limit before
running generate, or for sharing just the audio.

Examples:
  vlingo extract video.mp4
  vlingo extract video.mkv --format wav
  vlingo extract video.mp4 -o audio.mp3 --bitrate 128k`,
	Args: cobra.ExactArgs(1),
	RunE: runExtract,
}

func init() {
	rootCmd.AddCommand(extractCmd)

	extractCmd.Flags().
		String("format", "mp3", "Audio format (mp3, wav, flac)")
	extractCmd.Flags().
		Int("sample-rate", 16000, "Audio sample rate in Hz")
	extractCmd.Flags().
		Int("channels", 1, "Number of audio channels")
	extractCmd.Flags().
		String("bitrate", "64k", "Audio bitrate for lossy formats")
}

func runExtract(cmd *cobra.Command, args []string) error {
	videoPath := args[0]
	ctx := cmd.Context()

	if _, err := os.Stat(videoPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", videoPath)
	}
	if !media.IsVideoFile(videoPath) {
		return fmt.Errorf("unsupported file type: %s (expected video file)", filepath.Ext(videoPath))
	}

	format, _ := cmd.Flags().GetString("format")
	sampleRate, _ := cmd.Flags().GetInt("sample-rate")
	channels, _ := cmd.Flags().GetInt("channels")
	bitrate, _ := cmd.Flags().GetString("bitrate")
	outputPath, _ := cmd.Flags().GetString("output")

	if outputPath == "" {
		baseName := strings.TrimSuffix(videoPath, filepath.Ext(videoPath))
		outputPath = baseName + "." + format
	}

	logger.Infow("Extracting audio",
		"input", videoPath,
		"output", outputPath,
		"format", format,
	)

	opts := media.ExtractOptions{
		Format:     format,
		SampleRate: sampleRate,
		Channels:   channels,
		Bitrate:    bitrate,
	}
	if err := media.ExtractAudio(ctx, videoPath, outputPath, opts); err != nil {
		return fmt.Errorf("failed to extract audio: %w", err)
	}

	info, err := os.Stat(outputPath)
	if err != nil {
		return fmt.Errorf("extraction produced no output: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Audio extracted successfully: %s\n", absOutput)
	fmt.Printf("  Size: %.1f MB\n", float64(info.Size())/(1<<20))

	return nil
}
