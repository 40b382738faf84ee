package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/media"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/provider"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/workflow"
)

var generateCmd = &cobra.Command{
	Use:   "generate [media_file]",
	Short: "Generate bilingual subtitles for an audio or video file",
	Long: `Generate bilingual subtitles for the specified audio or video file.

The file is uploaded to Google Gemini, which transcribes the speech and
pairs every caption with a translation: the detected spoken language fills
the original line, and the other member of the English/Chinese pair fills
the translated line. Output is a bilingual SRT file with the translation
above the original in each block.

Files larger than 4 GiB are rejected before any upload. Use --extract-audio
to shrink a large video to a small audio track first.

Examples:
  vlingo generate video.mp4
  vlingo generate audio.mp3 --target-language chinese
  vlingo generate video.mp4 --api-key YOUR_KEY --extract-audio
  vlingo generate lecture.mkv -o lecture.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().
		StringP("api-key", "k", "", "Gemini API key (or set GEMINI_API_KEY env var)")
	generateCmd.Flags().
		StringP("target-language", "t", "english", "Language to prioritize in the prompt (english, chinese)")
	generateCmd.Flags().
		String("model", provider.DefaultModel, "Gemini model to use for generation")
	generateCmd.Flags().
		Bool("extract-audio", false, "Extract and compress the audio track before uploading")
	generateCmd.Flags().
		Duration("poll-interval", 2*time.Second, "Delay between processing-status checks")
	generateCmd.Flags().
		Int("max-poll-attempts", 150, "Give up waiting for processing after this many checks")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	mediaPath := args[0]
	ctx := cmd.Context()

	if _, err := os.Stat(mediaPath); os.IsNotExist(err) {
		return fmt.Errorf("file not found: %s", mediaPath)
	}
	if !media.IsMediaFile(mediaPath) {
		return fmt.Errorf("unsupported file type: %s (expected audio or video file)", filepath.Ext(mediaPath))
	}

	apiKey, _ := cmd.Flags().GetString("api-key")
	targetStr, _ := cmd.Flags().GetString("target-language")
	model, _ := cmd.Flags().GetString("model")
	extractAudio, _ := cmd.Flags().GetBool("extract-audio")
	pollInterval, _ := cmd.Flags().GetDuration("poll-interval")
	maxPollAttempts, _ := cmd.Flags().GetInt("max-poll-attempts")
	outputPath, _ := cmd.Flags().GetString("output")

	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("Gemini API key is required: use --api-key flag or set GEMINI_API_KEY environment variable")
	}

	target, err := caption.ParseTargetLanguage(strings.ToLower(targetStr))
	if err != nil {
		return err
	}

	if outputPath == "" {
		baseName := strings.TrimSuffix(mediaPath, filepath.Ext(mediaPath))
		outputPath = baseName + caption.FileExtension
	}

	logger.Infow("Starting subtitle generation",
		"input", mediaPath,
		"output", outputPath,
		"target_language", target,
		"model", model,
	)

	uploadPath := mediaPath
	if extractAudio {
		tempDir, err := os.MkdirTemp("", "vlingo-*")
		if err != nil {
			return fmt.Errorf("failed to create temp directory: %w", err)
		}
		defer os.RemoveAll(tempDir)

		logger.Infow("Extracting audio for upload")
		uploadPath = filepath.Join(tempDir, "audio.mp3")
		if err := media.ExtractAudio(ctx, mediaPath, uploadPath, media.DefaultExtractOptions()); err != nil {
			return fmt.Errorf("failed to extract audio: %w", err)
		}
	}

	file, err := os.Open(uploadPath)
	if err != nil {
		return fmt.Errorf("failed to open media file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat media file: %w", err)
	}

	gemini, err := provider.NewGemini(ctx, apiKey, model)
	if err != nil {
		return fmt.Errorf("failed to create Gemini provider: %w", err)
	}

	gen := workflow.NewGenerator(gemini, workflow.Options{
		Target:          target,
		PollInterval:    pollInterval,
		MaxPollAttempts: maxPollAttempts,
		Status: func(u workflow.StatusUpdate) {
			logger.Infow(u.Detail, "phase", string(u.Phase))
		},
	})

	track, err := gen.Generate(ctx, workflow.Media{
		Reader:   file,
		Size:     info.Size(),
		MIMEType: media.MIMEType(uploadPath),
		Name:     filepath.Base(mediaPath),
	})
	if err != nil {
		return fmt.Errorf("%s", workflow.FriendlyMessage(err))
	}

	if err := track.Validate(); err != nil {
		logger.Warnw("Generated captions have inconsistent timestamps", "error", err)
	}

	if err := caption.WriteFile(track, outputPath); err != nil {
		return fmt.Errorf("failed to write subtitles: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles generated successfully: %s\n", absOutput)
	fmt.Printf("  Captions: %d\n", len(track.Items))

	return nil
}
