package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/caption"
	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/translate"
)

var translateCmd = &cobra.Command{
	Use:   "translate [subtitle_file]",
	Short: "Re-translate the translated line of a bilingual subtitle file",
	Long: `Re-translate an existing bilingual SRT file using an AI provider.

Each block's original line (the second text line) is sent to the provider
and the translated line (the first text line) is replaced with the result.
Use this to redo a generation's translations with a different provider or
target language without re-uploading the media.

Examples:
  vlingo translate video.srt --target-language chinese
  vlingo translate video.srt -t english --provider openai
  vlingo translate video.srt -t chinese --provider anthropic -o retranslated.srt`,
	Args: cobra.ExactArgs(1),
	RunE: runTranslate,
}

func init() {
	rootCmd.AddCommand(translateCmd)

	translateCmd.Flags().
		StringP("target-language", "t", "", "Target language for the translated line (required)")
	translateCmd.Flags().
		StringP("api-key", "k", "", "API key (or set GEMINI_API_KEY/OPENAI_API_KEY/ANTHROPIC_API_KEY env var)")
	translateCmd.Flags().
		String("model", "", "Model to use for translation (provider-specific default)")
	translateCmd.Flags().
		String("provider", "gemini", "Translation provider (gemini, openai, anthropic)")
	translateCmd.Flags().
		Int("concurrency", 3, "Number of parallel translation workers")
	translateCmd.Flags().
		Int("batch-size", 50, "Number of captions per API request")

	_ = translateCmd.MarkFlagRequired("target-language")
}

func apiKeyEnvVar(provider translate.Provider) string {
	switch provider {
	case translate.ProviderGemini:
		return "GEMINI_API_KEY"
	case translate.ProviderOpenAI:
		return "OPENAI_API_KEY"
	case translate.ProviderAnthropic:
		return "ANTHROPIC_API_KEY"
	default:
		return "API_KEY"
	}
}

func runTranslate(cmd *cobra.Command, args []string) error {
	subtitlePath := args[0]
	ctx := cmd.Context()

	targetLang, _ := cmd.Flags().GetString("target-language")
	apiKey, _ := cmd.Flags().GetString("api-key")
	model, _ := cmd.Flags().GetString("model")
	providerStr, _ := cmd.Flags().GetString("provider")
	concurrency, _ := cmd.Flags().GetInt("concurrency")
	batchSize, _ := cmd.Flags().GetInt("batch-size")
	outputPath, _ := cmd.Flags().GetString("output")
	inputLang, _ := cmd.Flags().GetString("language")

	if _, err := os.Stat(subtitlePath); os.IsNotExist(err) {
		return fmt.Errorf("subtitle file not found: %s", subtitlePath)
	}
	if ext := strings.ToLower(filepath.Ext(subtitlePath)); ext != caption.FileExtension {
		return fmt.Errorf("unsupported subtitle format %q: expected %s", ext, caption.FileExtension)
	}

	prov := translate.Provider(providerStr)

	if apiKey == "" {
		apiKey = os.Getenv(apiKeyEnvVar(prov))
	}
	if apiKey == "" {
		return fmt.Errorf(
			"API key is required: use --api-key flag or set the %s environment variable",
			apiKeyEnvVar(prov),
		)
	}

	if outputPath == "" {
		base := strings.TrimSuffix(subtitlePath, filepath.Ext(subtitlePath))
		outputPath = base + ".retranslated" + caption.FileExtension
	}

	logger.Infow("Parsing subtitle file", "input", subtitlePath)

	track, err := caption.ParseSRT(subtitlePath)
	if err != nil {
		return fmt.Errorf("failed to parse subtitle file: %w", err)
	}
	if len(track.Items) == 0 {
		return fmt.Errorf("no captions found in %s", subtitlePath)
	}

	items := make([]translate.TranslationItem, len(track.Items))
	for i, it := range track.Items {
		items[i] = translate.TranslationItem{Index: i, Text: it.OriginalText}
	}

	translator, err := translate.Factory(ctx, prov, apiKey, translate.Options{
		InputLanguage:  inputLang,
		TargetLanguage: targetLang,
		Model:          model,
		BatchSize:      batchSize,
	})
	if err != nil {
		return fmt.Errorf("failed to create translator: %w", err)
	}

	logger.Infow("Translating captions",
		"count", len(items),
		"provider", providerStr,
		"target_language", targetLang,
	)

	var results []translate.TranslationResult
	if ct, ok := translator.(translate.ConcurrentTranslator); ok && concurrency > 1 {
		results, err = ct.TranslateWithConcurrency(ctx, items, concurrency)
	} else {
		results, err = translator.Translate(ctx, items)
	}
	if err != nil {
		return fmt.Errorf("translation failed: %w", err)
	}

	for _, r := range results {
		if r.Index < 0 || r.Index >= len(track.Items) {
			logger.Warnw("Skipping invalid result index", "index", r.Index)
			continue
		}
		track.Items[r.Index].TranslatedText = r.Text
	}

	if err := caption.WriteFile(track, outputPath); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}

	absOutput, _ := filepath.Abs(outputPath)
	fmt.Printf("Subtitles translated successfully: %s\n", absOutput)
	fmt.Printf("  Captions: %d\n", len(track.Items))

	return nil
}
