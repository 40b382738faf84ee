package cli

import (
	"github.com/spf13/cobra"

	"github.com/Felix-bangbang/Vlingo-bilingual-subtitle-generator/internal/logging"
)

var (
	verbose bool
	logger  *logging.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vlingo",
	Short: "AI-powered bilingual subtitle generator",
	Long: `Vlingo turns a video or audio file into bilingual English/Chinese
subtitles using a hosted generative-AI model.

The detected spoken language becomes the original text of each caption and
the other language of the pair becomes the translation.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logging.NewLogger(verbose)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().
		BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output file path")
	rootCmd.PersistentFlags().
		StringP("language", "l", "", "Source language hint (e.g., english, chinese)")
}
