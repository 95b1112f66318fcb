package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/credx/credx-matcher/internal/ai"
	"github.com/credx/credx-matcher/internal/ai/gemini"
	"github.com/credx/credx-matcher/internal/logger"
	"github.com/credx/credx-matcher/internal/resume"
	"github.com/credx/credx-matcher/internal/secrets"
)

var parseCmd = &cobra.Command{
	Use:   "parse <resume.pdf>",
	Short: "Extract a structured resume record from a PDF document",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		parse(args[0])
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
}

func parse(path string) {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logger.Fatal("reading the document", zap.Error(err))
	}

	parser := resume.NewParser(newExtractor(ctx, config.gemini(), logger), config.maxUploadBytes(), logger)

	extraction, err := parser.Parse(ctx, data)
	if err != nil {
		failParse(logger, err)
	}

	if extraction.Status == ai.StatusRepaired {
		logger.Warn("some resume fields were dropped during repair",
			zap.Strings("dropped", extraction.Dropped),
			zap.Float64("raw_confidence", extraction.Resume.RawConfidence),
		)
	}

	pretty, err := json.MarshalIndent(extraction, "", "  ")
	if err != nil {
		logger.Fatal("encoding the extraction", zap.Error(err))
	}
	fmt.Println(string(pretty))
}

// newExtractor wires the Gemini generator and the structured extractor.
// A missing credential degrades the generator instead of failing here;
// text extraction still works without it.
func newExtractor(ctx context.Context, cfg *GeminiConfig, base *zap.Logger) *gemini.Extractor {
	apiKey, err := secrets.Load(secrets.Source{
		Name:  "gemini api key",
		Value: cfg.APIKey,
		File:  cfg.APIKeyFile,
	})
	if err != nil {
		base.Warn("gemini api key is not available, structured extraction will be degraded",
			zap.Error(err),
			zap.String("hint", "set GEMINI_API_KEY_FILE environment variable or the 'api-key-file' key under ai.gemini in the configuration file"),
		)
	}

	generator := gemini.NewGenerator(ctx, gemini.Config{
		APIKey:      apiKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}, base)

	return gemini.NewExtractor(generator, logger.WithAI(base, "gemini", generator.Model()), cfg.MaxLogLength)
}

// failParse prints a machine-readable failure record and exits non-zero.
func failParse(logger *zap.Logger, err error) {
	reason := "internal"

	var extractionErr *resume.ExtractionError
	switch {
	case errors.As(err, &extractionErr):
		reason = extractionErr.Reason
	case errors.Is(err, resume.ErrUnsupportedFormat):
		reason = "unsupported_format"
	case errors.Is(err, resume.ErrDocumentTooLarge), errors.Is(err, resume.ErrNoDocument):
		reason = "invalid_argument"
	case errors.Is(err, ai.ErrUpstreamUnavailable):
		reason = "upstream_unavailable"
	}

	out, _ := json.Marshal(map[string]string{
		"reason": reason,
		"detail": err.Error(),
	})
	fmt.Println(string(out))

	logger.Fatal("resume parsing failed", zap.String("reason", reason), zap.Error(err))
}
