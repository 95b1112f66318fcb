package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/credx/credx-matcher/internal/catalog"
	"github.com/credx/credx-matcher/internal/logger"
	"github.com/credx/credx-matcher/internal/matching"
	"github.com/credx/credx-matcher/internal/profile"
)

const (
	PromptExit             = "Exit"
	PromptDumpToFile       = "Dump matches to file"
	PromptReportByLocation = "Report by location"
)

var errExit = errors.New("exit requested")

var matchesPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptExit, PromptDumpToFile, PromptReportByLocation},
}

var recommendCmd = &cobra.Command{
	Use:   "recommend [payload-file]",
	Short: "Rank catalog jobs against a candidate payload. Reads stdin when no file is given.",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		recommend(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(recommendCmd)

	recommendCmd.Flags().IntP("top-k", "k", 0, "maximum number of matches to return")
	recommendCmd.Flags().BoolP("no-prompt", "y", false, "print matches and exit without the interactive menu")

	viper.BindPFlag("matching.top-k", recommendCmd.Flags().Lookup("top-k"))
}

func recommend(cmd *cobra.Command, args []string) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	cat, err := catalog.LoadFile(config.catalogFile())
	if err != nil {
		logger.Fatal("loading the job catalog", zap.Error(err))
	}

	logger.Info("job catalog loaded",
		zap.String("source", cat.Source()),
		zap.Int("postings", cat.Len()),
	)

	raw, err := readPayload(args)
	if err != nil {
		logger.Fatal("reading the payload", zap.Error(err))
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		logger.Fatal("invalid JSON payload", zap.Error(err))
	}

	prof := profile.Normalize(payload)
	if prof.Partial {
		logger.Warn("payload is missing expected fields, continuing with a partial profile",
			zap.Strings("skills", prof.Skills),
			zap.Float64("years_experience", prof.YearsExperience),
		)
	}

	engine := matching.NewEngine(config.weights(), logger)

	recs, err := engine.Recommend(prof, cat, config.topK())
	if err != nil {
		logger.Fatal("ranking failed", zap.Error(err))
	}

	if recs.Advisory != "" {
		logger.Warn(recs.Advisory)
	}

	// do not bother error since matches are plain serializable structs
	pretty, _ := json.MarshalIndent(recs.Items, "", "  ")
	fmt.Println(string(pretty))

	logger.Info("ranking completed", zap.Int("matches", recs.Len()))

	if recs.Len() == 0 || cmd.Flag("no-prompt").Value.String() == "true" {
		return
	}

	for {
		_, action, err := matchesPrompt.Run()
		if err != nil {
			logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleMatchesAction(action, recs, logger); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleMatchesAction(action string, recs *matching.Recommendations, logger *zap.Logger) error {
	switch action {
	case PromptExit:
		return errExit
	case PromptDumpToFile:
		filename, err := recs.DumpToTmpFile()
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		logger.Info("dumping matches to file", zap.String("filename", filename))
		return nil
	case PromptReportByLocation:
		pretty, _ := json.MarshalIndent(recs.ReportByLocation(), "", "  ")
		logger.Info(string(pretty), zap.Int("matches", recs.Len()))
		return nil
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func readPayload(args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(args[0])
}
