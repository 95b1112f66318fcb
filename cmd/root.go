package cmd

import (
	"errors"
	"log"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/credx/credx-matcher/internal/matching"
	"github.com/credx/credx-matcher/internal/resume"
)

const (
	app = "credx-matcher"

	defaultCatalogFile = "data/jobs.csv"
)

type Config struct {
	Catalog  *CatalogConfig  `mapstructure:"catalog"`
	Matching *MatchingConfig `mapstructure:"matching"`
	Resume   *ResumeConfig   `mapstructure:"resume"`
	AI       *AIConfig       `mapstructure:"ai"`
}

type CatalogConfig struct {
	File string `mapstructure:"file"`
}

type MatchingConfig struct {
	TopK             int     `mapstructure:"top-k"`
	SkillWeight      float64 `mapstructure:"skill-weight"`
	ExperienceWeight float64 `mapstructure:"experience-weight"`
}

type ResumeConfig struct {
	MaxUploadBytes int `mapstructure:"max-upload-bytes"`
}

type AIConfig struct {
	Gemini *GeminiConfig `mapstructure:"gemini"`
}

type GeminiConfig struct {
	APIKey       string        `mapstructure:"api-key"`
	APIKeyFile   string        `mapstructure:"api-key-file"`
	Model        string        `mapstructure:"model"`
	Temperature  float64       `mapstructure:"temperature"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MaxLogLength int           `mapstructure:"max-log-length"`
}

var (
	// Used for flags.
	cfgFile string

	rootCmd = &cobra.Command{
		Use:   app,
		Short: "credx-matcher ranks catalog jobs against candidate profiles and parses resumes into structured records",
	}
)

// Execute executes the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	if err := viper.BindEnv("ai.gemini.api-key-file", "GEMINI_API_KEY_FILE"); err != nil {
		log.Fatalf("binding GEMINI_API_KEY_FILE environment variable: %v", err)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "a config file (default is "+app+".yaml in current directory)")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "verbose/debug output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "json format for logging")

	viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		viper.SetConfigName(app)
		viper.SetConfigType("yaml")
	}

	if err := viper.ReadInConfig(); err != nil {
		// The engines carry usable defaults; only an explicitly requested
		// or unparseable config file is fatal.
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return
		}
		log.Fatal(err)
	}
}

func getConfig() (*Config, error) {
	var config *Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}
	if config == nil {
		config = &Config{}
	}
	return config, nil
}

func (c *Config) catalogFile() string {
	if c.Catalog == nil || c.Catalog.File == "" {
		return defaultCatalogFile
	}
	return c.Catalog.File
}

func (c *Config) weights() matching.Weights {
	if c.Matching == nil {
		return matching.DefaultWeights()
	}
	if c.Matching.SkillWeight <= 0 && c.Matching.ExperienceWeight <= 0 {
		return matching.DefaultWeights()
	}
	return matching.Weights{
		Skill:      c.Matching.SkillWeight,
		Experience: c.Matching.ExperienceWeight,
	}
}

func (c *Config) topK() int {
	if c.Matching == nil || c.Matching.TopK <= 0 {
		return matching.DefaultTopK
	}
	return c.Matching.TopK
}

func (c *Config) maxUploadBytes() int {
	if c.Resume == nil || c.Resume.MaxUploadBytes <= 0 {
		return resume.DefaultMaxUploadBytes
	}
	return c.Resume.MaxUploadBytes
}

func (c *Config) gemini() *GeminiConfig {
	if c.AI == nil || c.AI.Gemini == nil {
		return &GeminiConfig{}
	}
	return c.AI.Gemini
}
