// Command jobfill serves the field classifier API and fills job application
// forms in a driven browser.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobfill/config"
	"jobfill/database"
	"jobfill/models"
	"jobfill/parsers"
	"jobfill/services"
	"jobfill/utils"
)

var rootCmd = &cobra.Command{
	Use:           "jobfill",
	Short:         "Job application form autofill",
	Long:          "jobfill discovers the fields of a job application page, classifies them against a candidate profile and fills them in.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newResumeFetcher wires S3 when credentials are present.
func newResumeFetcher(cfg config.AppConfig, logger *utils.Logger) *services.ResumeFetcher {
	s3svc, err := services.NewS3Service(cfg.S3)
	if err != nil {
		logger.Debug("s3 resume source disabled", zap.Error(err))
		s3svc = nil
	}
	return services.NewResumeFetcher(s3svc)
}

// newProfileStore prefers Postgres and falls back to a profile directory.
// The returned close func is never nil.
func newProfileStore(ctx context.Context, cfg config.AppConfig) (models.ProfileStore, func(), error) {
	if cfg.Database.Enabled() {
		db, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, func() {}, err
		}
		return models.NewPostgresProfileStore(db), func() { db.Close() }, nil
	}
	if cfg.ProfileDir == "" {
		return nil, func() {}, fmt.Errorf("either DB_NAME or PROFILE_DIR must be set")
	}
	return models.FileProfileStore{Dir: cfg.ProfileDir}, func() {}, nil
}

// newFieldClassifier builds the in-process classifier with its model and
// resume text source.
func newFieldClassifier(ctx context.Context, cfg config.AppConfig, resumes services.ResumeSource, logger *utils.Logger) (*services.FieldClassifier, error) {
	llm, err := services.NewLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}
	text := services.NewResumeTextExtractor(resumes, parsers.NewDocumentExtractor())
	return services.NewFieldClassifier(llm, text, logger.Zap()), nil
}
