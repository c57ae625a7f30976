package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"jobfill/config"
	"jobfill/models"
	"jobfill/services"
	"jobfill/utils"
)

var fillCmd = &cobra.Command{
	Use:   "fill <url>",
	Short: "Open a job application and fill it from a profile",
	Args:  cobra.ExactArgs(1),
	RunE:  runFill,
}

var (
	fillProfile    string
	fillDriver     string
	fillRemoteURL  string
	fillHeaded     bool
	fillRemote     bool
	fillToken      string
	fillJobTitle   string
	fillEmployer   string
	fillJobDesc    string
	fillReportPath string
	fillShotDir    string
	fillShotS3     bool
)

func init() {
	fillCmd.Flags().StringVarP(&fillProfile, "profile", "p", "", "Path to the candidate profile JSON (required)")
	fillCmd.Flags().StringVar(&fillDriver, "driver", "playwright", "Browser driver: playwright or chromedp")
	fillCmd.Flags().StringVar(&fillRemoteURL, "remote-url", "", "Attach to a running Chrome devtools endpoint (chromedp only)")
	fillCmd.Flags().BoolVar(&fillHeaded, "headed", false, "Show the browser window")
	fillCmd.Flags().BoolVar(&fillRemote, "remote", false, "Classify through the classifier API at CLASSIFIER_URL instead of in-process")
	fillCmd.Flags().StringVar(&fillToken, "token", "", "Bearer token for the classifier API (minted from JWT_SECRET when empty)")
	fillCmd.Flags().StringVar(&fillJobTitle, "job-title", "", "Job title for the cover message and classifier")
	fillCmd.Flags().StringVar(&fillEmployer, "employer", "", "Employer name for the cover message and classifier")
	fillCmd.Flags().StringVar(&fillJobDesc, "job-description", "", "Job description passed to the classifier")
	fillCmd.Flags().StringVarP(&fillReportPath, "report", "o", "", "Write the fill report JSON here instead of stdout")
	fillCmd.Flags().StringVar(&fillShotDir, "screenshot-dir", "", "Save a full-page screenshot of the filled form in this directory")
	fillCmd.Flags().BoolVar(&fillShotS3, "screenshot-s3", false, "Upload the screenshot to the configured S3 bucket")
	_ = fillCmd.MarkFlagRequired("profile")
	rootCmd.AddCommand(fillCmd)
}

func runFill(cmd *cobra.Command, args []string) error {
	cfg := config.GetAppConfig()
	logger := utils.NewLogger(cfg.Environment)
	defer logger.Sync()
	ctx := cmd.Context()

	profile, err := models.LoadProfileFile(fillProfile)
	if err != nil {
		return err
	}
	resumes := newResumeFetcher(cfg, logger)

	var classifier services.Classifier
	if fillRemote {
		token := fillToken
		if token == "" {
			if cfg.JWTSecret == "" {
				return fmt.Errorf("--token or JWT_SECRET is required with --remote")
			}
			if token, err = services.NewJWTService(cfg.JWTSecret).GenerateToken(profile.UserID, profile.Email, time.Hour); err != nil {
				return err
			}
		}
		classifier = services.NewClassifierClient(cfg.ClassifierURL, token)
	} else {
		svc, err := newFieldClassifier(ctx, cfg, resumes, logger)
		if err != nil {
			return err
		}
		classifier = services.BoundClassifier{Service: svc, Profile: profile}
	}

	session, err := services.OpenBrowserSession(ctx, services.BrowserOptions{
		Driver:    fillDriver,
		Headless:  !fillHeaded,
		RemoteURL: fillRemoteURL,
	})
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer session.Close()

	url := args[0]
	logger.Info("opening application", zap.String("url", url), zap.String("driver", fillDriver))
	if err := session.Navigate(ctx, url); err != nil {
		return err
	}

	page := services.NewScriptPage(session)
	orchestrator := services.NewOrchestrator(page, classifier, resumes, services.DefaultAdapterRegistry(),
		cfg.Engine, services.RealSleeper, logger.Zap())
	report, err := orchestrator.Run(ctx, profile, services.JobContext{
		URL:         url,
		Title:       fillJobTitle,
		Description: fillJobDesc,
		Employer:    fillEmployer,
	})
	if report != nil && err == nil && (fillShotDir != "" || fillShotS3) {
		shots, serr := newScreenshotService(cfg, logger)
		if serr != nil {
			return serr
		}
		if report.Screenshot, serr = shots.Capture(ctx, session, report.SessionID, "after_fill"); serr != nil {
			logger.Warn("screenshot failed", zap.Error(serr))
		}
	}
	if report != nil {
		if werr := writeReport(report); werr != nil && err == nil {
			err = werr
		}
	}
	return err
}

func newScreenshotService(cfg config.AppConfig, logger *utils.Logger) (*services.ScreenshotService, error) {
	shots := services.NewScreenshotService(nil, fillShotDir, logger.Zap())
	if fillShotS3 {
		s3svc, err := services.NewS3Service(cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("--screenshot-s3: %w", err)
		}
		shots.Store = s3svc
	}
	return shots, nil
}

func writeReport(report *services.FillReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	if fillReportPath == "" {
		_, err = fmt.Fprintln(os.Stdout, string(data))
		return err
	}
	return os.WriteFile(fillReportPath, data, 0o644)
}
