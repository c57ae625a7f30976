package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"jobfill/middleware"
	"jobfill/models"
	"jobfill/services"
	"jobfill/utils"
)

// FieldClassifier is the classification service the handler calls.
type FieldClassifier interface {
	Classify(ctx context.Context, profile *models.CandidateProfile, req models.ClassificationRequest) (services.ClassificationOutcome, error)
}

// ClassifyFields answers POST /api/autofill/classify for the authenticated
// user's profile.
func ClassifyFields(classifier FieldClassifier, profiles models.ProfileStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetInt(middleware.UserIDKey)
		if userID <= 0 {
			utils.UnauthorizedError(c, "User not authenticated")
			return
		}

		var req models.ClassificationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.ErrorResponseWithCode(c, http.StatusRequestEntityTooLarge, "Request body too large", err)
				return
			}
			utils.BadRequestError(c, "Invalid request data", err)
			return
		}

		profile, err := profiles.GetProfile(c.Request.Context(), userID)
		if errors.Is(err, models.ErrProfileNotFound) {
			utils.NotFoundError(c, "Candidate profile not found")
			return
		}
		if err != nil {
			utils.LogError("profile load failed", err, zap.Int("user_id", userID))
			utils.InternalServerError(c, "Failed to load candidate profile", err)
			return
		}

		outcome, err := classifier.Classify(c.Request.Context(), profile, req)
		if err != nil {
			var reqErr *services.RequestError
			if errors.As(err, &reqErr) {
				utils.ValidationError(c, err, gin.H{"fields": reqErr.Message})
				return
			}
			utils.LogError("classification failed", err, zap.Int("user_id", userID))
			utils.InternalServerError(c, "Classification failed", err)
			return
		}

		switch out := outcome.(type) {
		case services.ClassificationOK, services.ClassificationParseFailure:
			resp, _ := services.ToResponse(out)
			if resp.ParseFailure {
				utils.LogWarn("classifier returned unparseable output", zap.Int("user_id", userID))
			} else {
				utils.LogInfo("fields classified",
					zap.Int("user_id", userID), zap.Int("count", len(resp.Fields)), zap.Bool("resume_used", resp.ResumeUsed))
			}
			c.JSON(http.StatusOK, resp)
		case services.ClassificationUpstreamFailure:
			utils.LogWarn("classifier upstream failure",
				zap.Int("user_id", userID), zap.String("provider", out.Provider), zap.Int("status", out.Status))
			utils.BadGatewayError(c, "Model provider call failed", out.Status, out.Body)
		default:
			utils.InternalServerError(c, "Classification failed", nil)
		}
	}
}

// Health answers GET /healthz.
func Health() gin.HandlerFunc {
	return func(c *gin.Context) {
		utils.SuccessResponse(c, http.StatusOK, "ok", nil)
	}
}
