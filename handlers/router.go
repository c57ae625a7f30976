package handlers

import (
	"github.com/gin-gonic/gin"

	"jobfill/middleware"
	"jobfill/models"
	"jobfill/services"
)

// MaxClassifyBody bounds a classification request body.
const MaxClassifyBody = 1 << 20

// RouterDeps are the collaborators the HTTP API needs.
type RouterDeps struct {
	Classifier  FieldClassifier
	Profiles    models.ProfileStore
	JWT         *services.JWTService
	RateLimiter *middleware.RateLimiter
	CORSOrigins string
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.CORS(deps.CORSOrigins))

	r.GET("/healthz", Health())

	api := r.Group("/api/autofill")
	api.Use(middleware.MaxRequestSize(MaxClassifyBody), middleware.ValidateJSON(), middleware.JWTAuth(deps.JWT))
	if deps.RateLimiter != nil {
		api.Use(deps.RateLimiter.Limit())
	}
	api.POST("/classify", ClassifyFields(deps.Classifier, deps.Profiles))
	return r
}
