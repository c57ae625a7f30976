package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// StandardResponse represents a standard API response
type StandardResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Error   string      `json:"error"`
	Code    int         `json:"code"`
	Details interface{} `json:"details,omitempty"`
}

// UpstreamErrorResponse reports a failed call to a third-party service with
// the status and body it returned.
type UpstreamErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Status  int    `json:"status"`
	Body    string `json:"body"`
}

// SuccessResponse sends a successful response
func SuccessResponse(c *gin.Context, statusCode int, message string, data interface{}) {
	c.JSON(statusCode, StandardResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// ErrorResponseWithCode sends an error response with custom status code
func ErrorResponseWithCode(c *gin.Context, statusCode int, message string, err error) {
	errorWithDetails(c, statusCode, message, err, nil)
}

func errorWithDetails(c *gin.Context, statusCode int, message string, err error, details interface{}) {
	errorMsg := ""
	if err != nil {
		errorMsg = err.Error()
	}

	c.AbortWithStatusJSON(statusCode, ErrorResponse{
		Success: false,
		Message: message,
		Error:   errorMsg,
		Code:    statusCode,
		Details: details,
	})
}

// BadRequestError sends a 400 error response
func BadRequestError(c *gin.Context, message string, err error) {
	ErrorResponseWithCode(c, http.StatusBadRequest, message, err)
}

// InternalServerError sends a 500 error response
func InternalServerError(c *gin.Context, message string, err error) {
	ErrorResponseWithCode(c, http.StatusInternalServerError, message, err)
}

// UnauthorizedError sends a 401 error response
func UnauthorizedError(c *gin.Context, message string) {
	ErrorResponseWithCode(c, http.StatusUnauthorized, message, nil)
}

// NotFoundError sends a 404 error response
func NotFoundError(c *gin.Context, message string) {
	ErrorResponseWithCode(c, http.StatusNotFound, message, nil)
}

// ValidationError sends a validation error response with per-field details
func ValidationError(c *gin.Context, err error, details interface{}) {
	errorWithDetails(c, http.StatusBadRequest, "Validation failed", err, details)
}

// BadGatewayError reports a failed upstream call with its status and truncated body
func BadGatewayError(c *gin.Context, message string, status int, body string) {
	c.AbortWithStatusJSON(http.StatusBadGateway, UpstreamErrorResponse{
		Success: false,
		Message: message,
		Error:   message,
		Code:    http.StatusBadGateway,
		Status:  status,
		Body:    body,
	})
}

// TooManyRequestsError sends a 429 error response
func TooManyRequestsError(c *gin.Context, retryAfterSeconds float64) {
	errorWithDetails(c, http.StatusTooManyRequests, "Rate limit exceeded. Please try again later.", nil,
		gin.H{"retry_after": retryAfterSeconds})
}
