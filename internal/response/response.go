package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/weiwangfds/vidshare/internal/errors"
)

// Result is the JSON body of the upload API.
type Result struct {
	Success bool   `json:"success"`
	URL     string `json:"url,omitempty"`
	Message string `json:"message,omitempty"`
	// Code is the application error code, 0 on success
	Code      apperrors.ErrorCode `json:"code,omitempty"`
	RequestID string              `json:"request_id,omitempty"`
	Timestamp int64               `json:"timestamp"`
}

// Success answers 200 with the viewer path of a new video.
func Success(c *gin.Context, url string) {
	c.JSON(http.StatusOK, Result{
		Success:   true,
		URL:       url,
		RequestID: getRequestID(c),
		Timestamp: time.Now().Unix(),
	})
}

// Error answers with the status and message of err. Errors that are not
// *AppError become a generic 500.
func Error(c *gin.Context, err error) {
	appErr, ok := apperrors.GetAppError(err)
	if !ok {
		appErr = apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if appErr.OriginalError != nil {
		_ = c.Error(appErr.OriginalError)
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus(), Result{
		Success:   false,
		Message:   appErr.Message,
		Code:      appErr.Code,
		RequestID: getRequestID(c),
		Timestamp: time.Now().Unix(),
	})
}

// ErrorCode answers with the status and translated message of code.
func ErrorCode(c *gin.Context, code apperrors.ErrorCode) {
	Error(c, apperrors.New(code))
}

// getRequestID reads the id set by middleware.RequestID.
func getRequestID(c *gin.Context) string {
	if requestID, exists := c.Get("request_id"); exists {
		if id, ok := requestID.(string); ok {
			return id
		}
	}
	return ""
}
