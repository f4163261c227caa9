package types

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/killallgit/delivery-api/pkg/errors"
)

// SendError writes err with the status and code carried by its AppError
func SendError(c *gin.Context, err error) {
	code := apperrors.GetCode(err)
	status := apperrors.GetHTTPCode(err)

	message := err.Error()
	if status >= http.StatusInternalServerError && code == apperrors.ErrCodeInternal {
		message = "internal server error"
	}

	c.JSON(status, ErrorResponse{
		Status:  StatusError,
		Message: message,
		Error:   strings.ToLower(string(code)),
	})
}

// SendBadRequest sends a standardized bad request response
func SendBadRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{Status: StatusError, Message: message, Error: "bad_request"})
}

// SendNotFound sends a standardized not found response
func SendNotFound(c *gin.Context, message string) {
	c.JSON(http.StatusNotFound, ErrorResponse{Status: StatusError, Message: message, Error: "not_found"})
}
