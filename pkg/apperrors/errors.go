package apperrors

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error represents an application error
type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Err     error  `json:"-"`
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the wrapped error
func (e *Error) Unwrap() error {
	return e.Err
}

// JSON returns the error as a JSON string
func (e *Error) JSON() string {
	b, _ := json.Marshal(e)
	return string(b)
}

// New creates a new Error
func New(code int, message string, err error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Newf creates a new Error with a formatted message
func Newf(code int, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Common error types
var (
	ErrUnauthorized    = New(http.StatusUnauthorized, "Unauthorized", nil)
	ErrInvalidQuantity = New(http.StatusBadRequest, "A quantity of at least 1 is required", nil)
	ErrPaymentRequired = New(http.StatusBadRequest, "Payment has not been completed", nil)
)

// Respond writes err to the gin context, mapping unknown errors to 500.
func Respond(c *gin.Context, err error) {
	var appErr *Error
	if e, ok := err.(*Error); ok {
		appErr = e
	} else {
		appErr = New(http.StatusInternalServerError, "Internal server error", err)
	}
	c.JSON(appErr.Code, gin.H{"success": false, "message": appErr.Message})
}

// ErrorMiddleware converts errors attached to the gin context into a JSON
// response using the error's status code.
func ErrorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			Respond(c, c.Errors.Last().Err)
			c.Abort()
		}
	}
}
