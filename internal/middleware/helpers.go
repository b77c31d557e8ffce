package middleware

import (
	"github.com/labstack/echo/v4"
)

// errorBody is the JSON envelope for error responses.
type errorBody struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// JSONError writes the standard error envelope with the given status code.
// Used by the central error handler in app and directly by handlers that
// need to shape an error response themselves.
func JSONError(c echo.Context, statusCode int, errType, message string) error {
	return c.JSON(statusCode, map[string]errorBody{
		"error": {Type: errType, Message: message},
	})
}
