// Package params parses optional query parameters and writes error bodies
// for the gin handlers.
package params

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the JSON body of every non-2xx API response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Error codes.
const (
	CodeInvalidParam    = "INVALID_PARAMETER"
	CodeUnknownScenario = "UNKNOWN_SCENARIO"
	CodeInternal        = "INTERNAL_ERROR"
)

// Fail aborts the request with an error body.
func Fail(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Error: msg, Code: code})
}

// BadRequest aborts with 400 for a malformed parameter.
func BadRequest(c *gin.Context, err error) {
	Fail(c, http.StatusBadRequest, CodeInvalidParam, err.Error())
}

// Int returns nil when name is absent or empty.
func Int(c *gin.Context, name string) (*int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("query parameter %s: %q is not an integer", name, raw)
	}
	return &n, nil
}

// Bool returns nil when name is absent or empty. It accepts
// true/false, 1/0, yes/no and on/off in any case.
func Bool(c *gin.Context, name string) (*bool, error) {
	raw := strings.ToLower(strings.TrimSpace(c.Query(name)))
	var b bool
	switch raw {
	case "":
		return nil, nil
	case "true", "1", "yes", "on":
		b = true
	case "false", "0", "no", "off":
		b = false
	default:
		return nil, fmt.Errorf("query parameter %s: %q is not a boolean", name, raw)
	}
	return &b, nil
}

// Strings returns every value of a repeated parameter verbatim, or nil when
// it is absent.
func Strings(c *gin.Context, name string) []string {
	vals := c.QueryArray(name)
	if len(vals) == 0 {
		return nil
	}
	return vals
}
