// Package response provides unified API response structures.
// All handlers write through OK and Fail so every body carries the errno code
// and the request id.
package response

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/sentinel-docqa/pkg/errors"
)

// RequestIDKey is the gin context key holding the request id.
const RequestIDKey = "request_id"

// Response is the unified API response structure.
type Response struct {
	// Code is the business error code (0 = success)
	Code int `json:"code"`

	// HTTPCode is the HTTP status code (optional, for client convenience)
	HTTPCode int `json:"http_code,omitempty"`

	// Message is a human-readable message
	Message string `json:"message"`

	// Data contains the response payload
	Data interface{} `json:"data,omitempty"`

	// RequestID is the unique request identifier for tracing
	RequestID string `json:"request_id,omitempty"`

	// Timestamp is the response timestamp (Unix milliseconds)
	Timestamp int64 `json:"timestamp,omitempty"`
}

// Success creates a successful response with data.
func Success(data interface{}) *Response {
	return &Response{
		Code:     errors.OK.Code,
		HTTPCode: http.StatusOK,
		Message:  "success",
		Data:     data,
	}
}

// Err creates an error response from an Errno type.
func Err(e *errors.Errno) *Response {
	if e == nil {
		return Success(nil)
	}
	return &Response{
		Code:     e.Code,
		HTTPCode: e.HTTPStatus(),
		Message:  e.MessageEN,
	}
}

// ErrorWithData creates an error response with additional data.
func ErrorWithData(e *errors.Errno, data interface{}) *Response {
	r := Err(e)
	r.Data = data
	return r
}

// WithRequestID adds request ID to the response.
func (r *Response) WithRequestID(requestID string) *Response {
	r.RequestID = requestID
	return r
}

// IsSuccess returns true if the response indicates success.
func (r *Response) IsSuccess() bool {
	return r.Code == 0
}

// HTTPStatus returns the appropriate HTTP status code for this response.
func (r *Response) HTTPStatus() int {
	if r.HTTPCode != 0 {
		return r.HTTPCode
	}
	if r.Code == 0 {
		return http.StatusOK
	}
	if e, ok := errors.Lookup(r.Code); ok {
		return e.HTTPStatus()
	}

	// Fallback: determine by category from error code
	switch errors.GetCategory(r.Code) {
	case errors.CategoryRequest:
		return http.StatusBadRequest
	case errors.CategoryResource:
		return http.StatusNotFound
	case errors.CategoryConflict:
		return http.StatusConflict
	case errors.CategoryTimeout:
		return http.StatusGatewayTimeout
	case errors.CategoryNetwork:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Write sends r as JSON, stamping the request id and timestamp.
func Write(c *gin.Context, r *Response) {
	if r.RequestID == "" {
		r.RequestID = c.GetString(RequestIDKey)
	}
	r.Timestamp = time.Now().UnixMilli()
	c.JSON(r.HTTPStatus(), r)
}

// OK writes a success response.
func OK(c *gin.Context, data interface{}) {
	Write(c, Success(data))
}

// Fail writes the errno carried by err, or ErrInternal for foreign errors.
func Fail(c *gin.Context, err error) {
	Write(c, Err(errors.FromError(err)))
}

// FailWithData writes the errno carried by err with a payload.
func FailWithData(c *gin.Context, err error, data interface{}) {
	Write(c, ErrorWithData(errors.FromError(err), data))
}
