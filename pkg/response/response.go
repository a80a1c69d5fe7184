package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"teamboard/pkg/logger"
)

// Response is the unified API envelope.
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// AppError is an expected operation outcome carrying the HTTP status it maps
// to. Anything that is not an AppError is treated as an internal failure and
// its detail is kept out of the response.
type AppError struct {
	Status  int
	Message string
}

func (e *AppError) Error() string { return e.Message }

// NewValidation reports malformed or out-of-range input (400).
func NewValidation(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

// NewNotFound reports an absent referenced entity (404).
func NewNotFound(msg string) *AppError {
	return &AppError{Status: http.StatusNotFound, Message: msg}
}

// NewForbidden reports an actor lacking the required role (403).
func NewForbidden(msg string) *AppError {
	return &AppError{Status: http.StatusForbidden, Message: msg}
}

// NewConflict reports a business-rule violation such as a duplicate member
// or a non-member assignee. Conflicts answer 400 like validation failures.
func NewConflict(msg string) *AppError {
	return &AppError{Status: http.StatusBadRequest, Message: msg}
}

// Success sends a 200 OK envelope with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Data: data})
}

// SuccessMsg sends a 200 OK envelope with a message and data.
func SuccessMsg(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusOK, Response{Success: true, Message: msg, Data: data})
}

// Created sends a 201 Created envelope with a message and data.
func Created(c *gin.Context, msg string, data interface{}) {
	c.JSON(http.StatusCreated, Response{Success: true, Message: msg, Data: data})
}

// Error maps err to the envelope. AppErrors answer with their own status and
// message; anything else is logged and answered with a generic 500 so
// internal failure detail never reaches the client.
func Error(c *gin.Context, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Status < http.StatusInternalServerError {
		c.JSON(appErr.Status, Response{Success: false, Error: appErr.Message})
		return
	}
	logger.Error().Err(err).
		Str("method", c.Request.Method).
		Str("path", c.Request.URL.Path).
		Msg("internal error")
	c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal server error"})
}

// BadRequest sends a 400 envelope, used for request binding failures.
func BadRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

// Unauthorized sends a 401 envelope, used by the auth boundary.
func Unauthorized(c *gin.Context, msg string) {
	c.JSON(http.StatusUnauthorized, Response{Success: false, Error: msg})
}
