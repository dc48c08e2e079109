package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// JSONResponse defines the uniform structure for API responses.
type JSONResponse struct {
	Message    string      `json:"message"`
	Data       interface{} `json:"data,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

// Pagination describes the slice of a list endpoint's result set.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

// NewPagination computes totalPages from the total row count.
func NewPagination(page, limit int, total int64) *Pagination {
	return &Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: int((total + int64(limit) - 1) / int64(limit)),
	}
}

// Success returns a 200 response with the given message and payload.
func Success(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusOK, JSONResponse{Message: message, Data: data})
}

// Created returns a 201 response for newly persisted entities.
func Created(ctx *gin.Context, message string, data interface{}) {
	ctx.JSON(http.StatusCreated, JSONResponse{Message: message, Data: data})
}

// Paginated returns a 200 list response with pagination metadata.
func Paginated(ctx *gin.Context, message string, data interface{}, p *Pagination) {
	ctx.JSON(http.StatusOK, JSONResponse{Message: message, Data: data, Pagination: p})
}

// Error returns a standard error response with the given status.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, JSONResponse{Message: message})
}
