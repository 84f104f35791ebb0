package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/dto"
	"github.com/SscSPs/rental_backoffice_app/internal/utils/pagination"
	"github.com/gin-gonic/gin"
)

// respondError maps err to its status. Server-side failures hide the detail behind msg.
func respondError(c *gin.Context, logger *slog.Logger, err error, msg string) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error(msg, slog.String("error", err.Error()))
	} else {
		logger.Warn(msg, slog.String("error", err.Error()), slog.Int("status", status))
	}
	message := err.Error()
	if status == http.StatusInternalServerError {
		message = msg
	}
	c.JSON(status, dto.ErrorResponse{Error: message})
}

func badRequest(c *gin.Context, logger *slog.Logger, err error) {
	logger.Warn("Invalid request", slog.String("error", err.Error()))
	c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "Invalid request format: " + err.Error()})
}

// int64Param reads a positive integer path parameter, answering 400 when it is not one.
func int64Param(c *gin.Context, logger *slog.Logger, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || v <= 0 {
		logger.Warn("Invalid path parameter", slog.String("param", name), slog.String("value", c.Param(name)))
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "invalid " + name})
		return 0, false
	}
	return v, true
}

// boolQuery reads an optional boolean query parameter.
func boolQuery(c *gin.Context, name string) (*bool, error) {
	raw, ok := c.GetQuery(name)
	if !ok || raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return nil, apperrors.NewValidationError("%s must be a boolean", name)
	}
	return &v, nil
}

// respondPage pages items ordered by (date, id) and writes a ListResponse.
func respondPage[T any](c *gin.Context, logger *slog.Logger, items []T, key func(T) (string, string)) {
	var q dto.ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, logger, err)
		return
	}
	page, next, err := pagination.Page(items, q.Limit, q.NextToken, key)
	if err != nil {
		respondError(c, logger, apperrors.NewValidationError("%s", err.Error()), "Invalid pagination token")
		return
	}
	if page == nil {
		page = []T{}
	}
	c.JSON(http.StatusOK, dto.ListResponse[T]{Items: page, NextToken: next})
}
