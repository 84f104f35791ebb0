package handlers

import (
	"net/http"
	"strconv"

	"github.com/SscSPs/rental_backoffice_app/internal/apperrors"
	"github.com/SscSPs/rental_backoffice_app/internal/core/domain"
	portssvc "github.com/SscSPs/rental_backoffice_app/internal/core/ports/services"
	"github.com/SscSPs/rental_backoffice_app/internal/middleware"
	"github.com/gin-gonic/gin"
)

// catalogHandler serves the lookup tables: accounts, categories and subcategories.
type catalogHandler struct {
	repos portssvc.RepositorySvc
}

func registerCatalogRoutes(rg *gin.RouterGroup, repos portssvc.RepositorySvc) {
	h := &catalogHandler{repos: repos}

	rg.GET("/accounts", h.listAccounts)
	rg.POST("/accounts", h.createAccount)
	rg.GET("/categories", h.listCategories)
	rg.POST("/categories", h.createCategory)
	rg.GET("/subcategories", h.listSubcategories)
	rg.POST("/subcategories", h.createSubcategory)
}

// listAccounts godoc
// @Summary List accounts
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Account
// @Router /accounts [get]
func (h *catalogHandler) listAccounts(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	accounts, err := h.repos.Current().ListAccounts(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list accounts")
		return
	}
	if accounts == nil {
		accounts = []domain.Account{}
	}
	c.JSON(http.StatusOK, accounts)
}

// createAccount godoc
// @Summary Create an account
// @Tags catalog
// @Accept json
// @Produce json
// @Param account body domain.AccountInput true "Account details"
// @Success 201 {object} domain.Account
// @Failure 409 {object} dto.ErrorResponse
// @Router /accounts [post]
func (h *catalogHandler) createAccount(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req domain.AccountInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	account, err := h.repos.Current().CreateAccount(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create account")
		return
	}
	c.JSON(http.StatusCreated, account)
}

// listCategories godoc
// @Summary List categories
// @Tags catalog
// @Produce json
// @Success 200 {array} domain.Category
// @Router /categories [get]
func (h *catalogHandler) listCategories(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	categories, err := h.repos.Current().ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, logger, err, "Failed to list categories")
		return
	}
	if categories == nil {
		categories = []domain.Category{}
	}
	c.JSON(http.StatusOK, categories)
}

// createCategory godoc
// @Summary Create a category
// @Tags catalog
// @Accept json
// @Produce json
// @Param category body domain.CategoryInput true "Category details"
// @Success 201 {object} domain.Category
// @Router /categories [post]
func (h *catalogHandler) createCategory(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req domain.CategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	category, err := h.repos.Current().CreateCategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

// listSubcategories godoc
// @Summary List subcategories
// @Description Lists every subcategory, or those of one category
// @Tags catalog
// @Produce json
// @Param category_id query int false "Category ID"
// @Success 200 {array} domain.Subcategory
// @Router /subcategories [get]
func (h *catalogHandler) listSubcategories(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var categoryID int64
	if raw := c.Query("category_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			respondError(c, logger, apperrors.NewValidationError("category_id must be a positive integer"), "Invalid category")
			return
		}
		categoryID = v
	}
	subs, err := h.repos.Current().ListSubcategories(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, logger, err, "Failed to list subcategories")
		return
	}
	if subs == nil {
		subs = []domain.Subcategory{}
	}
	c.JSON(http.StatusOK, subs)
}

// createSubcategory godoc
// @Summary Create a subcategory
// @Tags catalog
// @Accept json
// @Produce json
// @Param subcategory body domain.SubcategoryInput true "Subcategory details"
// @Success 201 {object} domain.Subcategory
// @Router /subcategories [post]
func (h *catalogHandler) createSubcategory(c *gin.Context) {
	logger := middleware.GetLoggerFromContext(c)
	var req domain.SubcategoryInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, logger, err)
		return
	}
	sub, err := h.repos.Current().CreateSubcategory(c.Request.Context(), req)
	if err != nil {
		respondError(c, logger, err, "Failed to create subcategory")
		return
	}
	c.JSON(http.StatusCreated, sub)
}
