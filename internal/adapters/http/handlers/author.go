package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// AuthorHandler handles author endpoints. Failures are attached with
// c.Error and rendered by the router's error middleware.
type AuthorHandler struct {
	catalog *app.Catalog
}

// NewAuthorHandler creates a new author handler.
func NewAuthorHandler(catalog *app.Catalog) *AuthorHandler {
	return &AuthorHandler{catalog: catalog}
}

// List handles GET /api/v1/authors.
//
// @Summary List authors
// @Tags authors
// @Produce json
// @Success 200 {array} dto.AuthorResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/authors [get]
func (h *AuthorHandler) List(c *gin.Context) {
	authors, err := h.catalog.ListAuthors(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthorResponses(authors))
}

// Get handles GET /api/v1/authors/:name.
func (h *AuthorHandler) Get(c *gin.Context) {
	author, err := h.catalog.GetAuthor(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthorResponse(author))
}

// Create handles POST /api/v1/authors.
//
// @Summary Create an author
// @Tags authors
// @Accept json
// @Produce json
// @Param body body dto.AuthorRequest true "Author"
// @Success 201 {object} dto.AuthorResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/authors [post]
func (h *AuthorHandler) Create(c *gin.Context) {
	var req dto.AuthorRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(domain.NewAuthorDataInvalid(err))
		return
	}

	author, err := h.catalog.CreateAuthor(c.Request.Context(), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewAuthorResponse(author))
}

// Rename handles PUT and PATCH /api/v1/authors/:name.
func (h *AuthorHandler) Rename(c *gin.Context) {
	var req dto.AuthorRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(domain.NewAuthorDataInvalid(err))
		return
	}

	author, err := h.catalog.RenameAuthor(c.Request.Context(), c.Param("name"), req.Name)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewAuthorResponse(author))
}

// Delete handles DELETE /api/v1/authors/:name. An author with quotes is
// only removed when cascade=true is given.
//
// @Summary Delete an author
// @Tags authors
// @Produce json
// @Param name path string true "Author name"
// @Param cascade query bool false "Remove the author's quotes first"
// @Success 200 {object} dto.DeletedResponse
// @Failure 404 {object} dto.ErrorResponse
// @Failure 409 {object} dto.ErrorResponse
// @Router /api/v1/authors/{name} [delete]
func (h *AuthorHandler) Delete(c *gin.Context) {
	cascade, err := strconv.ParseBool(c.DefaultQuery("cascade", "false"))
	if err != nil {
		_ = c.Error(domain.NewValidationError("cascade", "must be true or false"))
		return
	}

	if err := h.catalog.DeleteAuthor(c.Request.Context(), c.Param("name"), cascade); err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.DeletedResponse{Deleted: true})
}

// ListQuotes handles GET /api/v1/authors/:name/quotes. An unknown author
// yields an empty list.
func (h *AuthorHandler) ListQuotes(c *gin.Context) {
	quotes, err := h.catalog.ListQuotesByAuthor(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponses(quotes))
}

// AddQuote handles POST /api/v1/authors/:name/quotes.
func (h *AuthorHandler) AddQuote(c *gin.Context) {
	var req dto.AddQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(domain.NewQuoteDataInvalid(err))
		return
	}

	quote, err := h.catalog.AddQuote(c.Request.Context(), c.Param("name"), req.Text)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// PurgeQuotes handles DELETE /api/v1/authors/:name/quotes.
func (h *AuthorHandler) PurgeQuotes(c *gin.Context) {
	deleted, err := h.catalog.PurgeAuthorQuotes(c.Request.Context(), c.Param("name"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.DeletedResponse{Deleted: deleted})
}

// RegisterRoutes registers the author routes on rg.
func (h *AuthorHandler) RegisterRoutes(rg *gin.RouterGroup) {
	authors := rg.Group("/authors")

	authors.GET("", h.List)
	authors.POST("", h.Create)
	authors.GET("/:name", h.Get)
	authors.PUT("/:name", h.Rename)
	authors.PATCH("/:name", h.Rename)
	authors.DELETE("/:name", h.Delete)
	authors.GET("/:name/quotes", h.ListQuotes)
	authors.POST("/:name/quotes", h.AddQuote)
	authors.DELETE("/:name/quotes", h.PurgeQuotes)
}
