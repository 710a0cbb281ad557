package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotes-service/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotes-service/internal/app"
	"github.com/jsamuelsen/quotes-service/internal/domain"
)

// QuoteHandler handles quote endpoints.
type QuoteHandler struct {
	catalog  *app.Catalog
	importer *app.Importer
}

// NewQuoteHandler creates a new quote handler. A nil importer disables
// POST /quotes/import.
func NewQuoteHandler(catalog *app.Catalog, importer *app.Importer) *QuoteHandler {
	return &QuoteHandler{
		catalog:  catalog,
		importer: importer,
	}
}

// Index handles GET /api/v1/quotes by redirecting to a random quote.
func (h *QuoteHandler) Index(c *gin.Context) {
	c.Redirect(http.StatusFound, c.Request.URL.Path+"/random")
}

// Random handles GET /api/v1/quotes/random.
//
// @Summary Get a random quote
// @Description Picks a quote uniformly from the catalog
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) Random(c *gin.Context) {
	quote, err := h.catalog.RandomQuote(c.Request.Context())
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Get handles GET /api/v1/quotes/:id.
//
// @Summary Get a quote by ID
// @Tags quotes
// @Produce json
// @Param id path string true "Quote ID"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/{id} [get]
func (h *QuoteHandler) Get(c *gin.Context) {
	quote, err := h.catalog.GetQuote(c.Request.Context(), c.Param("id"))
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Delete handles DELETE /api/v1/quotes/:id. Deleting an unknown quote is
// not an error; the response reports deleted=false.
func (h *QuoteHandler) Delete(c *gin.Context) {
	deleted := h.catalog.DeleteQuote(c.Request.Context(), c.Param("id"))
	c.JSON(http.StatusOK, dto.DeletedResponse{Deleted: deleted})
}

// Replace handles PUT /api/v1/quotes/:id.
func (h *QuoteHandler) Replace(c *gin.Context) {
	var req dto.ReplaceQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(domain.NewQuoteDataInvalid(err))
		return
	}

	h.update(c, req.Changes())
}

// Patch handles PATCH /api/v1/quotes/:id.
func (h *QuoteHandler) Patch(c *gin.Context) {
	var req dto.PatchQuoteRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(domain.NewQuoteDataInvalid(err))
		return
	}

	h.update(c, req.Changes())
}

func (h *QuoteHandler) update(c *gin.Context, changes app.QuoteChanges) {
	quote, err := h.catalog.UpdateQuote(c.Request.Context(), c.Param("id"), changes)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// Import handles POST /api/v1/quotes/import.
//
// @Summary Import quotes from the upstream source
// @Tags quotes
// @Accept json
// @Produce json
// @Param body body dto.ImportRequest true "Number of quotes"
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Failure 403 {object} dto.ErrorResponse
// @Failure 503 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) Import(c *gin.Context) {
	if h.importer == nil {
		_ = c.Error(domain.NewForbiddenError("import quotes", "quote import is not configured"))
		return
	}

	var req dto.ImportRequest
	if err := dto.BindAndValidate(c, &req); err != nil {
		_ = c.Error(err)
		return
	}

	result, err := h.importer.Import(c.Request.Context(), req.Count)
	if err != nil {
		_ = c.Error(err)
		return
	}

	c.JSON(http.StatusOK, dto.NewImportResponse(result))
}

// RegisterRoutes registers the quote routes on rg.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")

	quotes.GET("", h.Index)
	quotes.GET("/random", h.Random)
	quotes.POST("/import", h.Import)
	quotes.GET("/:id", h.Get)
	quotes.PUT("/:id", h.Replace)
	quotes.PATCH("/:id", h.Patch)
	quotes.DELETE("/:id", h.Delete)
}
