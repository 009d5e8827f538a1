package handlers

import (
	"errors"
	"fmt"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"catalogo/internal/repositories"
	"catalogo/internal/services"
)

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	catalogService *services.CatalogService
	productService *services.ProductService
	reportService  *services.ReportService
	logger         zerolog.Logger
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(catalogService *services.CatalogService, productService *services.ProductService, reportService *services.ReportService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		catalogService: catalogService,
		productService: productService,
		reportService:  reportService,
		logger:         logger,
	}
}

// RegisterRoutes registers the product routes with the Fiber app.
func (h *ProductHandler) RegisterRoutes(router fiber.Router) {
	productRoutes := router.Group("/products")
	productRoutes.Get("/", h.HandleListProducts)
	productRoutes.Post("/", h.HandleCreateProduct)
	// Registered before "/:id" so "pdf" is not taken for a product ID.
	productRoutes.Post("/pdf", h.HandleExportPDF)
	productRoutes.Get("/:id", h.HandleGetProductByID)
	productRoutes.Put("/:id", h.HandleUpdateProduct)
	productRoutes.Delete("/:id", h.HandleDeleteProduct)
}

// HandleListProducts serves one page of the catalog. Query parameters:
// q (substring filter), page (1-based, clamped) and page_size (default 9).
// A store failure degrades to an empty page so the listing never breaks.
func (h *ProductHandler) HandleListProducts(c *fiber.Ctx) error {
	query := c.Query("q")
	page := c.QueryInt("page", 1)
	pageSize := c.QueryInt("page_size", services.DefaultPageSize)

	result, err := h.catalogService.List(c.Context(), query, page, pageSize)
	if err != nil {
		h.logger.Warn().Err(err).Msg("could not list products, serving empty page")
		return c.JSON(services.EmptyPage(query, pageSize))
	}
	return c.JSON(result)
}

// HandleGetProductByID retrieves a single product by its ID.
func (h *ProductHandler) HandleGetProductByID(c *fiber.Ctx) error {
	id := c.Params("id")
	product, err := h.productService.GetProductByID(c.Context(), id)
	if err != nil {
		if errors.Is(err, repositories.ErrProductNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"message": fmt.Sprintf("Product with ID %s not found", id),
			})
		}
		h.logger.Error().Err(err).Str("id", id).Msg("could not get product")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not retrieve product",
		})
	}
	return c.JSON(product)
}

// HandleCreateProduct creates a product from a multipart form. Name, price
// and the image file are all required.
func (h *ProductHandler) HandleCreateProduct(c *fiber.Ctx) error {
	name := c.FormValue("name")
	price := c.FormValue("price")

	fileHeader, err := c.FormFile("image")
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "An image file is required to add a product",
		})
	}
	file, err := fileHeader.Open()
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": "Could not read the uploaded image",
		})
	}
	defer file.Close()

	product, err := h.productService.CreateProduct(c.Context(), name, price, file, fileHeader.Filename, fileHeader.Header.Get("Content-Type"))
	if err != nil {
		return h.mutationError(c, err, "Could not add the product")
	}
	return c.Status(fiber.StatusCreated).JSON(product)
}

// HandleUpdateProduct rewrites name and price; the image is replaced only
// when the form carries a new file.
func (h *ProductHandler) HandleUpdateProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	name := c.FormValue("name")
	price := c.FormValue("price")

	var (
		image       io.Reader
		filename    string
		contentType string
	)
	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "Could not read the uploaded image",
			})
		}
		defer file.Close()
		image = file
		filename = fileHeader.Filename
		contentType = fileHeader.Header.Get("Content-Type")
	}

	product, err := h.productService.UpdateProduct(c.Context(), id, name, price, image, filename, contentType)
	if err != nil {
		return h.mutationError(c, err, "Could not update the product")
	}
	return c.JSON(product)
}

// HandleDeleteProduct deletes a product and, best-effort, its stored image.
func (h *ProductHandler) HandleDeleteProduct(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.productService.DeleteProduct(c.Context(), id); err != nil {
		return h.mutationError(c, err, "Could not delete the product")
	}
	return c.JSON(fiber.Map{
		"message": "Product deleted",
	})
}

// HandleExportPDF builds the PDF catalog for the selected product IDs and
// returns it as a downloadable attachment.
func (h *ProductHandler) HandleExportPDF(c *fiber.Ctx) error {
	ids := selectedProductIDs(c)

	data, err := h.reportService.BuildCatalogPDF(c.Context(), ids)
	if err != nil {
		if errors.Is(err, services.ErrNoProductsSelected) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"message": "No products were selected for the PDF",
			})
		}
		h.logger.Error().Err(err).Msg("could not generate catalog PDF")
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": "Could not generate the catalog PDF",
		})
	}

	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", services.ReportFilename))
	return c.Send(data)
}

// selectedProductIDs reads the repeated "products" form field from either a
// multipart or a urlencoded body.
func selectedProductIDs(c *fiber.Ctx) []string {
	if form, err := c.MultipartForm(); err == nil && form != nil {
		if vals := form.Value["products"]; len(vals) > 0 {
			return vals
		}
	}
	var ids []string
	for _, v := range c.Context().PostArgs().PeekMulti("products") {
		ids = append(ids, string(v))
	}
	return ids
}

func (h *ProductHandler) mutationError(c *fiber.Ctx, err error, message string) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	case errors.Is(err, repositories.ErrProductNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"message": message,
			"error":   err.Error(),
		})
	default:
		h.logger.Error().Err(err).Msg(message)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"message": message,
		})
	}
}
