package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"catalogo/internal/handlers"
	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/internal/services"
	"catalogo/internal/storage"
)

// setupApp builds a Fiber app wired against the in-memory repository and
// object store, the same way main does against the real clients.
func setupApp() (*fiber.App, *repositories.MockProductRepository, *storage.MemoryStore) {
	repo := repositories.NewMockProductRepository()
	store := storage.NewMemoryStore()
	log := zerolog.Nop()

	catalogService := services.NewCatalogService(repo)
	productService := services.NewProductService(repo, store, nil, 365*24*time.Hour, log)
	reportService := services.NewReportService(repo, services.NewHTTPImageFetcher(time.Second), log)

	productHandler := handlers.NewProductHandler(catalogService, productService, reportService, log)

	app := fiber.New()
	apiV1 := app.Group("/api/v1")
	productHandler.RegisterRoutes(apiV1)

	return app, repo, store
}

func multipartProductBody(t *testing.T, name, price string, withImage bool) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	if name != "" {
		assert.NoError(t, w.WriteField("name", name))
	}
	if price != "" {
		assert.NoError(t, w.WriteField("price", price))
	}
	if withImage {
		fw, err := w.CreateFormFile("image", "product.png")
		assert.NoError(t, err)
		img := image.NewRGBA(image.Rect(0, 0, 4, 4))
		assert.NoError(t, png.Encode(fw, img))
	}
	assert.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func createProduct(t *testing.T, app *fiber.App, name, price string) models.Product {
	t.Helper()
	body, contentType := multipartProductBody(t, name, price, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)

	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	var product models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&product))
	return product
}

func TestProductLifecycle(t *testing.T) {
	app, _, store := setupApp()

	// Create
	product := createProduct(t, app, "Paracetamol", "12,50")
	assert.NotEmpty(t, product.ID)
	assert.Equal(t, "Paracetamol", product.Name)
	assert.Equal(t, 12.5, product.Price)
	assert.NotEmpty(t, product.ImageURL)
	assert.NotEmpty(t, product.ImagePath)
	_, stored := store.Get(product.ImagePath)
	assert.True(t, stored)

	// Get by ID
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+product.ID, nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	// Update name and price without a new image: image fields survive.
	body, contentType := multipartProductBody(t, "Paracetamol Forte", "15.75", false)
	req = httptest.NewRequest(http.MethodPut, "/api/v1/products/"+product.ID, body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var updated models.Product
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&updated))
	assert.Equal(t, "Paracetamol Forte", updated.Name)
	assert.Equal(t, 15.75, updated.Price)
	assert.Equal(t, product.ImagePath, updated.ImagePath)

	// Delete removes the record and the stored image.
	req = httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+product.ID, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	_, stored = store.Get(product.ImagePath)
	assert.False(t, stored)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/products/"+product.ID, nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
}

func TestCreateProduct_MissingFields(t *testing.T) {
	app, _, _ := setupApp()

	// Missing image file
	body, contentType := multipartProductBody(t, "Aspirin", "10", false)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)

	// Missing name
	body, contentType = multipartProductBody(t, "", "10", true)
	req = httptest.NewRequest(http.MethodPost, "/api/v1/products", body)
	req.Header.Set("Content-Type", contentType)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestListProducts_PaginationAndClamping(t *testing.T) {
	app, repo, _ := setupApp()

	for i := 1; i <= 10; i++ {
		err := repo.Create(context.Background(), &models.Product{
			Name:  fmt.Sprintf("Product %02d", i),
			Price: float64(i),
		})
		assert.NoError(t, err)
	}

	decodePage := func(resp *http.Response) services.CatalogPage {
		var page services.CatalogPage
		assert.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
		return page
	}

	// Last page holds the remainder.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?page_size=3&page=4", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	page := decodePage(resp)
	assert.Len(t, page.Items, 1)
	assert.Equal(t, "Product 10", page.Items[0].Name)
	assert.Equal(t, 4, page.TotalPages)

	// Out-of-range page clamps to the last page instead of failing.
	req = httptest.NewRequest(http.MethodGet, "/api/v1/products?page_size=3&page=99", nil)
	resp, err = app.Test(req, -1)
	assert.NoError(t, err)
	clamped := decodePage(resp)
	assert.Equal(t, page.Items, clamped.Items)
	assert.Equal(t, 4, clamped.Page)
}

func TestListProducts_Search(t *testing.T) {
	app, repo, _ := setupApp()

	names := []string{"Paracetamol", "Ibuprofen", "PARACETAMOL FORTE", "Aspirin"}
	for _, name := range names {
		err := repo.Create(context.Background(), &models.Product{Name: name, Price: 1})
		assert.NoError(t, err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=paracetamol", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page services.CatalogPage
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Equal(t, 2, page.TotalItems)
	for _, p := range page.Items {
		assert.Contains(t, strings.ToLower(p.Name), "paracetamol")
	}
}

// failingProductRepository simulates an unreachable store.
type failingProductRepository struct{}

func (r *failingProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	return nil, fmt.Errorf("store unreachable")
}

func (r *failingProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	return nil, fmt.Errorf("store unreachable")
}

func (r *failingProductRepository) Create(ctx context.Context, p *models.Product) error {
	return fmt.Errorf("store unreachable")
}

func (r *failingProductRepository) Update(ctx context.Context, p *models.Product) error {
	return fmt.Errorf("store unreachable")
}

func (r *failingProductRepository) Delete(ctx context.Context, id string) error {
	return fmt.Errorf("store unreachable")
}

func TestListProducts_StoreDownServesEmptyPage(t *testing.T) {
	repo := &failingProductRepository{}
	store := storage.NewMemoryStore()
	log := zerolog.Nop()

	catalogService := services.NewCatalogService(repo)
	productService := services.NewProductService(repo, store, nil, 365*24*time.Hour, log)
	reportService := services.NewReportService(repo, services.NewHTTPImageFetcher(time.Second), log)
	productHandler := handlers.NewProductHandler(catalogService, productService, reportService, log)

	app := fiber.New()
	productHandler.RegisterRoutes(app.Group("/api/v1"))

	// The listing degrades to an empty page instead of failing.
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?q=aspirin", nil)
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	var page services.CatalogPage
	assert.NoError(t, json.NewDecoder(resp.Body).Decode(&page))
	assert.Empty(t, page.Items)
	assert.Equal(t, 1, page.TotalPages)
	assert.Equal(t, "aspirin", page.Query)

	// Report generation, by contrast, propagates the store failure.
	form := url.Values{}
	form.Add("products", "some-id")
	pdfReq := httptest.NewRequest(http.MethodPost, "/api/v1/products/pdf", strings.NewReader(form.Encode()))
	pdfReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err = app.Test(pdfReq, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
}

func TestExportPDF_NoSelection(t *testing.T) {
	app, _, _ := setupApp()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/pdf", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
}

func TestExportPDF(t *testing.T) {
	app, _, _ := setupApp()

	first := createProduct(t, app, "Paracetamol", "12.50")
	second := createProduct(t, app, "Ibuprofen", "8")

	form := url.Values{}
	form.Add("products", first.ID)
	form.Add("products", second.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/pdf", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	// The in-memory store's signed URLs are not fetchable, so every card
	// falls back to its placeholder; the report must still be produced.
	resp, err := app.Test(req, -1)
	assert.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.Contains(t, resp.Header.Get("Content-Disposition"), services.ReportFilename)

	data, err := io.ReadAll(resp.Body)
	assert.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF-")))
}
