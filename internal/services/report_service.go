package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"time"

	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/jung-kurt/gofpdf"
	"github.com/rs/zerolog"

	"catalogo/internal/models"
	"catalogo/internal/repositories"
)

// ErrNoProductsSelected signals that a report was requested with an empty
// selection; callers surface it as an advisory, not a server error.
var ErrNoProductsSelected = errors.New("no products selected")

// ReportFilename is the fixed download name of the generated catalog PDF.
const ReportFilename = "catalogo_alianzas_pharma.pdf"

const (
	reportOrganization = "ALIANZAS PHARMA"
	imagePlaceholder   = "(imagen no disponible)"

	reportColumns     = 3
	pageMargin        = 30
	cardPadding       = 8
	cardImageWidth    = 150
	cardImageHeight   = 120
	imageFetchTimeout = 10 * time.Second
)

// ImageFetcher retrieves raw image bytes from a (signed) URL.
type ImageFetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// HTTPImageFetcher fetches images over HTTP with a bounded timeout.
type HTTPImageFetcher struct {
	client *http.Client
}

// NewHTTPImageFetcher creates an HTTPImageFetcher. A timeout of zero falls
// back to the default per-fetch bound.
func NewHTTPImageFetcher(timeout time.Duration) *HTTPImageFetcher {
	if timeout <= 0 {
		timeout = imageFetchTimeout
	}
	return &HTTPImageFetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch performs a single GET; there are no retries.
func (f *HTTPImageFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, fmt.Errorf("no image URL")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build image request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image fetch returned status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	return data, nil
}

// ReportService builds the printable PDF catalog for a selected subset of
// products. The document is assembled entirely in memory.
type ReportService struct {
	repo    repositories.ProductRepository
	fetcher ImageFetcher
	logger  zerolog.Logger
}

// NewReportService creates a new ReportService.
func NewReportService(repo repositories.ProductRepository, fetcher ImageFetcher, logger zerolog.Logger) *ReportService {
	return &ReportService{
		repo:    repo,
		fetcher: fetcher,
		logger:  logger,
	}
}

// BuildCatalogPDF resolves the selected IDs against the full catalog and
// renders one bordered card per product, three per row, on A4 pages. Cards
// keep the order products appear in the catalog, not the order IDs were
// submitted. Image fetches are sequential and individually best-effort: any
// failure puts a placeholder on that card and the report still completes. A
// store failure, by contrast, aborts the whole report.
func (s *ReportService) BuildCatalogPDF(ctx context.Context, selectedIDs []string) ([]byte, error) {
	if len(selectedIDs) == 0 {
		return nil, ErrNoProductsSelected
	}

	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load products for report: %w", err)
	}

	wanted := make(map[string]bool, len(selectedIDs))
	for _, id := range selectedIDs {
		wanted[id] = true
	}
	var selected []models.Product
	for _, p := range products {
		if wanted[p.ID] {
			selected = append(selected, p)
		}
	}

	pdf := gofpdf.New("P", "pt", "A4", "")
	pdf.SetMargins(pageMargin, pageMargin, pageMargin)
	pdf.SetAutoPageBreak(false, pageMargin)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageW, pageH := pdf.GetPageSize()

	// Title block: organization name and generation date.
	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 22, reportOrganization, "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 16, "Fecha: "+time.Now().Format("02/01/2006"), "", 1, "L", false, 0, "")
	pdf.Ln(12)

	cardW := (pageW - 2*pageMargin) / reportColumns
	cardH := float64(cardPadding + cardImageHeight + 6 + 14 + 12 + cardPadding)

	y := pdf.GetY()
	for i := 0; i < len(selected); i += reportColumns {
		if y+cardH > pageH-pageMargin {
			pdf.AddPage()
			y = pageMargin
		}
		for col := 0; col < reportColumns && i+col < len(selected); col++ {
			x := pageMargin + float64(col)*cardW
			s.drawCard(ctx, pdf, tr, selected[i+col], x, y, cardW, cardH)
		}
		y += cardH
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	return buf.Bytes(), nil
}

func (s *ReportService) drawCard(ctx context.Context, pdf *gofpdf.Fpdf, tr func(string) string, p models.Product, x, y, w, h float64) {
	pdf.Rect(x, y, w, h, "D")
	inner := x + cardPadding
	innerW := w - 2*cardPadding

	data, imageType, err := s.fetchImage(ctx, p.ImageURL)
	if err != nil {
		s.logger.Warn().Err(err).Str("product", p.ID).Msg("image unavailable, using placeholder")
		pdf.SetXY(inner, y+cardPadding+cardImageHeight/2)
		pdf.SetFont("Helvetica", "I", 10)
		pdf.CellFormat(innerW, 12, tr(imagePlaceholder), "", 0, "C", false, 0, "")
	} else {
		name := "product-image-" + p.ID
		opts := gofpdf.ImageOptions{ImageType: imageType}
		pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(data))
		pdf.ImageOptions(name, inner, y+cardPadding, cardImageWidth, cardImageHeight, false, opts, 0, "")
	}

	textY := y + cardPadding + cardImageHeight + 6
	pdf.SetXY(inner, textY)
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(innerW, 14, tr(p.Name), "", 2, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(innerW, 12, fmt.Sprintf("$%.2f", p.Price), "", 0, "L", false, 0, "")
}

// fetchImage retrieves and sniffs the image. Bytes that do not decode as a
// supported format are rejected here, before they can poison the PDF
// encoder's error state.
func (s *ReportService) fetchImage(ctx context.Context, url string) ([]byte, string, error) {
	data, err := s.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, "", err
	}

	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("malformed image data: %w", err)
	}
	switch format {
	case "jpeg":
		return data, "JPG", nil
	case "png":
		return data, "PNG", nil
	case "gif":
		return data, "GIF", nil
	}
	return nil, "", fmt.Errorf("unsupported image format %q", format)
}
