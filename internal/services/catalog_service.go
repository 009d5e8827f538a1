package services

import (
	"context"
	"sort"
	"strings"

	"catalogo/internal/models"
	"catalogo/internal/repositories"
)

// DefaultPageSize is the number of products per listing page (a 3x3 grid).
const DefaultPageSize = 9

// CatalogPage is one window over the filtered, sorted product list.
type CatalogPage struct {
	Items      []models.Product `json:"items"`
	Query      string           `json:"query"`
	Page       int              `json:"page"`
	PageSize   int              `json:"page_size"`
	TotalItems int              `json:"total_items"`
	TotalPages int              `json:"total_pages"`
}

// CatalogService answers listing queries over the product catalog. The full
// collection is fetched from the store on every call; nothing is cached.
type CatalogService struct {
	repo repositories.ProductRepository
}

// NewCatalogService creates a new CatalogService.
func NewCatalogService(repo repositories.ProductRepository) *CatalogService {
	return &CatalogService{
		repo: repo,
	}
}

// List returns one page of the catalog, alphabetically sorted by name and
// optionally restricted to names containing the query. Both the sort and the
// match are case-insensitive. Out-of-range page numbers are clamped rather
// than rejected: stale links and back-navigation routinely request pages
// that no longer exist, and those should degrade gracefully.
func (s *CatalogService) List(ctx context.Context, query string, page, pageSize int) (*CatalogPage, error) {
	products, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	return paginate(products, query, page, pageSize), nil
}

// EmptyPage is what the list endpoint serves when the store is unreachable:
// an empty result instead of a failed page.
func EmptyPage(query string, pageSize int) *CatalogPage {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return &CatalogPage{
		Items:      []models.Product{},
		Query:      query,
		Page:       1,
		PageSize:   pageSize,
		TotalItems: 0,
		TotalPages: 1,
	}
}

func paginate(products []models.Product, query string, page, pageSize int) *CatalogPage {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}

	sorted := make([]models.Product, len(products))
	copy(sorted, products)
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].Name) < strings.ToLower(sorted[j].Name)
	})

	q := strings.ToLower(strings.TrimSpace(query))
	matched := sorted
	if q != "" {
		matched = make([]models.Product, 0, len(sorted))
		for _, p := range sorted {
			if strings.Contains(strings.ToLower(p.Name), q) {
				matched = append(matched, p)
			}
		}
	}

	totalPages := (len(matched) + pageSize - 1) / pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * pageSize
	end := start + pageSize
	if start > len(matched) {
		start = len(matched)
	}
	if end > len(matched) {
		end = len(matched)
	}

	return &CatalogPage{
		Items:      matched[start:end],
		Query:      query,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: len(matched),
		TotalPages: totalPages,
	}
}
