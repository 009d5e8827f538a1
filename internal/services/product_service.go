package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"catalogo/internal/models"
	"catalogo/internal/repositories"
	"catalogo/internal/storage"
	"catalogo/pkg/rabbitmq"
)

// ErrInvalidInput marks validation failures reported before any store
// mutation takes place.
var ErrInvalidInput = errors.New("invalid input")

// ProductService handles create/update/delete of catalog records together
// with their stored images. The record write and the image upload are
// independent best-effort steps; there is no transaction spanning both.
type ProductService struct {
	repo         repositories.ProductRepository
	store        storage.ObjectStore
	mqClient     *rabbitmq.Client // optional; nil disables event publishing
	signedURLTTL time.Duration
	validate     *validator.Validate
	logger       zerolog.Logger
}

// NewProductService creates a new ProductService. mqClient may be nil when
// no broker is configured.
func NewProductService(repo repositories.ProductRepository, store storage.ObjectStore, mqClient *rabbitmq.Client, signedURLTTL time.Duration, logger zerolog.Logger) *ProductService {
	return &ProductService{
		repo:         repo,
		store:        store,
		mqClient:     mqClient,
		signedURLTTL: signedURLTTL,
		validate:     validator.New(),
		logger:       logger,
	}
}

// GetAllProducts retrieves the full product collection.
func (s *ProductService) GetAllProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetAll(ctx)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	return s.repo.GetByID(ctx, id)
}

// CreateProduct validates the input, uploads the image, signs a retrieval
// URL and creates the record. Name, price and image are all required; a
// validation failure leaves the store untouched. The upload happens first,
// so a failed create can leave an orphaned object but never a record
// without its image.
func (s *ProductService) CreateProduct(ctx context.Context, name, price string, image io.Reader, filename, contentType string) (*models.Product, error) {
	product, err := s.buildProduct(name, price)
	if err != nil {
		return nil, err
	}
	if image == nil {
		return nil, fmt.Errorf("%w: image file is required", ErrInvalidInput)
	}

	key, url, err := s.uploadImage(ctx, image, filename, contentType)
	if err != nil {
		return nil, err
	}
	product.ImageURL = url
	product.ImagePath = key

	if err := s.repo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvent(rabbitmq.EventProductCreated, product)
	return product, nil
}

// UpdateProduct rewrites name and price and, only when a new image file is
// supplied, replaces the image reference. The previous stored object is left
// in place; orphaned objects are cheaper than deleting one still referenced
// by a cached page.
func (s *ProductService) UpdateProduct(ctx context.Context, id, name, price string, image io.Reader, filename, contentType string) (*models.Product, error) {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	updated, err := s.buildProduct(name, price)
	if err != nil {
		return nil, err
	}
	product.Name = updated.Name
	product.Price = updated.Price

	if image != nil {
		key, url, err := s.uploadImage(ctx, image, filename, contentType)
		if err != nil {
			return nil, err
		}
		product.ImageURL = url
		product.ImagePath = key
	}

	if err := s.repo.Update(ctx, product); err != nil {
		return nil, err
	}

	s.publishEvent(rabbitmq.EventProductUpdated, product)
	return product, nil
}

// DeleteProduct removes the stored image object (best-effort) and then the
// record. A failed object delete is logged and swallowed: the object may
// have been removed out-of-band, and the record deletion must proceed
// regardless. Records without an image path skip the object delete.
func (s *ProductService) DeleteProduct(ctx context.Context, id string) error {
	product, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if product.ImagePath != "" {
		if err := s.store.Delete(ctx, product.ImagePath); err != nil {
			s.logger.Warn().Err(err).Str("key", product.ImagePath).Msg("could not delete stored image, continuing")
		}
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publishEvent(rabbitmq.EventProductDeleted, product)
	return nil
}

func (s *ProductService) buildProduct(name, price string) (*models.Product, error) {
	priceVal, err := models.ParsePrice(price)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}

	product := &models.Product{
		Name:  name,
		Price: priceVal,
	}
	if err := s.validate.Struct(product); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return product, nil
}

func (s *ProductService) uploadImage(ctx context.Context, image io.Reader, filename, contentType string) (key, url string, err error) {
	key, err = s.store.Upload(ctx, image, filename, contentType)
	if err != nil {
		return "", "", fmt.Errorf("failed to upload image: %w", err)
	}
	url, err = s.store.SignedURL(key, s.signedURLTTL)
	if err != nil {
		return "", "", fmt.Errorf("failed to sign image URL: %w", err)
	}
	return key, url, nil
}

// publishEvent is best-effort: a broker failure must never fail the product
// operation that triggered it.
func (s *ProductService) publishEvent(event string, product *models.Product) {
	if s.mqClient == nil {
		return
	}
	payload := map[string]interface{}{
		"id":    product.ID,
		"name":  product.Name,
		"price": product.Price,
	}
	if err := s.mqClient.PublishProductEvent(event, payload); err != nil {
		s.logger.Warn().Err(err).Str("event", event).Msg("could not publish catalog event")
	}
}
