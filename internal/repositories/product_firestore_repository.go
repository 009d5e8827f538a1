package repositories

import (
	"context"
	"fmt"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"catalogo/internal/models"
)

// FirestoreProductRepository is a Firestore implementation of ProductRepository.
// Records live in a single collection; the document ID doubles as the product ID.
type FirestoreProductRepository struct {
	client     *firestore.Client
	collection string
}

// NewFirestoreProductRepository creates a new instance of FirestoreProductRepository.
func NewFirestoreProductRepository(client *firestore.Client, collection string) *FirestoreProductRepository {
	return &FirestoreProductRepository{
		client:     client,
		collection: collection,
	}
}

// GetAll retrieves all products, ordered by name. Callers that need a
// case-insensitive ordering re-sort; Firestore orders code-point-wise.
func (r *FirestoreProductRepository) GetAll(ctx context.Context) ([]models.Product, error) {
	iter := r.client.Collection(r.collection).OrderBy("name", firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var products []models.Product
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list products: %w", err)
		}
		var p models.Product
		if err := doc.DataTo(&p); err != nil {
			return nil, fmt.Errorf("failed to decode product %s: %w", doc.Ref.ID, err)
		}
		p.ID = doc.Ref.ID
		products = append(products, p)
	}
	return products, nil
}

// GetByID retrieves a single product by its document ID.
func (r *FirestoreProductRepository) GetByID(ctx context.Context, id string) (*models.Product, error) {
	doc, err := r.client.Collection(r.collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("failed to get product %s: %w", id, err)
	}
	var p models.Product
	if err := doc.DataTo(&p); err != nil {
		return nil, fmt.Errorf("failed to decode product %s: %w", id, err)
	}
	p.ID = doc.Ref.ID
	return &p, nil
}

// Create stores a new product and fills in the generated document ID.
func (r *FirestoreProductRepository) Create(ctx context.Context, product *models.Product) error {
	docRef := r.client.Collection(r.collection).NewDoc()
	product.ID = docRef.ID
	if _, err := docRef.Set(ctx, product); err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// Update rewrites an existing product document.
func (r *FirestoreProductRepository) Update(ctx context.Context, product *models.Product) error {
	docRef := r.client.Collection(r.collection).Doc(product.ID)
	if _, err := docRef.Get(ctx); err != nil {
		if status.Code(err) == codes.NotFound {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to look up product %s: %w", product.ID, err)
	}
	if _, err := docRef.Set(ctx, product); err != nil {
		return fmt.Errorf("failed to update product %s: %w", product.ID, err)
	}
	return nil
}

// Delete removes a product document by its ID.
func (r *FirestoreProductRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.client.Collection(r.collection).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}
