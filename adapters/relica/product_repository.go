package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
	"github.com/coregx/relica"
)

// ProductRepository implements livechat.ProductRepository using Relica.
type ProductRepository struct {
	db *relica.DB
}

// NewProductRepository creates a new ProductRepository.
func NewProductRepository(sqlDB *sql.DB, driverName string) *ProductRepository {
	return &ProductRepository{db: relica.WrapDB(sqlDB, driverName)}
}

// Load retrieves a product by ID.
func (r *ProductRepository) Load(ctx context.Context, id int64) (model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).Select("*").From(model.Product{}.TableName()).Where("id = ?", id).One(&product)
	if errors.Is(err, sql.ErrNoRows) {
		return product, livechat.ErrNoData
	}
	if err != nil {
		return product, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to load product", err)
	}
	return product, nil
}

// Save inserts a product. Used by seeding tools and tests.
func (r *ProductRepository) Save(ctx context.Context, product model.Product) (model.Product, error) {
	err := r.db.WithContext(ctx).Model(&product).Table(product.TableName()).Insert()
	if err != nil {
		return product, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert product", err)
	}
	return product, nil
}
