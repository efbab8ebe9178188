package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/slascicarna/internal/model"
)

// CreateProduct creates a new catalog product.
func CreateProduct(ctx context.Context, db *sql.DB, p *model.Product) (*model.Product, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO products (name, description, category, base_price, price_per_person, price_type, image_url)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Description, p.Category, p.BasePrice, p.PricePerPerson, p.PriceType, p.ImageURL,
	)
	if err != nil {
		return nil, fmt.Errorf("creating product: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting product id: %w", err)
	}

	return GetProduct(ctx, db, id)
}

// GetProduct returns a product by ID.
func GetProduct(ctx context.Context, db *sql.DB, id int64) (*model.Product, error) {
	p := &model.Product{}
	var description, imageURL sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, description, category, base_price, price_per_person, price_type,
		        image_url, created_at, updated_at, deleted_at
		 FROM products WHERE id = ?`, id,
	).Scan(&p.ID, &p.Name, &description, &p.Category, &p.BasePrice, &p.PricePerPerson,
		&p.PriceType, &imageURL, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting product: %w", err)
	}
	p.Description = description.String
	p.ImageURL = imageURL.String
	return p, nil
}

// ListProducts returns all non-deleted products, optionally filtered by category.
func ListProducts(ctx context.Context, db *sql.DB, category string) ([]model.Product, error) {
	var rows *sql.Rows
	var err error

	if category != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, description, category, base_price, price_per_person, price_type,
			        image_url, created_at, updated_at, deleted_at
			 FROM products WHERE deleted_at IS NULL AND category = ? ORDER BY name`, category,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT id, name, description, category, base_price, price_per_person, price_type,
			        image_url, created_at, updated_at, deleted_at
			 FROM products WHERE deleted_at IS NULL ORDER BY name`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []model.Product
	for rows.Next() {
		var p model.Product
		var description, imageURL sql.NullString
		if err := rows.Scan(&p.ID, &p.Name, &description, &p.Category, &p.BasePrice, &p.PricePerPerson,
			&p.PriceType, &imageURL, &p.CreatedAt, &p.UpdatedAt, &p.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning product: %w", err)
		}
		p.Description = description.String
		p.ImageURL = imageURL.String
		products = append(products, p)
	}
	return products, rows.Err()
}

// UpdateProduct updates a product's catalog fields.
func UpdateProduct(ctx context.Context, db *sql.DB, p *model.Product) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products
		 SET name = ?, description = ?, category = ?, base_price = ?, price_per_person = ?,
		     price_type = ?, image_url = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND deleted_at IS NULL`,
		p.Name, p.Description, p.Category, p.BasePrice, p.PricePerPerson, p.PriceType, p.ImageURL, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProduct soft-deletes a product. Returns ErrNotFound if no active
// product has the given ID.
func DeleteProduct(ctx context.Context, db *sql.DB, id int64) error {
	result, err := db.ExecContext(ctx,
		`UPDATE products SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting product: %w", err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
