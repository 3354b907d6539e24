package repository

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/qes00/allahuv3/internal/model"
)

type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

const productCols = "id,name,COALESCE(description,''),price,COALESCE(image_url,''),COALESCE(category,''),is_featured,created_at,updated_at"

func scanProduct(row interface{ Scan(...any) error }) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.ImageURL,
		&p.Category, &p.IsFeatured, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// List returns catalog products, newest first. When category is non-empty the
// result is filtered to that category label.
func (r *ProductRepo) List(ctx context.Context, category string) ([]model.Product, error) {
	query := "SELECT " + productCols + " FROM products"
	args := []any{}
	if category != "" {
		query += " WHERE category=?"
		args = append(args, category)
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Product{}
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// GetByID fetches a single product. Returns ErrNotFound for unknown ids.
func (r *ProductRepo) GetByID(ctx context.Context, id string) (model.Product, error) {
	p, err := scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productCols+" FROM products WHERE id=? LIMIT 1", id))
	if err == sql.ErrNoRows {
		return model.Product{}, ErrNotFound
	}
	return p, err
}

// Create inserts a product and returns it with the generated id.
func (r *ProductRepo) Create(ctx context.Context, p model.Product) (model.Product, error) {
	p.ID = uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (id, name, description, price, image_url, category, is_featured) VALUES (?,?,?,?,?,?,?)",
		p.ID, p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.IsFeatured)
	if err != nil {
		return model.Product{}, err
	}
	return r.GetByID(ctx, p.ID)
}

// Update replaces the mutable columns of an existing product.
func (r *ProductRepo) Update(ctx context.Context, p model.Product) (model.Product, error) {
	res, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, description=?, price=?, image_url=?, category=?, is_featured=? WHERE id=?",
		p.Name, p.Description, p.Price, p.ImageURL, p.Category, p.IsFeatured, p.ID)
	if err != nil {
		return model.Product{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		if _, getErr := r.GetByID(ctx, p.ID); getErr != nil {
			return model.Product{}, ErrNotFound
		}
	}
	return r.GetByID(ctx, p.ID)
}
