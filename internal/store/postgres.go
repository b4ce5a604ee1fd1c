package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/lib/pq"

	"storefront-service/internal/domain"
)

// Predefined errors for store operations
var (
	ErrCategoryNotFound   = errors.New("store: category not found")
	ErrCategoryNameExists = errors.New("store: category name or slug already exists")
	ErrProductNotFound    = errors.New("store: product not found")
	ErrProductSKUExists   = errors.New("store: product SKU already exists")
	ErrOrderNotFound      = errors.New("store: order not found")
	ErrOrderNumberExists  = errors.New("store: order number already exists")
)

// PostgresStore implements the CategoryStorer, ProductStorer, OrderStorer,
// UserStorer and StatsStorer interfaces using PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new PostgresStore instance.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// isUniqueViolation reports whether err is a unique-constraint violation on
// the named constraint.
func isUniqueViolation(err error, constraint string) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return strings.Contains(pqErr.Constraint, constraint) ||
			strings.Contains(pqErr.Detail, constraint)
	}
	return false
}

// jsonbOrEmptyArray marshals v for a JSONB column, writing an empty array
// instead of SQL null for nil slices so aggregation queries can always
// unnest the column.
func jsonbOrEmptyArray(v interface{}) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if string(data) == "null" {
		return []byte("[]"), nil
	}
	return data, nil
}

func unmarshalJSONB(data []byte, v interface{}) error {
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	return json.Unmarshal(data, v)
}

// --- CategoryStorer Implementation ---

const categoryColumns = `id, name, description, slug, parent_id, image, is_active, display_order, product_count, created_at, updated_at`

func scanCategory(row rowScanner) (*domain.Category, error) {
	var c domain.Category
	err := row.Scan(
		&c.ID, &c.Name, &c.Description, &c.Slug, &c.ParentID,
		&c.Image, &c.IsActive, &c.DisplayOrder, &c.ProductCount,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *PostgresStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	// The slug is derived from the name exactly once, on first save.
	if category.Slug == "" {
		category.Slug = domain.Slugify(category.Name)
	}
	query := `
		INSERT INTO categories (name, description, slug, parent_id, image, is_active, display_order)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING ` + categoryColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		category.Name, category.Description, category.Slug,
		category.ParentID, category.Image, category.IsActive, category.DisplayOrder,
	)
	created, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err, "categories_name_key") || isUniqueViolation(err, "categories_slug_key") {
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("store: CreateCategory failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetCategoryByID(ctx context.Context, id int64) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE id = $1;`
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryByID failed to scan row: %w", err)
	}
	return category, nil
}

func (s *PostgresStore) GetCategoryBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	query := `SELECT ` + categoryColumns + ` FROM categories WHERE slug = $1;`
	category, err := scanCategory(s.db.QueryRowContext(ctx, query, slug))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: GetCategoryBySlug failed to scan row: %w", err)
	}
	return category, nil
}

func (s *PostgresStore) ListCategories(ctx context.Context, params ListCategoriesParams) ([]domain.Category, int, error) {
	whereCondition := ""
	if params.ActiveOnly {
		whereCondition = " WHERE is_active = TRUE"
	}

	countQuery := "SELECT COUNT(*) FROM categories" + whereCondition + ";"
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories failed to count categories: %w", err)
	}
	if totalCount == 0 {
		return []domain.Category{}, 0, nil
	}

	query := `SELECT ` + categoryColumns + ` FROM categories` + whereCondition + `
		ORDER BY display_order ASC, name ASC
		LIMIT $1 OFFSET $2;`
	rows, err := s.db.QueryContext(ctx, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	defer rows.Close()

	categories := make([]domain.Category, 0, params.Limit)
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("store: ListCategories failed to scan category row: %w", err)
		}
		categories = append(categories, *c)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListCategories iteration error: %w", err)
	}
	return categories, totalCount, nil
}

func (s *PostgresStore) UpdateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	// The slug column is intentionally absent from the SET list: once
	// derived it is never regenerated, even when the name changes.
	query := `
		UPDATE categories
		SET name = $1, description = $2, parent_id = $3, image = $4, is_active = $5, display_order = $6, updated_at = CURRENT_TIMESTAMP
		WHERE id = $7
		RETURNING ` + categoryColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		category.Name, category.Description, category.ParentID,
		category.Image, category.IsActive, category.DisplayOrder, category.ID,
	)
	updated, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCategoryNotFound
		}
		if isUniqueViolation(err, "categories_name_key") {
			return nil, ErrCategoryNameExists
		}
		return nil, fmt.Errorf("store: UpdateCategory failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) RecountCategoryProducts(ctx context.Context, categoryID int64) error {
	// Count-then-write over two tables in one statement. It still runs after
	// the product mutation that triggered it, so the two writes are not
	// atomic: if this update fails the product change stays committed and
	// the cached count drifts until the next recount.
	query := `
		UPDATE categories
		SET product_count = (SELECT COUNT(*) FROM products WHERE category_id = $1 AND is_published = TRUE)
		WHERE id = $1;
	`
	if _, err := s.db.ExecContext(ctx, query, categoryID); err != nil {
		return fmt.Errorf("store: RecountCategoryProducts failed for category %d: %w", categoryID, err)
	}
	return nil
}

// --- ProductStorer Implementation ---

const productColumns = `id, name, description, price, compare_price, cost, category_id, subcategory, brand, sku, barcode, track_quantity, quantity, low_stock_alert, is_published, is_featured, images, tags, reviews, average_rating, review_count, sales_count, view_count, created_at, updated_at`

// prefixColumns qualifies each column with a table alias for joined queries.
func prefixColumns(columns, alias string) string {
	parts := strings.Split(columns, ", ")
	for i, p := range parts {
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

func scanProduct(row rowScanner, withCategoryName bool) (*domain.Product, error) {
	var p domain.Product
	var images, tags, reviews []byte
	dest := []interface{}{
		&p.ID, &p.Name, &p.Description, &p.Price, &p.ComparePrice, &p.Cost,
		&p.CategoryID, &p.Subcategory, &p.Brand, &p.SKU, &p.Barcode,
		&p.TrackQuantity, &p.Quantity, &p.LowStockAlert, &p.IsPublished, &p.IsFeatured,
		&images, &tags, &reviews,
		&p.AverageRating, &p.ReviewCount, &p.SalesCount, &p.ViewCount,
		&p.CreatedAt, &p.UpdatedAt,
	}
	if withCategoryName {
		dest = append(dest, &p.CategoryName)
	}
	if err := row.Scan(dest...); err != nil {
		return nil, err
	}
	if err := unmarshalJSONB(images, &p.Images); err != nil {
		return nil, fmt.Errorf("store: invalid images payload for product %d: %w", p.ID, err)
	}
	if err := unmarshalJSONB(tags, &p.Tags); err != nil {
		return nil, fmt.Errorf("store: invalid tags payload for product %d: %w", p.ID, err)
	}
	if err := unmarshalJSONB(reviews, &p.Reviews); err != nil {
		return nil, fmt.Errorf("store: invalid reviews payload for product %d: %w", p.ID, err)
	}
	return &p, nil
}

func (s *PostgresStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	// Persistence-time derivations, the moral equivalent of pre-save hooks:
	// missing SKUs are generated and review statistics recomputed.
	if product.SKU == "" {
		product.SKU = domain.GenerateSKU(time.Now())
	}
	product.ApplyReviewStats()

	images, err := jsonbOrEmptyArray(product.Images)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to encode images: %w", err)
	}
	tags, err := jsonbOrEmptyArray(product.Tags)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to encode tags: %w", err)
	}
	reviews, err := jsonbOrEmptyArray(product.Reviews)
	if err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to encode reviews: %w", err)
	}

	query := `
		INSERT INTO products (name, description, price, compare_price, cost, category_id, subcategory, brand, sku, barcode, track_quantity, quantity, low_stock_alert, is_published, is_featured, images, tags, reviews, average_rating, review_count, sales_count, view_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22)
		RETURNING ` + productColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.ComparePrice, product.Cost,
		product.CategoryID, product.Subcategory, product.Brand, product.SKU, product.Barcode,
		product.TrackQuantity, product.Quantity, product.LowStockAlert, product.IsPublished, product.IsFeatured,
		images, tags, reviews,
		product.AverageRating, product.ReviewCount, product.SalesCount, product.ViewCount,
	)
	created, err := scanProduct(row, false)
	if err != nil {
		if isUniqueViolation(err, "products_sku_key") {
			return nil, ErrProductSKUExists
		}
		return nil, fmt.Errorf("store: CreateProduct failed to scan row: %w", err)
	}
	return created, nil
}

func (s *PostgresStore) GetProductByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `
		SELECT ` + prefixColumns(productColumns, "p") + `, COALESCE(c.name, '')
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
		WHERE p.id = $1;
	`
	product, err := scanProduct(s.db.QueryRowContext(ctx, query, id), true)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to scan row: %w", err)
	}
	return product, nil
}

func (s *PostgresStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, int, error) {
	var queryArgs []interface{}
	var whereClauses []string
	argID := 1

	if params.Search != nil && *params.Search != "" {
		whereClauses = append(whereClauses,
			fmt.Sprintf("(p.name ILIKE $%d OR p.description ILIKE $%d OR p.sku ILIKE $%d)", argID, argID+1, argID+2))
		searchTerm := "%" + *params.Search + "%"
		queryArgs = append(queryArgs, searchTerm, searchTerm, searchTerm)
		argID += 3
	}
	if params.CategoryID != nil {
		whereClauses = append(whereClauses, fmt.Sprintf("p.category_id = $%d", argID))
		queryArgs = append(queryArgs, *params.CategoryID)
		argID++
	}
	switch params.Status {
	case "published":
		whereClauses = append(whereClauses, "p.is_published = TRUE")
	case "unpublished":
		whereClauses = append(whereClauses, "p.is_published = FALSE")
	case "lowstock":
		// Same fixed threshold the dashboard low-stock counter uses.
		whereClauses = append(whereClauses, "p.track_quantity = TRUE", "p.quantity <= 5")
	}
	if params.PublishedOnly {
		whereClauses = append(whereClauses, "p.is_published = TRUE")
	}

	whereCondition := ""
	if len(whereClauses) > 0 {
		whereCondition = " WHERE " + strings.Join(whereClauses, " AND ")
	}

	countQuery := "SELECT COUNT(*) FROM products p" + whereCondition
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery, queryArgs...).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to count products: %w", err)
	}
	if totalCount == 0 {
		return []domain.Product{}, 0, nil
	}

	sortColumn := "p.created_at"
	allowedSortColumns := map[string]string{
		"createdAt":  "p.created_at",
		"updatedAt":  "p.updated_at",
		"name":       "p.name",
		"price":      "p.price",
		"quantity":   "p.quantity",
		"salesCount": "p.sales_count",
	}
	if col, ok := allowedSortColumns[params.SortBy]; ok {
		sortColumn = col
	}
	sortOrder := "DESC"
	if strings.ToLower(params.SortOrder) == "asc" {
		sortOrder = "ASC"
	}

	dataQueryPreamble := `
		SELECT ` + prefixColumns(productColumns, "p") + `, COALESCE(c.name, '')
		FROM products p
		LEFT JOIN categories c ON c.id = p.category_id
	`
	dataQuery := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT $%d OFFSET $%d",
		dataQueryPreamble, whereCondition, sortColumn, sortOrder, argID, argID+1)
	finalQueryArgs := append(queryArgs, params.Limit, params.Offset)

	rows, err := s.db.QueryContext(ctx, dataQuery, finalQueryArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0, params.Limit)
	for rows.Next() {
		p, err := scanProduct(rows, true)
		if err != nil {
			return nil, 0, fmt.Errorf("store: ListProducts failed to scan product row: %w", err)
		}
		products = append(products, *p)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListProducts iteration error: %w", err)
	}
	return products, totalCount, nil
}

func (s *PostgresStore) UpdateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	product.ApplyReviewStats()

	images, err := jsonbOrEmptyArray(product.Images)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to encode images: %w", err)
	}
	tags, err := jsonbOrEmptyArray(product.Tags)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to encode tags: %w", err)
	}
	reviews, err := jsonbOrEmptyArray(product.Reviews)
	if err != nil {
		return nil, fmt.Errorf("store: UpdateProduct failed to encode reviews: %w", err)
	}

	query := `
		UPDATE products
		SET name = $1, description = $2, price = $3, compare_price = $4, cost = $5, category_id = $6, subcategory = $7, brand = $8, sku = $9, barcode = $10, track_quantity = $11, quantity = $12, low_stock_alert = $13, is_published = $14, is_featured = $15, images = $16, tags = $17, reviews = $18, average_rating = $19, review_count = $20, updated_at = CURRENT_TIMESTAMP
		WHERE id = $21
		RETURNING ` + productColumns + `;
	`
	row := s.db.QueryRowContext(ctx, query,
		product.Name, product.Description, product.Price, product.ComparePrice, product.Cost,
		product.CategoryID, product.Subcategory, product.Brand, product.SKU, product.Barcode,
		product.TrackQuantity, product.Quantity, product.LowStockAlert, product.IsPublished, product.IsFeatured,
		images, tags, reviews,
		product.AverageRating, product.ReviewCount, product.ID,
	)
	updated, err := scanProduct(row, false)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		if isUniqueViolation(err, "products_sku_key") {
			return nil, ErrProductSKUExists
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to scan row: %w", err)
	}
	return updated, nil
}

func (s *PostgresStore) DeleteProduct(ctx context.Context, id int64) error {
	query := `DELETE FROM products WHERE id = $1;`
	result, err := s.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to execute delete: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: DeleteProduct failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrProductNotFound
	}
	return nil
}

func (s *PostgresStore) IncrementViewCount(ctx context.Context, id int64) error {
	query := `UPDATE products SET view_count = view_count + 1 WHERE id = $1;`
	if _, err := s.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("store: IncrementViewCount failed for product %d: %w", id, err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	if s.db != nil {
		log.Println("INFO: Closing database connection pool...")
		if err := s.db.Close(); err != nil {
			log.Printf("ERROR: Failed to close database connection pool: %v", err)
			return err
		}
		log.Println("INFO: Database connection pool closed successfully.")
	}
	return nil
}
