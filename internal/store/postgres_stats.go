package store

import (
	"context"
	"fmt"
	"time"

	"storefront-service/internal/domain"
)

// --- UserStorer Implementation ---

func (s *PostgresStore) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, int, error) {
	countQuery := `SELECT COUNT(*) FROM users;`
	var totalCount int
	if err := s.db.QueryRowContext(ctx, countQuery).Scan(&totalCount); err != nil {
		return nil, 0, fmt.Errorf("store: ListUsers failed to count users: %w", err)
	}
	if totalCount == 0 {
		return []domain.User{}, 0, nil
	}

	query := `
		SELECT id, name, email, role, created_at
		FROM users
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2;
	`
	rows, err := s.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("store: ListUsers failed to query users: %w", err)
	}
	defer rows.Close()

	users := make([]domain.User, 0, limit)
	for rows.Next() {
		var u domain.User
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("store: ListUsers failed to scan user row: %w", err)
		}
		users = append(users, u)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("store: ListUsers iteration error: %w", err)
	}
	return users, totalCount, nil
}

// --- StatsStorer Implementation ---

// DashboardStats assembles the admin dashboard payload. All figures are
// recomputed from scratch on every call; revenue sums consider paid orders
// only, and an empty database produces an all-zero overview rather than an
// error.
func (s *PostgresStore) DashboardStats(ctx context.Context, now time.Time) (*DashboardStats, error) {
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	tomorrow := todayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	monthEnd := monthStart.AddDate(0, 1, 0)
	thirtyDaysAgo := now.AddDate(0, 0, -30)

	overviewQuery := `
		SELECT
			(SELECT COUNT(*) FROM users),
			(SELECT COUNT(*) FROM products),
			(SELECT COUNT(*) FROM orders),
			(SELECT COUNT(*) FROM categories),
			(SELECT COUNT(*) FROM orders WHERE created_at >= $1 AND created_at < $2),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE created_at >= $1 AND created_at < $2 AND payment_status = 'paid'),
			(SELECT COALESCE(SUM(total), 0) FROM orders WHERE created_at >= $3 AND created_at < $4 AND payment_status = 'paid'),
			(SELECT COUNT(*) FROM products WHERE track_quantity = TRUE AND quantity <= 5),
			(SELECT COUNT(*) FROM users WHERE created_at >= $5);
	`
	var overview DashboardOverview
	err := s.db.QueryRowContext(ctx, overviewQuery, todayStart, tomorrow, monthStart, monthEnd, thirtyDaysAgo).Scan(
		&overview.TotalUsers, &overview.TotalProducts, &overview.TotalOrders, &overview.TotalCategories,
		&overview.TodayOrders, &overview.TodayRevenue, &overview.MonthlyRevenue,
		&overview.LowStockProducts, &overview.NewUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("store: DashboardStats failed to scan overview: %w", err)
	}

	recentOrders, _, err := s.ListOrders(ctx, ListOrdersParams{Limit: 5, Offset: 0})
	if err != nil {
		return nil, fmt.Errorf("store: DashboardStats failed to load recent orders: %w", err)
	}

	topQuery := `
		SELECT id, name, price, sales_count, images
		FROM products
		ORDER BY sales_count DESC
		LIMIT 5;
	`
	rows, err := s.db.QueryContext(ctx, topQuery)
	if err != nil {
		return nil, fmt.Errorf("store: DashboardStats failed to query top products: %w", err)
	}
	defer rows.Close()

	topProducts := make([]TopProduct, 0, 5)
	for rows.Next() {
		var tp TopProduct
		var images []byte
		if err := rows.Scan(&tp.ID, &tp.Name, &tp.Price, &tp.SalesCount, &images); err != nil {
			return nil, fmt.Errorf("store: DashboardStats failed to scan top product row: %w", err)
		}
		if err := unmarshalJSONB(images, &tp.Images); err != nil {
			return nil, fmt.Errorf("store: invalid images payload for product %d: %w", tp.ID, err)
		}
		topProducts = append(topProducts, tp)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: DashboardStats top products iteration error: %w", err)
	}

	return &DashboardStats{
		Overview:     overview,
		RecentOrders: recentOrders,
		TopProducts:  topProducts,
	}, nil
}

// SalesData groups paid-order totals per calendar day since the given time,
// oldest day first.
func (s *PostgresStore) SalesData(ctx context.Context, since time.Time) ([]SalesPoint, error) {
	query := `
		SELECT to_char(created_at, 'YYYY-MM-DD') AS day, COALESCE(SUM(total), 0), COUNT(*)
		FROM orders
		WHERE created_at >= $1 AND payment_status = 'paid'
		GROUP BY day
		ORDER BY day ASC;
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("store: SalesData failed to query orders: %w", err)
	}
	defer rows.Close()

	points := make([]SalesPoint, 0)
	for rows.Next() {
		var p SalesPoint
		if err := rows.Scan(&p.Date, &p.TotalSales, &p.OrderCount); err != nil {
			return nil, fmt.Errorf("store: SalesData failed to scan row: %w", err)
		}
		points = append(points, p)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: SalesData iteration error: %w", err)
	}
	return points, nil
}

// RevenueByCategory unnests each paid order's JSONB line items, joins them
// through products to categories and sums the item totals per category name.
// The ordering of equal revenues is left to the database.
func (s *PostgresStore) RevenueByCategory(ctx context.Context, since time.Time) ([]CategoryRevenue, error) {
	query := `
		SELECT c.name, COALESCE(SUM((item->>'total')::double precision), 0) AS revenue, COUNT(*) AS order_count
		FROM orders o
		CROSS JOIN LATERAL jsonb_array_elements(o.items) AS item
		JOIN products p ON p.id = (item->>'product')::bigint
		JOIN categories c ON c.id = p.category_id
		WHERE o.created_at >= $1 AND o.payment_status = 'paid'
		GROUP BY c.name
		ORDER BY revenue DESC;
	`
	rows, err := s.db.QueryContext(ctx, query, since)
	if err != nil {
		return nil, fmt.Errorf("store: RevenueByCategory failed to query orders: %w", err)
	}
	defer rows.Close()

	results := make([]CategoryRevenue, 0)
	for rows.Next() {
		var cr CategoryRevenue
		if err := rows.Scan(&cr.Category, &cr.Revenue, &cr.OrderCount); err != nil {
			return nil, fmt.Errorf("store: RevenueByCategory failed to scan row: %w", err)
		}
		results = append(results, cr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("store: RevenueByCategory iteration error: %w", err)
	}
	return results, nil
}
