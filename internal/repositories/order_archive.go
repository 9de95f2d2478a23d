package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/XSAM/otelsql"
	"github.com/rainydayslabs/storefront-core/internal/config"
	"github.com/rainydayslabs/storefront-core/internal/models"
	"github.com/rainydayslabs/storefront-core/internal/utils"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	_ "github.com/lib/pq"
)

// OrderArchive mirrors the order history into Postgres, append-only.
// Rows are never updated or deleted. OrderPlaced makes it pluggable as a
// checkout sink.
type OrderArchive interface {
	OrderPlaced(ctx context.Context, order *models.Order) error
	Close() error
}

type orderArchive struct {
	DB *sql.DB
}

func NewOrderArchive(cfg *config.Config) (OrderArchive, error) {

	db, err := otelsql.Open("postgres", cfg.Archive.GetDSN(),
		otelsql.WithAttributes(semconv.DBSystemPostgreSQL))
	if err != nil {
		return nil, fmt.Errorf("failed to open archive database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to connect to archive database: %w", err)
	}

	return &orderArchive{DB: db}, nil
}

// NewOrderArchiveWithDB wraps an existing handle; tests use this with a
// mocked database.
func NewOrderArchiveWithDB(db *sql.DB) OrderArchive {
	return &orderArchive{DB: db}
}

func (a *orderArchive) OrderPlaced(ctx context.Context, order *models.Order) error {
	dbCtx, cancel := utils.WithDBTimeout(ctx)
	defer cancel()

	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to marshal order items: %w", err)
	}

	query := `
		INSERT INTO orders (order_id, items, total, customer_email, created_at, estimated_delivery)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err = a.DB.ExecContext(dbCtx, query,
		order.OrderID, itemsJSON, order.Total.StringFixed(2),
		order.Customer.Email, order.CreatedAt, order.EstimatedDelivery)
	if err != nil {
		return fmt.Errorf("failed to archive order %s: %w", order.OrderID, err)
	}

	return nil
}

func (a *orderArchive) Close() error {
	return a.DB.Close()
}
