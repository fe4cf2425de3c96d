package catalog

import (
	"context"
	"errors"
	"fmt"
)

type Product struct {
	ID                 int64   `json:"id"`
	Name               string  `json:"name"`
	Description        string  `json:"description"`
	Category           string  `json:"category"`
	Brand              string  `json:"brand"`
	Price              float64 `json:"price"`
	StockQuantity      int     `json:"stock_quantity"`
	ReleaseDate        string  `json:"release_date"`
	AvailabilityStatus string  `json:"availability_status"`
	CustomerRating     float64 `json:"customer_rating"`
	Colors             string  `json:"colors"`
	Sizes              string  `json:"sizes"`
}

type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
}

type BrandCount struct {
	Brand string `json:"brand"`
	Count int    `json:"count"`
}

type Filters struct {
	Categories []CategoryCount `json:"categories"`
	Brands     []BrandCount    `json:"brands"`
}

// GenerateResult reports a best-effort batch: Inserted+Failed may be less
// than Requested when the context ended early.
type GenerateResult struct {
	RunID     string `json:"run_id"`
	Requested int    `json:"requested"`
	Inserted  int    `json:"inserted"`
	Failed    int    `json:"failed"`
}

type Store interface {
	Ping(ctx context.Context) error
	Init(ctx context.Context) error
	Generate(ctx context.Context, count int) (GenerateResult, error)
	List(ctx context.Context) ([]Product, error)
	Get(ctx context.Context, id int64) (Product, bool, error)
	Search(ctx context.Context, query string) ([]Product, error)
	Categories(ctx context.Context) ([]string, error)
	Brands(ctx context.Context) ([]string, error)
	Filters(ctx context.Context) (Filters, error)
	Suggestions(ctx context.Context, query string) ([]string, error)
}

var (
	ErrUnavailable  = errors.New("catalog store unavailable")
	ErrInvalidCount = errors.New("invalid product count")
)

// OpError ties a failure to the store operation that produced it.
type OpError struct {
	Op  string
	Err error
}

func (e *OpError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Op, e.Err)
}

func (e *OpError) Unwrap() error { return e.Err }
