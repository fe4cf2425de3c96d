package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	pingTimeout            = 1 * time.Second
	defaultQueryTimeout    = 3 * time.Second
	defaultGenerateTimeout = 60 * time.Second

	suggestionLimit = 10
)

var (
	productColumns = []string{
		"id", "name", "description", "category", "brand", "price", "stock_quantity",
		"release_date", "availability_status", "customer_rating", "colors", "sizes",
	}
	insertColumns = productColumns[1:]

	likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
)

type SQLStoreOptions struct {
	Dialect         Dialect
	Policy          AccessPolicy
	QueryTimeout    time.Duration
	GenerateTimeout time.Duration
	Generator       *Generator
	Metrics         *StoreMetrics
	Log             *zap.Logger
}

// SQLStore is the products table behind database/sql. Every operation passes
// through the access gate and runs on a scoped pooled connection that is
// returned on every exit path.
type SQLStore struct {
	db      *sql.DB
	dialect Dialect
	sb      sq.StatementBuilderType
	gate    *gate

	queryTimeout    time.Duration
	generateTimeout time.Duration

	gen     *Generator
	metrics *StoreMetrics
	log     *zap.Logger
}

func NewSQLStore(db *sql.DB, opts SQLStoreOptions) *SQLStore {
	if opts.Dialect == "" {
		opts.Dialect = DialectSQLite
	}
	if opts.QueryTimeout <= 0 {
		opts.QueryTimeout = defaultQueryTimeout
	}
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = defaultGenerateTimeout
	}
	if opts.Generator == nil {
		opts.Generator = NewGenerator(nil)
	}
	if opts.Log == nil {
		opts.Log = zap.NewNop()
	}

	return &SQLStore{
		db:              db,
		dialect:         opts.Dialect,
		sb:              sq.StatementBuilder.PlaceholderFormat(opts.Dialect.placeholders()),
		gate:            newGate(opts.Policy),
		queryTimeout:    opts.QueryTimeout,
		generateTimeout: opts.GenerateTimeout,
		gen:             opts.Generator,
		metrics:         opts.Metrics,
		log:             opts.Log,
	}
}

func (s *SQLStore) Ping(ctx context.Context) error {
	return withTimeout(ctx, pingTimeout, func(ctx context.Context) error {
		return s.db.PingContext(ctx)
	})
}

func (s *SQLStore) Init(ctx context.Context) (err error) {
	const op = "init"
	start := time.Now()

	release := s.gate.acquire(true)
	defer release()
	defer func() { s.metrics.observe(op, start, err) }()

	var applied int
	err = withTimeout(ctx, s.generateTimeout, func(ctx context.Context) error {
		res, err := migrate(ctx, s.db, s.dialect)
		if err != nil {
			return err
		}
		for _, r := range res {
			if r.Source != nil {
				s.log.Info("migration applied",
					zap.Int64("version", r.Source.Version),
					zap.Duration("duration", r.Duration),
				)
			}
		}
		applied = len(res)
		return nil
	})
	if err != nil {
		return &OpError{Op: op, Err: err}
	}

	s.log.Debug("schema ready", zap.String("dialect", string(s.dialect)), zap.Int("applied", applied))
	return nil
}

// Generate inserts count synthetic products. Rows are independent: a failed
// insert is logged and counted and the batch moves on.
func (s *SQLStore) Generate(ctx context.Context, count int) (GenerateResult, error) {
	const op = "generate"

	res := GenerateResult{RunID: uuid.NewString(), Requested: count}
	if count < 0 {
		return res, &OpError{Op: op, Err: fmt.Errorf("%w: %d", ErrInvalidCount, count)}
	}
	if count == 0 {
		return res, nil
	}

	insertSQL, _, err := s.sb.Insert("products").
		Columns(insertColumns...).
		Values(productArgs(Product{})...).
		ToSql()
	if err != nil {
		return res, &OpError{Op: op, Err: err}
	}

	log := s.log.With(zap.String("run_id", res.RunID))
	start := time.Now()

	err = s.run(ctx, op, true, s.generateTimeout, func(ctx context.Context, conn *sql.Conn) error {
		stmt, err := conn.PrepareContext(ctx, insertSQL)
		if err != nil {
			return fmt.Errorf("prepare insert: %w", err)
		}
		defer stmt.Close()

		for i := 0; i < count; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, productArgs(s.gen.Product(i))...); err != nil {
				res.Failed++
				log.Warn("insert product failed", zap.Int("index", i), zap.Error(err))
				continue
			}
			res.Inserted++
		}
		return nil
	})
	s.metrics.generated(res)

	log.Info("products generated",
		zap.Int("requested", res.Requested),
		zap.Int("inserted", res.Inserted),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", time.Since(start)),
		zap.Error(err),
	)
	return res, err
}

func (s *SQLStore) List(ctx context.Context) ([]Product, error) {
	return s.queryProducts(ctx, "list", s.selectProducts().OrderBy("id ASC"))
}

func (s *SQLStore) Get(ctx context.Context, id int64) (Product, bool, error) {
	const op = "get"

	query, args, err := s.selectProducts().Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return Product{}, false, &OpError{Op: op, Err: err}
	}

	var (
		p     Product
		found bool
	)
	err = s.run(ctx, op, false, s.queryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		var err error
		p, err = scanProduct(conn.QueryRowContext(ctx, query, args...))
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return Product{}, false, err
	}
	if !found {
		return Product{}, false, nil
	}
	return p, true, nil
}

// Search matches query as a literal substring of name, description or
// category. An empty query matches every row.
func (s *SQLStore) Search(ctx context.Context, query string) ([]Product, error) {
	pattern := containsPattern(query)
	q := s.selectProducts().
		Where(sq.Or{
			likeExpr("name", pattern),
			likeExpr("description", pattern),
			likeExpr("category", pattern),
		}).
		OrderBy("id ASC")
	return s.queryProducts(ctx, "search", q)
}

func (s *SQLStore) Categories(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "categories", "category")
}

func (s *SQLStore) Brands(ctx context.Context) ([]string, error) {
	return s.distinct(ctx, "brands", "brand")
}

// Filters runs both aggregations on one connection under one gate hold so
// the two lists describe the same snapshot of the table.
func (s *SQLStore) Filters(ctx context.Context) (Filters, error) {
	const op = "filters"

	out := Filters{
		Categories: []CategoryCount{},
		Brands:     []BrandCount{},
	}

	catSQL, catArgs, err := s.groupCount("category").ToSql()
	if err != nil {
		return Filters{}, &OpError{Op: op, Err: err}
	}
	brandSQL, brandArgs, err := s.groupCount("brand").ToSql()
	if err != nil {
		return Filters{}, &OpError{Op: op, Err: err}
	}

	err = s.run(ctx, op, false, s.queryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		if err := scanCounts(ctx, conn, catSQL, catArgs, func(v string, n int) {
			out.Categories = append(out.Categories, CategoryCount{Category: v, Count: n})
		}); err != nil {
			return fmt.Errorf("category counts: %w", err)
		}
		if err := scanCounts(ctx, conn, brandSQL, brandArgs, func(v string, n int) {
			out.Brands = append(out.Brands, BrandCount{Brand: v, Count: n})
		}); err != nil {
			return fmt.Errorf("brand counts: %w", err)
		}
		return nil
	})
	if err != nil {
		return Filters{}, err
	}
	return out, nil
}

// Suggestions returns at most ten distinct names containing query, in order
// of first appearance.
func (s *SQLStore) Suggestions(ctx context.Context, query string) ([]string, error) {
	q := s.sb.Select("name").
		From("products").
		Where(likeExpr("name", containsPattern(query))).
		GroupBy("name").
		OrderBy("MIN(id) ASC").
		Limit(suggestionLimit)
	return s.queryStrings(ctx, "suggestions", q)
}

func (s *SQLStore) run(ctx context.Context, op string, write bool, timeout time.Duration, fn func(ctx context.Context, conn *sql.Conn) error) (err error) {
	start := time.Now()

	release := s.gate.acquire(write)
	defer release()
	defer func() { s.metrics.observe(op, start, err) }()

	err = withTimeout(ctx, timeout, func(ctx context.Context) error {
		conn, err := s.db.Conn(ctx)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrUnavailable, err)
		}
		defer conn.Close()

		return fn(ctx, conn)
	})
	if err != nil {
		return &OpError{Op: op, Err: err}
	}
	return nil
}

func (s *SQLStore) selectProducts() sq.SelectBuilder {
	return s.sb.Select(productColumns...).From("products")
}

func (s *SQLStore) groupCount(col string) sq.SelectBuilder {
	return s.sb.Select(col, "COUNT(*)").
		From("products").
		Where(nonEmpty(col)).
		GroupBy(col).
		OrderBy(col + " ASC")
}

func (s *SQLStore) distinct(ctx context.Context, op, col string) ([]string, error) {
	q := s.sb.Select(col).
		Distinct().
		From("products").
		Where(nonEmpty(col)).
		OrderBy(col + " ASC")
	return s.queryStrings(ctx, op, q)
}

func (s *SQLStore) queryProducts(ctx context.Context, op string, q sq.SelectBuilder) ([]Product, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, &OpError{Op: op, Err: err}
	}

	out := make([]Product, 0, 16)
	err = s.run(ctx, op, false, s.queryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			p, err := scanProduct(rows)
			if err != nil {
				return err
			}
			out = append(out, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *SQLStore) queryStrings(ctx context.Context, op string, q sq.SelectBuilder) ([]string, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, &OpError{Op: op, Err: err}
	}

	out := make([]string, 0, 8)
	err = s.run(ctx, op, false, s.queryTimeout, func(ctx context.Context, conn *sql.Conn) error {
		rows, err := conn.QueryContext(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var v string
			if err := rows.Scan(&v); err != nil {
				return err
			}
			out = append(out, v)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func scanCounts(ctx context.Context, conn *sql.Conn, query string, args []any, add func(string, int)) error {
	rows, err := conn.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			v string
			n int
		)
		if err := rows.Scan(&v, &n); err != nil {
			return err
		}
		add(v, n)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(sc rowScanner) (Product, error) {
	var (
		p                              Product
		desc, cat, brand, date, status sql.NullString
		colors, sizes                  sql.NullString
		price, rating                  sql.NullFloat64
		stock                          sql.NullInt64
	)

	err := sc.Scan(&p.ID, &p.Name, &desc, &cat, &brand, &price, &stock,
		&date, &status, &rating, &colors, &sizes)
	if err != nil {
		return Product{}, err
	}

	p.Description = desc.String
	p.Category = cat.String
	p.Brand = brand.String
	p.Price = price.Float64
	p.StockQuantity = int(stock.Int64)
	p.ReleaseDate = date.String
	p.AvailabilityStatus = status.String
	p.CustomerRating = rating.Float64
	p.Colors = colors.String
	p.Sizes = sizes.String
	return p, nil
}

// productArgs follows insertColumns.
func productArgs(p Product) []any {
	return []any{
		p.Name, p.Description, p.Category, p.Brand, p.Price, p.StockQuantity,
		p.ReleaseDate, p.AvailabilityStatus, p.CustomerRating, p.Colors, p.Sizes,
	}
}

func containsPattern(query string) string {
	return "%" + likeEscaper.Replace(query) + "%"
}

func likeExpr(col, pattern string) sq.Sqlizer {
	return sq.Expr(col+` LIKE ? ESCAPE '\'`, pattern)
}

func nonEmpty(col string) sq.Sqlizer {
	return sq.And{sq.NotEq{col: nil}, sq.NotEq{col: ""}}
}

func withTimeout(parent context.Context, d time.Duration, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(parent, d)
	defer cancel()
	return fn(ctx)
}
