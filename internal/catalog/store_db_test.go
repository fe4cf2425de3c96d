package catalog

import (
	"context"
	"database/sql"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ProductCatalog/pkg/kit"
)

func newTestStore(t *testing.T, policy AccessPolicy) (*SQLStore, *sql.DB) {
	t.Helper()

	db, err := kit.OpenDB(context.Background(), kit.DBOptions{
		Driver: kit.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "products.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	s := NewSQLStore(db, SQLStoreOptions{
		Dialect:   DialectSQLite,
		Policy:    policy,
		Generator: NewSeededGenerator(1),
		Log:       zap.NewNop(),
	})
	require.NoError(t, s.Init(context.Background()))
	return s, db
}

func seed(t *testing.T, s *SQLStore, n int) {
	t.Helper()

	res, err := s.Generate(context.Background(), n)
	require.NoError(t, err)
	require.Equal(t, n, res.Inserted)
	require.Zero(t, res.Failed)
}

func TestSQLStore_InitIsIdempotent(t *testing.T) {
	s, db := newTestStore(t, PolicyExclusive)
	ctx := context.Background()

	require.NoError(t, s.Init(ctx))
	require.NoError(t, s.Init(ctx))

	var n int
	err := db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'products'`).Scan(&n)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestSQLStore_InitAdoptsExistingTable(t *testing.T) {
	ctx := context.Background()
	db, err := kit.OpenDB(ctx, kit.DBOptions{
		Driver: kit.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "legacy.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.ExecContext(ctx, `CREATE TABLE products (
		id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, description TEXT,
		category TEXT, brand TEXT, sku TEXT, price REAL DEFAULT 0.0,
		stock_quantity INTEGER DEFAULT 0, release_date TEXT, availability_status TEXT,
		customer_rating REAL DEFAULT 0.0, colors TEXT, sizes TEXT)`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, `INSERT INTO products (name) VALUES ('Legacy')`)
	require.NoError(t, err)

	s := NewSQLStore(db, SQLStoreOptions{Dialect: DialectSQLite})
	require.NoError(t, s.Init(ctx))

	all, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "Legacy", all[0].Name)
	assert.Empty(t, all[0].Category)
	assert.Zero(t, all[0].Price)
}

func TestSQLStore_GenerateThenList(t *testing.T) {
	for _, n := range []int{0, 1, 10, 37} {
		s, _ := newTestStore(t, PolicyExclusive)
		seed(t, s, n)

		all, err := s.List(context.Background())
		require.NoError(t, err)
		require.NotNil(t, all)
		assert.Len(t, all, n)
	}
}

func TestSQLStore_GeneratedRows(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)
	seed(t, s, 25)

	all, err := s.List(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 25)

	for i, p := range all {
		assert.Equal(t, generatedCategories[i%5], p.Category)
		assert.Equal(t, generatedBrands[i%5], p.Brand)
		assert.Equal(t, generatedStatuses[i%3], p.AvailabilityStatus)
		assert.Equal(t, "Product "+strconv.Itoa(i), p.Name)

		assert.GreaterOrEqual(t, p.Price, 10.0)
		assert.Less(t, p.Price, 1000.0)
		assert.GreaterOrEqual(t, p.StockQuantity, 0)
		assert.LessOrEqual(t, p.StockQuantity, 500)
		assert.GreaterOrEqual(t, p.CustomerRating, 1.0)
		assert.Less(t, p.CustomerRating, 5.0)

		if i > 0 {
			assert.Greater(t, p.ID, all[i-1].ID)
		}
	}
}

func TestSQLStore_GenerateInvalidCount(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)

	res, err := s.Generate(context.Background(), -1)
	require.ErrorIs(t, err, ErrInvalidCount)
	assert.NotEmpty(t, res.RunID)
	assert.Zero(t, res.Inserted)
}

func TestSQLStore_GenerateStopsOnCancel(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := s.Generate(ctx, 100)
	require.ErrorIs(t, err, context.Canceled)
	assert.Less(t, res.Inserted, 100)
}

func TestSQLStore_GenerateRowFailureContinues(t *testing.T) {
	s, db := newTestStore(t, PolicyExclusive)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `
		CREATE TRIGGER reject_product_2 BEFORE INSERT ON products
		WHEN NEW.name = 'Product 2'
		BEGIN
			SELECT RAISE(ABORT, 'rejected');
		END`)
	require.NoError(t, err)

	res, err := s.Generate(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, 5, res.Requested)
	assert.Equal(t, 4, res.Inserted)
	assert.Equal(t, 1, res.Failed)

	products, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, products, 4)
	for _, p := range products {
		assert.NotEqual(t, "Product 2", p.Name)
	}
}

func TestSQLStore_Get(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)
	seed(t, s, 3)
	ctx := context.Background()

	all, err := s.List(ctx)
	require.NoError(t, err)

	p, ok, err := s.Get(ctx, all[1].ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, all[1], p)

	_, ok, err = s.Get(ctx, 9999)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSQLStore_Search(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)
	seed(t, s, 30)
	ctx := context.Background()

	all, err := s.Search(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 30)

	tests := []struct {
		query string
		want  int
	}{
		{query: "Electronics", want: 6},
		{query: "Product 2", want: 11},
		{query: "product 17", want: 1},
		{query: "Toys", want: 6},
		{query: "nothing-matches", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			got, err := s.Search(ctx, tt.query)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Len(t, got, tt.want)

			q := strings.ToLower(tt.query)
			for _, p := range got {
				hit := strings.Contains(strings.ToLower(p.Name), q) ||
					strings.Contains(strings.ToLower(p.Description), q) ||
					strings.Contains(strings.ToLower(p.Category), q)
				assert.True(t, hit, "%q does not contain %q", p.Name, tt.query)
			}
		})
	}
}

func TestSQLStore_SearchEscapesWildcards(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)
	seed(t, s, 5)
	ctx := context.Background()

	for _, q := range []string{"%", "_", `\`, "Product_1", "%Books"} {
		got, err := s.Search(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, got, "query %q", q)

		names, err := s.Suggestions(ctx, q)
		require.NoError(t, err)
		assert.Empty(t, names, "query %q", q)
	}
}

func TestSQLStore_CategoriesAndBrands(t *testing.T) {
	s, db := newTestStore(t, PolicyExclusive)
	seed(t, s, 12)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO products (name, category, brand) VALUES ('Blank', '', NULL)`)
	require.NoError(t, err)

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Books", "Clothing", "Electronics", "Home", "Toys"}, cats)

	brands, err := s.Brands(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Apple", "Dell", "LG", "Samsung", "Sony"}, brands)
}

func TestSQLStore_EmptyTable(t *testing.T) {
	s, _ := newTestStore(t, PolicyExclusive)
	ctx := context.Background()

	cats, err := s.Categories(ctx)
	require.NoError(t, err)
	assert.NotNil(t, cats)
	assert.Empty(t, cats)

	f, err := s.Filters(ctx)
	require.NoError(t, err)
	assert.NotNil(t, f.Categories)
	assert.NotNil(t, f.Brands)
	assert.Empty(t, f.Categories)
	assert.Empty(t, f.Brands)

	names, err := s.Suggestions(ctx, "")
	require.NoError(t, err)
	assert.NotNil(t, names)
	assert.Empty(t, names)
}

func TestSQLStore_Filters(t *testing.T) {
	s, db := newTestStore(t, PolicyExclusive)
	seed(t, s, 20)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO products (name, category, brand) VALUES ('Orphan', NULL, '')`)
	require.NoError(t, err)

	f, err := s.Filters(ctx)
	require.NoError(t, err)

	require.Len(t, f.Categories, 5)
	require.Len(t, f.Brands, 5)

	sum := 0
	for _, c := range f.Categories {
		assert.NotEmpty(t, c.Category)
		assert.Equal(t, 4, c.Count, c.Category)
		sum += c.Count
	}
	assert.Equal(t, 20, sum)

	sum = 0
	for _, b := range f.Brands {
		assert.NotEmpty(t, b.Brand)
		assert.Equal(t, 4, b.Count, b.Brand)
		sum += b.Count
	}
	assert.Equal(t, 20, sum)
}

func TestSQLStore_Suggestions(t *testing.T) {
	s, db := newTestStore(t, PolicyExclusive)
	seed(t, s, 40)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, `INSERT INTO products (name) VALUES ('Product 1')`)
	require.NoError(t, err)

	names, err := s.Suggestions(ctx, "Product")
	require.NoError(t, err)
	require.Len(t, names, 10)
	assert.Equal(t, "Product 0", names[0])

	seen := map[string]bool{}
	for _, n := range names {
		assert.Contains(t, n, "Product")
		assert.False(t, seen[n], "duplicate %q", n)
		seen[n] = true
	}

	names, err = s.Suggestions(ctx, "Product 3")
	require.NoError(t, err)
	assert.Equal(t, []string{"Product 3", "Product 30", "Product 31", "Product 32", "Product 33",
		"Product 34", "Product 35", "Product 36", "Product 37", "Product 38"}, names)
}

func TestSQLStore_ClosedDatabase(t *testing.T) {
	s, db := newTestStore(t, PolicyExclusive)
	require.NoError(t, db.Close())
	ctx := context.Background()

	_, err := s.List(ctx)
	require.ErrorIs(t, err, ErrUnavailable)

	var opErr *OpError
	require.ErrorAs(t, err, &opErr)
	assert.Equal(t, "list", opErr.Op)

	_, err = s.Filters(ctx)
	require.ErrorIs(t, err, ErrUnavailable)

	_, err = s.Generate(ctx, 5)
	require.ErrorIs(t, err, ErrUnavailable)
}

func TestSQLStore_ConcurrentAccess(t *testing.T) {
	for _, policy := range []AccessPolicy{PolicyExclusive, PolicySharedRead} {
		t.Run(string(policy), func(t *testing.T) {
			s, _ := newTestStore(t, policy)
			seed(t, s, 10)
			ctx := context.Background()

			var wg sync.WaitGroup
			errs := make(chan error, 64)
			for i := 0; i < 8; i++ {
				wg.Add(4)
				go func() {
					defer wg.Done()
					_, err := s.List(ctx)
					errs <- err
				}()
				go func() {
					defer wg.Done()
					_, err := s.Filters(ctx)
					errs <- err
				}()
				go func() {
					defer wg.Done()
					_, err := s.Suggestions(ctx, "Product")
					errs <- err
				}()
				go func() {
					defer wg.Done()
					_, err := s.Generate(ctx, 5)
					errs <- err
				}()
			}
			wg.Wait()
			close(errs)

			for err := range errs {
				require.NoError(t, err)
			}

			all, err := s.List(ctx)
			require.NoError(t, err)
			assert.Len(t, all, 10+8*5)
		})
	}
}
