package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestGenerator_Cycles(t *testing.T) {
	g := NewSeededGenerator(42)

	for i := 0; i < 30; i++ {
		p := g.Product(i)

		assert.Equal(t, generatedCategories[i%5], p.Category, "category of %d", i)
		assert.Equal(t, generatedBrands[i%5], p.Brand, "brand of %d", i)
		assert.Equal(t, generatedStatuses[i%3], p.AvailabilityStatus, "status of %d", i)
	}

	p := g.Product(7)
	assert.Equal(t, "Product 7", p.Name)
	assert.Equal(t, "Description for product 7", p.Description)
	assert.Equal(t, "2025-09-01", p.ReleaseDate)
	assert.Equal(t, "Red,Blue,Green", p.Colors)
	assert.Equal(t, "S,M,L,XL", p.Sizes)
	assert.Zero(t, p.ID)
}

func TestGenerator_Ranges(t *testing.T) {
	g := NewSeededGenerator(7)

	for i := 0; i < 5000; i++ {
		p := g.Product(i)

		if p.Price < 10.0 || p.Price >= 1000.0 {
			t.Fatalf("price %v out of [10,1000)", p.Price)
		}
		if p.StockQuantity < 0 || p.StockQuantity > 500 {
			t.Fatalf("stock %d out of [0,500]", p.StockQuantity)
		}
		if p.CustomerRating < 1.0 || p.CustomerRating >= 5.0 {
			t.Fatalf("rating %v out of [1,5)", p.CustomerRating)
		}
	}
}

func TestGenerator_SeedIsDeterministic(t *testing.T) {
	a, b := NewSeededGenerator(99), NewSeededGenerator(99)
	for i := 0; i < 10; i++ {
		assert.Equal(t, a.Product(i), b.Product(i))
	}
}

func TestGenerator_DisplayPrecision(t *testing.T) {
	g := NewSeededGenerator(11)

	for i := 0; i < 1000; i++ {
		p := g.Product(i)

		assert.GreaterOrEqual(t, decimal.NewFromFloat(p.Price).Exponent(), int32(-2), "price %v", p.Price)
		assert.GreaterOrEqual(t, decimal.NewFromFloat(p.CustomerRating).Exponent(), int32(-1), "rating %v", p.CustomerRating)
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, 999.99, truncate(999.999999, 2))
	assert.Equal(t, 10.0, truncate(10.004, 2))
	assert.Equal(t, 4.9, truncate(4.99999, 1))
}
