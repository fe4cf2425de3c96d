package catalog

import (
	"math/rand/v2"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"
)

const (
	DefaultGenerateCount = 1000

	generatedReleaseDate = "2025-09-01"
	generatedColors      = "Red,Blue,Green"
	generatedSizes       = "S,M,L,XL"

	minPrice  = 10.0
	maxPrice  = 1000.0
	maxStock  = 500
	minRating = 1.0
	maxRating = 5.0
)

var (
	generatedCategories = [...]string{"Electronics", "Books", "Clothing", "Home", "Toys"}
	generatedBrands     = [...]string{"Apple", "Samsung", "Sony", "Dell", "LG"}
	generatedStatuses   = [...]string{"Available", "Out of Stock", "Preorder"}
)

// Generator builds synthetic products. Category, brand and status cycle with
// the index; price, stock and rating are random.
type Generator struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

func NewGenerator(rnd *rand.Rand) *Generator {
	if rnd == nil {
		seed := uint64(time.Now().UnixNano())
		rnd = rand.New(rand.NewPCG(seed, seed>>1|1))
	}
	return &Generator{rnd: rnd}
}

func NewSeededGenerator(seed uint64) *Generator {
	return NewGenerator(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)))
}

// Product returns the synthetic product for index i. ID is left zero.
func (g *Generator) Product(i int) Product {
	g.mu.Lock()
	price := minPrice + g.rnd.Float64()*(maxPrice-minPrice)
	stock := g.rnd.IntN(maxStock + 1)
	rating := minRating + g.rnd.Float64()*(maxRating-minRating)
	g.mu.Unlock()

	n := strconv.Itoa(i)
	return Product{
		Name:               "Product " + n,
		Description:        "Description for product " + n,
		Category:           generatedCategories[i%len(generatedCategories)],
		Brand:              generatedBrands[i%len(generatedBrands)],
		Price:              truncate(price, 2),
		StockQuantity:      stock,
		ReleaseDate:        generatedReleaseDate,
		AvailabilityStatus: generatedStatuses[i%len(generatedStatuses)],
		CustomerRating:     truncate(rating, 1),
		Colors:             generatedColors,
		Sizes:              generatedSizes,
	}
}

// truncate cuts v to display precision: cents for prices, one decimal for
// ratings.
func truncate(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Truncate(places).InexactFloat64()
}
