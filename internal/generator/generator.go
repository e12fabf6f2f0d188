package generator

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/vanshika/basketwise/internal/domain"
	"github.com/vanshika/basketwise/internal/service"
)

// Dataset contains the generated products and substitute links.
type Dataset struct {
	Products     []domain.Product          `json:"products"`
	Alternatives []service.AlternativeLink `json:"alternatives"`
}

// category describes how products of one catalog category look.
type category struct {
	name     string
	variants []string
	brands   []string
	minPrice float64
	maxPrice float64
	sizes    []float64
	unit     string
}

func defaultCategories() []category {
	return []category{
		{name: "milk", variants: []string{"Toned Milk", "Full Cream Milk", "Almond Milk", "Soy Milk"}, brands: []string{"Amul", "Nandini", "Mother Dairy", "So Good"}, minPrice: 25, maxPrice: 120, sizes: []float64{0.5, 1, 2}, unit: "L"},
		{name: "cheese", variants: []string{"Cheddar Cheese", "Mozzarella Cheese", "Cheese Slices", "Vegan Cheese"}, brands: []string{"Amul", "Britannia", "Go", "Dlecta"}, minPrice: 90, maxPrice: 450, sizes: []float64{0.2, 0.4}, unit: "kg"},
		{name: "butter", variants: []string{"Salted Butter", "Unsalted Butter", "Margarine"}, brands: []string{"Amul", "Mother Dairy", "Nutralite"}, minPrice: 50, maxPrice: 280, sizes: []float64{0.1, 0.5}, unit: "kg"},
		{name: "bread", variants: []string{"White Bread", "Multigrain Bread", "Whole Wheat Bread", "Milk Bread"}, brands: []string{"Britannia", "Harvest Gold", "Modern", "English Oven"}, minPrice: 25, maxPrice: 75, sizes: []float64{0.4, 0.8}, unit: "kg"},
		{name: "coffee", variants: []string{"Instant Coffee", "Filter Coffee", "Decaf Coffee"}, brands: []string{"Nescafe", "Bru", "Continental"}, minPrice: 80, maxPrice: 550, sizes: []float64{0.05, 0.1, 0.2}, unit: "kg"},
		{name: "tea", variants: []string{"Black Tea", "Green Tea", "Masala Tea"}, brands: []string{"Tata", "Red Label", "Lipton", "Wagh Bakri"}, minPrice: 40, maxPrice: 400, sizes: []float64{0.1, 0.25, 0.5}, unit: "kg"},
		{name: "chips", variants: []string{"Potato Chips", "Baked Chips", "Banana Chips"}, brands: []string{"Lays", "Bingo", "Haldiram"}, minPrice: 10, maxPrice: 60, sizes: []float64{0.05, 0.1}, unit: "kg"},
		{name: "chocolate", variants: []string{"Milk Chocolate", "Dark Chocolate", "Fruit and Nut Chocolate"}, brands: []string{"Cadbury", "Amul", "Lindt"}, minPrice: 10, maxPrice: 350, sizes: []float64{0.04, 0.1, 0.15}, unit: "kg"},
	}
}

// Generator produces a synthetic grocery catalog.
type Generator struct {
	cfg        Config
	rand       *rand.Rand
	categories []category
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	if cfg.ProductsPerCategory <= 0 {
		cfg.ProductsPerCategory = DefaultConfig().ProductsPerCategory
	}
	if cfg.MaxAlternatives <= 0 {
		cfg.MaxAlternatives = DefaultConfig().MaxAlternatives
	}
	if cfg.AlternativeChance <= 0 {
		cfg.AlternativeChance = DefaultConfig().AlternativeChance
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:        cfg,
		rand:       rand.New(rand.NewSource(cfg.Seed)),
		categories: defaultCategories(),
	}
}

// Generate synthesises products and substitute links. Product ids are
// sequential from 1 in category order. It respects context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	var ds Dataset
	var nextID int64 = 1

	for _, c := range g.categories {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}

		products := make([]domain.Product, 0, g.cfg.ProductsPerCategory)
		for i := 0; i < g.cfg.ProductsPerCategory; i++ {
			products = append(products, g.randomProduct(nextID, c))
			nextID++
		}
		ds.Products = append(ds.Products, products...)
		ds.Alternatives = append(ds.Alternatives, g.alternatives(products)...)
	}
	return ds, nil
}

func (g *Generator) randomProduct(id int64, c category) domain.Product {
	size := c.sizes[g.rand.Intn(len(c.sizes))]
	brand := c.brands[g.rand.Intn(len(c.brands))]
	variant := c.variants[g.rand.Intn(len(c.variants))]

	// Bigger packs cost more, with some brand noise on top.
	span := c.maxPrice - c.minPrice
	price := c.minPrice + span*(0.3*g.rand.Float64()+0.7*size/c.sizes[len(c.sizes)-1])
	price = math.Min(c.maxPrice, math.Round(price))

	return domain.Product{
		ID:            id,
		Name:          fmt.Sprintf("%s %s %s", brand, variant, formatSize(size, c.unit)),
		Category:      c.name,
		Brand:         brand,
		Price:         price,
		StockQuantity: g.rand.Intn(50),
		Weight:        size,
	}
}

// alternatives links products to cheaper-or-equal products of the same
// category, nearest price first.
func (g *Generator) alternatives(products []domain.Product) []service.AlternativeLink {
	var links []service.AlternativeLink
	for _, p := range products {
		if g.rand.Float64() >= g.cfg.AlternativeChance {
			continue
		}
		candidates := make([]domain.Product, 0, len(products))
		for _, other := range products {
			if other.ID != p.ID && other.Price <= p.Price {
				candidates = append(candidates, other)
			}
		}
		sort.SliceStable(candidates, func(i, j int) bool {
			return p.Price-candidates[i].Price < p.Price-candidates[j].Price
		})
		n := 1 + g.rand.Intn(g.cfg.MaxAlternatives)
		for i := 0; i < n && i < len(candidates); i++ {
			links = append(links, service.AlternativeLink{ProductID: p.ID, AlternativeID: candidates[i].ID})
		}
	}
	return links
}

func formatSize(size float64, unit string) string {
	if size < 1 {
		switch unit {
		case "L":
			return fmt.Sprintf("%gml", math.Round(size*1000))
		case "kg":
			return fmt.Sprintf("%gg", math.Round(size*1000))
		}
	}
	return fmt.Sprintf("%g%s", size, unit)
}
