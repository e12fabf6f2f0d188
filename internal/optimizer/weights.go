// Package optimizer implements the budget fitting engine: value-density
// normalization, the greedy bundle selector, the staged candidate graph,
// the minimum-cost path solver, the range-constrained path search and the
// weight-similarity recommender.
//
// Everything here is synchronous and operates on caller-supplied slices;
// nothing holds state between calls.
package optimizer

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vanshika/basketwise/internal/domain"
)

// DefaultUnitWeight applies when no rule matches a product.
const DefaultUnitWeight = 0.5

// WeightRule maps a category keyword to a unit weight multiplier.
type WeightRule struct {
	Keyword string  `yaml:"keyword"`
	Unit    float64 `yaml:"unit"`
}

// DefaultRules is the built-in rule table. Order is match priority for the
// substring pass.
func DefaultRules() []WeightRule {
	return []WeightRule{
		{Keyword: "milk", Unit: 1.0},
		{Keyword: "almond milk", Unit: 1.0},
		{Keyword: "soy milk", Unit: 1.0},
		{Keyword: "cheese", Unit: 0.5},
		{Keyword: "vegan cheese", Unit: 0.5},
		{Keyword: "butter", Unit: 0.25},
		{Keyword: "margarine", Unit: 0.25},

		{Keyword: "bread", Unit: 0.7},
		{Keyword: "multigrain bread", Unit: 0.8},
		{Keyword: "white bread", Unit: 0.7},
		{Keyword: "whole wheat bread", Unit: 0.8},

		{Keyword: "coffee", Unit: 0.25},
		{Keyword: "decaf coffee", Unit: 0.25},
		{Keyword: "tea", Unit: 0.1},
		{Keyword: "green tea", Unit: 0.1},

		{Keyword: "potato chips", Unit: 0.2},
		{Keyword: "baked chips", Unit: 0.2},
		{Keyword: "chocolate", Unit: 0.1},
		{Keyword: "dark chocolate", Unit: 0.1},
	}
}

// Normalizer maps products to category-adjusted comparable weights.
type Normalizer struct {
	rules       []WeightRule
	defaultUnit float64
}

// NewNormalizer builds a Normalizer from an ordered rule list. Keywords are
// compared case-insensitively; rules with a non-positive unit are dropped.
// A non-positive defaultUnit falls back to DefaultUnitWeight.
func NewNormalizer(rules []WeightRule, defaultUnit float64) *Normalizer {
	if defaultUnit <= 0 {
		defaultUnit = DefaultUnitWeight
	}
	cleaned := make([]WeightRule, 0, len(rules))
	for _, r := range rules {
		kw := strings.ToLower(strings.TrimSpace(r.Keyword))
		if kw == "" || r.Unit <= 0 {
			continue
		}
		cleaned = append(cleaned, WeightRule{Keyword: kw, Unit: r.Unit})
	}
	return &Normalizer{rules: cleaned, defaultUnit: defaultUnit}
}

// DefaultNormalizer uses DefaultRules and DefaultUnitWeight.
func DefaultNormalizer() *Normalizer {
	return NewNormalizer(DefaultRules(), DefaultUnitWeight)
}

// LoadRules reads an ordered rule table from a YAML file of the form
//
//	rules:
//	  - keyword: milk
//	    unit: 1.0
func LoadRules(path string) ([]WeightRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read weight rules %s: %w", path, err)
	}
	var doc struct {
		Rules []WeightRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode weight rules %s: %w", path, err)
	}
	if len(doc.Rules) == 0 {
		return nil, fmt.Errorf("weight rules %s: no rules defined", path)
	}
	return doc.Rules, nil
}

// UnitWeight resolves the unit multiplier for a product: exact category
// match first, then substring match of each keyword against category or
// name in table order, then the default.
func (n *Normalizer) UnitWeight(p domain.Product) float64 {
	category := strings.ToLower(strings.TrimSpace(p.Category))
	name := strings.ToLower(p.Name)

	for _, r := range n.rules {
		if category == r.Keyword {
			return r.Unit
		}
	}
	for _, r := range n.rules {
		if strings.Contains(category, r.Keyword) || strings.Contains(name, r.Keyword) {
			return r.Unit
		}
	}
	return n.defaultUnit
}

// Normalize returns unit weight times the product's raw weight. It never
// returns a non-positive value: products without a usable weight normalize
// to 1 so that ranking falls back to raw price.
func (n *Normalizer) Normalize(p domain.Product) float64 {
	if p.Weight <= 0 {
		return 1
	}
	return n.UnitWeight(p) * p.Weight
}

// ValueDensity is price per normalized weight; lower is better value.
func (n *Normalizer) ValueDensity(p domain.Product) float64 {
	return p.Price / n.Normalize(p)
}
