package optimizer

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/vanshika/basketwise/internal/domain"
)

type scenarioState struct {
	pool      []domain.Product
	desired   []string
	selection []domain.Product
	graph     Graph
	inRange   PathResult
	hasRange  bool
}

func (s *scenarioState) theCatalog(table *godog.Table) error {
	s.pool = nil
	for i, row := range table.Rows {
		if i == 0 {
			continue
		}
		if len(row.Cells) != 5 {
			return fmt.Errorf("row %d: expected 5 cells, got %d", i, len(row.Cells))
		}
		id, err := strconv.ParseInt(row.Cells[0].Value, 10, 64)
		if err != nil {
			return err
		}
		price, err := strconv.ParseFloat(row.Cells[3].Value, 64)
		if err != nil {
			return err
		}
		weight, err := strconv.ParseFloat(row.Cells[4].Value, 64)
		if err != nil {
			return err
		}
		s.pool = append(s.pool, domain.Product{
			ID:       id,
			Name:     row.Cells[1].Value,
			Category: row.Cells[2].Value,
			Price:    price,
			Weight:   weight,
		})
	}
	return nil
}

func (s *scenarioState) theDesiredItems(list string) error {
	s.desired = strings.Split(list, ",")
	return nil
}

func (s *scenarioState) iSelectWithBudget(budget float64) error {
	s.selection = Select(s.pool, budget, s.desired, DefaultNormalizer())
	return nil
}

func (s *scenarioState) iBuildTheGraph() error {
	s.graph = BuildGraph(s.desired, s.pool)
	return nil
}

func (s *scenarioState) iSearchBetween(lo, hi float64) error {
	s.inRange, s.hasRange = BestPathInRange(s.graph, lo, hi)
	return nil
}

func (s *scenarioState) theSelectedPricesAre(list string) error {
	var got []string
	for _, p := range s.selection {
		got = append(got, strconv.FormatFloat(p.Price, 'f', -1, 64))
	}
	if strings.Join(got, ",") != list {
		return fmt.Errorf("selected prices %v, want %s", got, list)
	}
	return nil
}

func (s *scenarioState) theSelectionTotalIs(total float64) error {
	if got := domain.TotalPrice(s.selection); got != total {
		return fmt.Errorf("selection total %v, want %v", got, total)
	}
	return nil
}

func assertPath(r PathResult, names string, cost float64) error {
	var got []string
	for _, n := range r.Path {
		got = append(got, n.Product.Name)
	}
	if strings.Join(got, ",") != names {
		return fmt.Errorf("path %v, want %s", got, names)
	}
	if r.Cost != cost {
		return fmt.Errorf("path cost %v, want %v", r.Cost, cost)
	}
	return nil
}

func (s *scenarioState) theOptimalPathIs(names string, cost float64) error {
	return assertPath(MinCostPath(s.graph), names, cost)
}

func (s *scenarioState) theOptimalPathIsEmpty(cost float64) error {
	r := MinCostPath(s.graph)
	if !r.Empty() || r.Cost != cost {
		return fmt.Errorf("expected empty path costing %v, got %d nodes costing %v", cost, len(r.Path), r.Cost)
	}
	return nil
}

func (s *scenarioState) theInRangePathIs(names string, cost float64) error {
	if !s.hasRange {
		return fmt.Errorf("no in-range path found")
	}
	return assertPath(s.inRange, names, cost)
}

func (s *scenarioState) thereIsNoInRangePath() error {
	if s.hasRange {
		return fmt.Errorf("unexpected in-range path costing %v", s.inRange.Cost)
	}
	return nil
}

func InitializeScenario(ctx *godog.ScenarioContext) {
	s := &scenarioState{}

	ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		*s = scenarioState{}
		return ctx, nil
	})

	ctx.Step(`^the catalog:$`, s.theCatalog)
	ctx.Step(`^the desired items "([^"]*)"$`, s.theDesiredItems)

	ctx.Step(`^I select products with a budget of (\d+(?:\.\d+)?)$`, s.iSelectWithBudget)
	ctx.Step(`^I build the candidate graph$`, s.iBuildTheGraph)
	ctx.Step(`^I search for the best path between (\d+(?:\.\d+)?) and (\d+(?:\.\d+)?)$`, s.iSearchBetween)

	ctx.Step(`^the selected prices are "([^"]*)"$`, s.theSelectedPricesAre)
	ctx.Step(`^the selection total is (\d+(?:\.\d+)?)$`, s.theSelectionTotalIs)
	ctx.Step(`^the optimal path is "([^"]*)" costing (\d+(?:\.\d+)?)$`, s.theOptimalPathIs)
	ctx.Step(`^the optimal path is empty with cost (\d+(?:\.\d+)?)$`, s.theOptimalPathIsEmpty)
	ctx.Step(`^the in-range path is "([^"]*)" costing (\d+(?:\.\d+)?)$`, s.theInRangePathIs)
	ctx.Step(`^there is no in-range path$`, s.thereIsNoInRangePath)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
			Strict:   true,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
