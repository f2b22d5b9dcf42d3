package data

import "fmt"

// ScenarioSpawn places one entity at match start.
type ScenarioSpawn struct {
	Player   int32   `yaml:"player"`
	Unit     string  `yaml:"unit,omitempty"`     // unit blueprint id
	Building string  `yaml:"building,omitempty"` // building blueprint id
	X        float64 `yaml:"x"`
	Y        float64 `yaml:"y"`
	Count    int     `yaml:"count"`
}

// Scenario describes the initial world of a match.
type Scenario struct {
	Name           string          `yaml:"name"`
	Players        []int32         `yaml:"players"`
	StartStockpile float64         `yaml:"start_stockpile"`
	Spawns         []ScenarioSpawn `yaml:"spawns"`
}

// LoadScenario loads a scenario file and validates its blueprint references
// against the table.
func LoadScenario(path string, table *Table) (*Scenario, error) {
	var sc Scenario
	if err := readYAML(path, &sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	for i := range sc.Spawns {
		sp := &sc.Spawns[i]
		if sp.Count == 0 {
			sp.Count = 1
		}
		switch {
		case sp.Unit != "" && table.Unit(sp.Unit) == nil:
			return nil, fmt.Errorf("scenario %s: unknown unit %q", sc.Name, sp.Unit)
		case sp.Building != "" && table.Building(sp.Building) == nil:
			return nil, fmt.Errorf("scenario %s: unknown building %q", sc.Name, sp.Building)
		case sp.Unit == "" && sp.Building == "":
			return nil, fmt.Errorf("scenario %s: spawn %d names neither unit nor building", sc.Name, i)
		}
	}
	return &sc, nil
}
