package scenarios

import (
	"errors"
	"fmt"

	"github.com/example/tansanbot/pkg/models"
	"github.com/sirupsen/logrus"
)

// ErrScenarioNotFound indicates the requested scenario id has no catalog entry.
var ErrScenarioNotFound = errors.New("scenario not found")

// Source provides stored scenarios, typically imported content from the
// database. The catalog only reads from it.
type Source interface {
	GetAll() ([]models.Scenario, error)
}

// Catalog is the read-only scenario registry used to start practice
// sessions: the built-in content plus anything imported into storage.
type Catalog struct {
	ordered []models.Scenario
	byID    map[string]models.Scenario
}

// Load builds a catalog from the built-in scenarios merged with the stored
// ones. Built-ins win on id conflict so imports cannot shadow shipped
// content. A nil source yields a catalog of just the built-ins.
func Load(source Source) (*Catalog, error) {
	catalog := &Catalog{byID: make(map[string]models.Scenario)}

	for _, scenario := range Builtin() {
		if err := Validate(scenario); err != nil {
			return nil, fmt.Errorf("invalid built-in scenario %q: %w", scenario.ID, err)
		}
		catalog.add(scenario)
	}

	if source != nil {
		stored, err := source.GetAll()
		if err != nil {
			return nil, fmt.Errorf("failed to load stored scenarios: %w", err)
		}
		for _, scenario := range stored {
			if _, exists := catalog.byID[scenario.ID]; exists {
				logrus.WithField("scenario", scenario.ID).Warn("stored scenario shadows a built-in, skipping")
				continue
			}
			if err := Validate(scenario); err != nil {
				logrus.WithError(err).WithField("scenario", scenario.ID).Warn("skipping invalid stored scenario")
				continue
			}
			catalog.add(scenario)
		}
	}

	return catalog, nil
}

func (c *Catalog) add(scenario models.Scenario) {
	c.ordered = append(c.ordered, scenario)
	c.byID[scenario.ID] = scenario
}

// List returns every scenario in catalog order.
func (c *Catalog) List() []models.Scenario {
	return append([]models.Scenario(nil), c.ordered...)
}

// Get returns the scenario with the given id, or ErrScenarioNotFound.
func (c *Catalog) Get(id string) (models.Scenario, error) {
	scenario, ok := c.byID[id]
	if !ok {
		return models.Scenario{}, fmt.Errorf("%w: %q", ErrScenarioNotFound, id)
	}
	return scenario, nil
}

// Len returns the number of scenarios in the catalog.
func (c *Catalog) Len() int {
	return len(c.ordered)
}

// Validate checks that a scenario is well-formed enough to practice: it has
// an id, at least one turn, at least one decision turn, and every decision
// turn's correct option is in range.
func Validate(scenario models.Scenario) error {
	if scenario.ID == "" {
		return errors.New("scenario id is empty")
	}
	if len(scenario.Conversations) == 0 {
		return errors.New("scenario has no conversation turns")
	}
	decisions := 0
	for _, turn := range scenario.Conversations {
		if turn.Speaker != models.SpeakerAI && turn.Speaker != models.SpeakerUser {
			return fmt.Errorf("turn %d has unknown speaker %q", turn.ID, turn.Speaker)
		}
		if !turn.IsDecision() {
			continue
		}
		decisions++
		if *turn.CorrectOption < 0 || *turn.CorrectOption >= len(turn.Options) {
			return fmt.Errorf("turn %d correct option %d out of range", turn.ID, *turn.CorrectOption)
		}
	}
	if decisions == 0 {
		return errors.New("scenario has no decision turns")
	}
	return nil
}
