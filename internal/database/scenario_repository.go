package database

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/example/tansanbot/pkg/models"
)

// ScenarioRepository handles database operations for imported scenarios
type ScenarioRepository struct{}

// NewScenarioRepository creates a new repository instance
func NewScenarioRepository() *ScenarioRepository {
	return &ScenarioRepository{}
}

// scenarioRow mirrors the scenarios table; conversations are kept as JSON.
type scenarioRow struct {
	ID            string `db:"id"`
	Title         string `db:"title"`
	Description   string `db:"description"`
	Difficulty    string `db:"difficulty"`
	Category      string `db:"category"`
	XPReward      int    `db:"xp_reward"`
	Icon          string `db:"icon"`
	Conversations string `db:"conversations"`
}

func (row scenarioRow) toModel() (models.Scenario, error) {
	scenario := models.Scenario{
		ID:          row.ID,
		Title:       row.Title,
		Description: row.Description,
		Difficulty:  row.Difficulty,
		Category:    row.Category,
		XPReward:    row.XPReward,
		Icon:        row.Icon,
	}
	if err := json.Unmarshal([]byte(row.Conversations), &scenario.Conversations); err != nil {
		return models.Scenario{}, fmt.Errorf("failed to decode conversations for scenario %q: %w", row.ID, err)
	}
	return scenario, nil
}

// Upsert creates or replaces a scenario row. Returns true if the scenario
// did not exist before.
func (r *ScenarioRepository) Upsert(scenario models.Scenario) (bool, error) {
	conversations, err := json.Marshal(scenario.Conversations)
	if err != nil {
		return false, fmt.Errorf("failed to encode conversations: %w", err)
	}

	var existing string
	err = DB.Get(&existing, "SELECT id FROM scenarios WHERE id = $1", scenario.ID)
	created := errors.Is(err, sql.ErrNoRows)
	if err != nil && !created {
		return false, fmt.Errorf("failed to check scenario: %w", err)
	}

	_, err = DB.Exec(`
		INSERT INTO scenarios (id, title, description, difficulty, category, xp_reward, icon, conversations, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, CURRENT_TIMESTAMP)
		ON CONFLICT (id) DO UPDATE SET
			title = excluded.title,
			description = excluded.description,
			difficulty = excluded.difficulty,
			category = excluded.category,
			xp_reward = excluded.xp_reward,
			icon = excluded.icon,
			conversations = excluded.conversations,
			updated_at = CURRENT_TIMESTAMP
	`, scenario.ID, scenario.Title, scenario.Description, scenario.Difficulty,
		scenario.Category, scenario.XPReward, scenario.Icon, string(conversations))
	if err != nil {
		return false, fmt.Errorf("failed to upsert scenario: %w", err)
	}
	return created, nil
}

// GetAll returns every stored scenario in insertion order.
func (r *ScenarioRepository) GetAll() ([]models.Scenario, error) {
	var rows []scenarioRow
	err := DB.Select(&rows, `
		SELECT id, title, description, difficulty, category, xp_reward, icon, conversations
		FROM scenarios ORDER BY created_at, id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to get scenarios: %w", err)
	}

	scenarios := make([]models.Scenario, 0, len(rows))
	for _, row := range rows {
		scenario, err := row.toModel()
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, scenario)
	}
	return scenarios, nil
}

// GetByID returns a stored scenario, or ErrNotFound.
func (r *ScenarioRepository) GetByID(id string) (models.Scenario, error) {
	var row scenarioRow
	err := DB.Get(&row, `
		SELECT id, title, description, difficulty, category, xp_reward, icon, conversations
		FROM scenarios WHERE id = $1
	`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.Scenario{}, ErrNotFound
		}
		return models.Scenario{}, fmt.Errorf("failed to get scenario: %w", err)
	}
	return row.toModel()
}

// Count returns the number of stored scenarios.
func (r *ScenarioRepository) Count() (int, error) {
	var count int
	err := DB.Get(&count, "SELECT COUNT(*) FROM scenarios")
	return count, err
}
