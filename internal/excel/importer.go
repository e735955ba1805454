package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/example/tansanbot/internal/database"
	"github.com/example/tansanbot/internal/scenarios"
	"github.com/example/tansanbot/pkg/models"
	"github.com/xuri/excelize/v2"
)

// ImportConfig defines the import configuration. Each row of the sheet is
// one conversation turn; scenario columns repeat on every row of the same
// scenario (only the first row's values are used).
type ImportConfig struct {
	FilePath         string // Path to the Excel or CSV file
	ScenarioIDColumn string // Column with the scenario id
	TitleColumn      string // Column with the scenario title
	DescColumn       string // Column with the scenario description
	DifficultyColumn string // Column with the difficulty
	CategoryColumn   string // Column with the category
	XPRewardColumn   string // Column with the XP reward
	IconColumn       string // Column with the icon
	SpeakerColumn    string // Column with the turn speaker (ai/user)
	TextColumn       string // Column with the turn text
	OptionsColumn    string // Column with |-separated options (decision turns)
	CorrectColumn    string // Column with the correct option index (decision turns)
	SheetName        string // Name of the sheet to import
	StartRow         int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		ScenarioIDColumn: "A",
		TitleColumn:      "B",
		DescColumn:       "C",
		DifficultyColumn: "D",
		CategoryColumn:   "E",
		XPRewardColumn:   "F",
		IconColumn:       "G",
		SpeakerColumn:    "H",
		TextColumn:       "I",
		OptionsColumn:    "J",
		CorrectColumn:    "K",
		SheetName:        "Sheet1",
		StartRow:         2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalRows        int
	ScenariosCreated int
	ScenariosUpdated int
	TurnsImported    int
	Skipped          int
	Errors           []string
}

// ImportScenarios parses the file and upserts every valid scenario into the
// database. Invalid scenarios are reported in the result and skipped.
func ImportScenarios(config ImportConfig) (*ImportResult, error) {
	parsed, result, err := Parse(config)
	if err != nil {
		return nil, err
	}

	repo := database.NewScenarioRepository()
	for _, scenario := range parsed {
		if err := scenarios.Validate(scenario); err != nil {
			result.Skipped++
			result.Errors = append(result.Errors, fmt.Sprintf("Scenario %q: %v", scenario.ID, err))
			continue
		}
		created, err := repo.Upsert(scenario)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Scenario %q: %v", scenario.ID, err))
			continue
		}
		if created {
			result.ScenariosCreated++
		} else {
			result.ScenariosUpdated++
		}
		result.TurnsImported += len(scenario.Conversations)
	}

	return result, nil
}

// Parse reads the file and builds scenarios without touching the database.
func Parse(config ImportConfig) ([]models.Scenario, *ImportResult, error) {
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	var rows [][]string
	var err error
	if ext == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config)
	}
	if err != nil {
		return nil, nil, err
	}

	parsed, result := buildScenarios(rows, config)
	return parsed, result, nil
}

func readExcel(config ImportConfig) ([][]string, error) {
	f, err := excelize.OpenFile(config.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(config.SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// buildScenarios groups the sheet rows by scenario id, preserving first-seen
// order of scenarios and row order of turns.
func buildScenarios(rows [][]string, config ImportConfig) ([]models.Scenario, *ImportResult) {
	result := &ImportResult{Errors: make([]string, 0)}

	var order []string
	byID := make(map[string]*models.Scenario)

	for i, row := range rows {
		rowNum := i + 1
		if rowNum < config.StartRow {
			continue
		}
		result.TotalRows++

		id := strings.TrimSpace(cell(row, config.ScenarioIDColumn))
		if id == "" {
			result.Skipped++
			continue
		}

		scenario, exists := byID[id]
		if !exists {
			scenario = &models.Scenario{
				ID:          id,
				Title:       strings.TrimSpace(cell(row, config.TitleColumn)),
				Description: strings.TrimSpace(cell(row, config.DescColumn)),
				Difficulty:  parseDifficulty(cell(row, config.DifficultyColumn)),
				Category:    strings.TrimSpace(cell(row, config.CategoryColumn)),
				Icon:        strings.TrimSpace(cell(row, config.IconColumn)),
			}
			if xp, err := strconv.Atoi(strings.TrimSpace(cell(row, config.XPRewardColumn))); err == nil && xp >= 0 {
				scenario.XPReward = xp
			} else {
				scenario.XPReward = 50
			}
			byID[id] = scenario
			order = append(order, id)
		}

		turn, err := parseTurn(row, config, len(scenario.Conversations)+1)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", rowNum, err))
			result.Skipped++
			continue
		}
		scenario.Conversations = append(scenario.Conversations, turn)
	}

	parsed := make([]models.Scenario, 0, len(order))
	for _, id := range order {
		parsed = append(parsed, *byID[id])
	}
	return parsed, result
}

func parseTurn(row []string, config ImportConfig, turnID int) (models.Conversation, error) {
	speaker := strings.ToLower(strings.TrimSpace(cell(row, config.SpeakerColumn)))
	if speaker != models.SpeakerAI && speaker != models.SpeakerUser {
		return models.Conversation{}, fmt.Errorf("unknown speaker %q", speaker)
	}

	turn := models.Conversation{
		ID:      turnID,
		Speaker: speaker,
		Text:    strings.TrimSpace(cell(row, config.TextColumn)),
	}

	optionsRaw := strings.TrimSpace(cell(row, config.OptionsColumn))
	if optionsRaw == "" {
		return turn, nil
	}

	for _, option := range strings.Split(optionsRaw, "|") {
		if option = strings.TrimSpace(option); option != "" {
			turn.Options = append(turn.Options, option)
		}
	}
	if len(turn.Options) == 0 {
		return turn, nil
	}

	if speaker != models.SpeakerUser {
		return models.Conversation{}, fmt.Errorf("options are only allowed on user turns")
	}

	index, err := strconv.Atoi(strings.TrimSpace(cell(row, config.CorrectColumn)))
	if err != nil {
		return models.Conversation{}, fmt.Errorf("invalid correct option index: %v", err)
	}
	if index < 0 || index >= len(turn.Options) {
		return models.Conversation{}, fmt.Errorf("correct option index %d out of range", index)
	}
	turn.CorrectOption = &index

	return turn, nil
}

func parseDifficulty(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case models.DifficultyIntermediate:
		return models.DifficultyIntermediate
	case models.DifficultyAdvanced:
		return models.DifficultyAdvanced
	default:
		return models.DifficultyBeginner
	}
}

func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if idx := columnToIndex(column); idx >= 0 && idx < len(row) {
		return row[idx]
	}
	return ""
}

// columnToIndex converts a column letter ("A", "B", ... "AA") to a 0-based index
func columnToIndex(column string) int {
	column = strings.ToUpper(strings.TrimSpace(column))
	index := 0
	for _, r := range column {
		if r < 'A' || r > 'Z' {
			return -1
		}
		index = index*26 + int(r-'A') + 1
	}
	return index - 1
}
