package excel

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/example/tansanbot/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenarios.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const sampleCSV = `scenario_id,title,description,difficulty,category,xp,icon,speaker,text,options,correct
greetings,Greetings,Say hello,beginner,social,40,👋,ai,Hello there!,,
greetings,Greetings,Say hello,beginner,social,40,👋,user,,Hi!|Bye.|Whatever.,0
greetings,Greetings,Say hello,beginner,social,40,👋,ai,How are you today?,,
greetings,Greetings,Say hello,beginner,social,40,👋,user,,"I'm fine, thanks.|Leave me alone.",0
shopping,Shopping,Buy groceries,intermediate,errands,60,🛒,ai,Can I help you find something?,,
shopping,Shopping,Buy groceries,intermediate,errands,60,🛒,user,,"Yes, where is the milk?|Milk. Now.",0
`

func TestParseCSV(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = writeCSV(t, sampleCSV)

	parsed, result, err := Parse(config)
	require.NoError(t, err)

	assert.Equal(t, 6, result.TotalRows)
	assert.Zero(t, result.Skipped)
	assert.Empty(t, result.Errors)
	require.Len(t, parsed, 2)

	greetings := parsed[0]
	assert.Equal(t, "greetings", greetings.ID)
	assert.Equal(t, "Greetings", greetings.Title)
	assert.Equal(t, models.DifficultyBeginner, greetings.Difficulty)
	assert.Equal(t, 40, greetings.XPReward)
	assert.Equal(t, "👋", greetings.Icon)
	require.Len(t, greetings.Conversations, 4)
	assert.Equal(t, 2, greetings.ScorableTurns())

	decision := greetings.Conversations[1]
	assert.Equal(t, models.SpeakerUser, decision.Speaker)
	assert.Equal(t, []string{"Hi!", "Bye.", "Whatever."}, decision.Options)
	require.NotNil(t, decision.CorrectOption)
	assert.Equal(t, 0, *decision.CorrectOption)

	shopping := parsed[1]
	assert.Equal(t, models.DifficultyIntermediate, shopping.Difficulty)
	assert.Equal(t, 60, shopping.XPReward)
}

func TestParseSkipsHeaderAndBlankIDs(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = writeCSV(t, `scenario_id,title,description,difficulty,category,xp,icon,speaker,text,options,correct
,orphan,row,beginner,,40,,ai,No scenario id here,,
greetings,Greetings,,beginner,,40,,ai,Hello!,,
greetings,Greetings,,beginner,,40,,user,,Hi!|Bye.,0
`)

	parsed, result, err := Parse(config)
	require.NoError(t, err)

	assert.Equal(t, 3, result.TotalRows)
	assert.Equal(t, 1, result.Skipped)
	require.Len(t, parsed, 1)
	assert.Len(t, parsed[0].Conversations, 2)
}

func TestParseReportsBadRows(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = writeCSV(t, `scenario_id,title,description,difficulty,category,xp,icon,speaker,text,options,correct
greetings,Greetings,,beginner,,40,,narrator,Bad speaker,,
greetings,Greetings,,beginner,,40,,user,,Hi!|Bye.,7
greetings,Greetings,,beginner,,40,,ai,Options on ai turn,Hi!|Bye.,0
greetings,Greetings,,beginner,,40,,ai,Fine row,,
`)

	parsed, result, err := Parse(config)
	require.NoError(t, err)

	assert.Equal(t, 3, result.Skipped)
	assert.Len(t, result.Errors, 3)
	require.Len(t, parsed, 1)
	assert.Len(t, parsed[0].Conversations, 1, "only the well-formed row survives")
}

func TestParseDefaultsXPAndDifficulty(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = writeCSV(t, `scenario_id,title,description,difficulty,category,xp,icon,speaker,text,options,correct
greetings,Greetings,,nightmare,,not-a-number,,ai,Hello!,,
greetings,Greetings,,nightmare,,not-a-number,,user,,Hi!|Bye.,0
`)

	parsed, _, err := Parse(config)
	require.NoError(t, err)

	require.Len(t, parsed, 1)
	assert.Equal(t, 50, parsed[0].XPReward)
	assert.Equal(t, models.DifficultyBeginner, parsed[0].Difficulty)
}

func TestParseExcelFile(t *testing.T) {
	f := excelize.NewFile()
	rows := [][]interface{}{
		{"scenario_id", "title", "description", "difficulty", "category", "xp", "icon", "speaker", "text", "options", "correct"},
		{"greetings", "Greetings", "Say hello", "beginner", "social", 40, "👋", "ai", "Hello there!", "", ""},
		{"greetings", "Greetings", "Say hello", "beginner", "social", 40, "👋", "user", "", "Hi!|Bye.", 0},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "scenarios.xlsx")
	require.NoError(t, f.SaveAs(path))

	config := DefaultImportConfig()
	config.FilePath = path

	parsed, result, err := Parse(config)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalRows)
	require.Len(t, parsed, 1)
	assert.Equal(t, "greetings", parsed[0].ID)
	require.Len(t, parsed[0].Conversations, 2)
	assert.True(t, parsed[0].Conversations[1].IsDecision())
}

func TestParseMissingFile(t *testing.T) {
	config := DefaultImportConfig()
	config.FilePath = filepath.Join(t.TempDir(), "missing.xlsx")

	_, _, err := Parse(config)
	assert.Error(t, err)
}

func TestColumnToIndex(t *testing.T) {
	tests := []struct {
		column string
		index  int
	}{
		{"A", 0},
		{"B", 1},
		{"K", 10},
		{"Z", 25},
		{"AA", 26},
		{"", -1},
		{"1", -1},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.index, columnToIndex(tt.column), "column %q", tt.column)
	}
}
