package catalog

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/topi314/clubagenda/server/database"
	"github.com/topi314/clubagenda/server/database/dbtest"
)

func TestProjectLevel(t *testing.T) {
	tests := []struct {
		code  string
		abbr  string
		level int
		ok    bool
	}{
		{code: "PM2.1", abbr: "PM", level: 2, ok: true},
		{code: "PM5.1", abbr: "PM", level: 5, ok: true},
		{code: "SC1", abbr: "SC", level: 1, ok: true},
		{code: "DL2.1", abbr: "PM", ok: false},
		{code: "PM", abbr: "PM", ok: false},
		{code: "", abbr: "PM", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			level, ok := ProjectLevel(tt.code, tt.abbr)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.level, level)
		})
	}
}

func TestIsEvaluation(t *testing.T) {
	evaluator := &database.Role{AwardCategory: database.AwardCategoryEvaluator}
	timer := &database.Role{AwardCategory: database.AwardCategoryRoleTaker}

	assert.True(t, IsEvaluation("Evaluation", nil))
	assert.True(t, IsEvaluation("evaluation of speech 2", timer))
	assert.True(t, IsEvaluation("Feedback", evaluator))
	assert.False(t, IsEvaluation("General Evaluation Report", timer))
	assert.False(t, IsEvaluation("Eval", nil))
}

func TestGroupLevels(t *testing.T) {
	levels := GroupLevels([]database.LevelRole{
		{Level: 2, Role: "Prepared Speaker", Kind: database.LevelRoleKindRequired, Count: 2},
		{Level: 1, Role: "Prepared Speaker", Kind: database.LevelRoleKindRequired, Count: 3},
		{Level: 1, Role: "Timer", Kind: database.LevelRoleKindElective, Group: "functionary", Count: 1},
		{Level: 1, Role: "Grammarian", Kind: database.LevelRoleKindElective, Group: "functionary", Count: 1},
	})

	require.Len(t, levels, 2)
	assert.Equal(t, 1, levels[0].Level)
	assert.Len(t, levels[0].Required, 1)
	assert.Len(t, levels[0].Electives["functionary"], 2)
	assert.Equal(t, 2, levels[1].Level)
	assert.Empty(t, levels[1].Electives)
}

func TestPathwayProjects(t *testing.T) {
	db := dbtest.Open(t)
	ctx := context.Background()
	c := New(db)

	pm, err := db.GetPathByName(ctx, "Presentation Mastery")
	require.NoError(t, err)

	projects, err := c.PathwayProjects(ctx, pm.ID)
	require.NoError(t, err)
	require.NotEmpty(t, projects)
	assert.Equal(t, "Ice Breaker", projects[0].Name)
	assert.Equal(t, "PM1.1", projects[0].DisplayCode)

	code, err := ProjectCode(ctx, db.Queries, pm.ID, projects[1].ID)
	require.NoError(t, err)
	assert.Equal(t, "PM1.2", code)

	sc, err := db.GetPathByName(ctx, "Successful Club Series")
	require.NoError(t, err)
	code, err = ProjectCode(ctx, db.Queries, sc.ID, projects[1].ID)
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestTicketsIsACopy(t *testing.T) {
	tickets := Tickets()
	tickets[0] = "changed"
	assert.Equal(t, database.TicketOfficer, Tickets()[0])
}
