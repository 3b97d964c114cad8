// Package catalog serves the read-mostly curriculum and meeting metadata.
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/topi314/clubagenda/server/database"
)

// ExcommOffices lists the executive committee offices in display order. Each office is also a role name.
var ExcommOffices = []string{"President", "VPE", "VPM", "VPPR", "Secretary", "Treasurer", "SAA", "IPP"}

func New(db *database.Database) *Catalog {
	return &Catalog{db: db}
}

type Catalog struct {
	db *database.Database
}

type Project struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Purpose     string `json:"purpose"`
	Level       int    `json:"level"`
	Code        string `json:"code"`
	DisplayCode string `json:"display_code"`
	DurationMin int    `json:"duration_min"`
	DurationMax int    `json:"duration_max"`
}

type Level struct {
	Level     int                             `json:"level"`
	Required  []database.LevelRole            `json:"required"`
	Electives map[string][]database.LevelRole `json:"electives"`
}

func (c *Catalog) Paths(ctx context.Context) ([]database.Path, error) {
	return c.db.GetPaths(ctx)
}

func (c *Catalog) PathwayProjects(ctx context.Context, pathID int) ([]Project, error) {
	rows, err := c.db.GetPathwayProjects(ctx, pathID)
	if err != nil {
		return nil, err
	}

	projects := make([]Project, 0, len(rows))
	for _, row := range rows {
		projects = append(projects, NewProject(row))
	}
	return projects, nil
}

func (c *Catalog) Roles(ctx context.Context, clubID int) ([]database.Role, error) {
	return c.db.GetRoles(ctx, clubID)
}

func (c *Catalog) SessionTypes(ctx context.Context, clubID int) ([]database.SessionType, error) {
	return c.db.GetSessionTypes(ctx, clubID)
}

func (c *Catalog) Levels(ctx context.Context) ([]Level, error) {
	levelRoles, err := c.db.GetLevelRoles(ctx)
	if err != nil {
		return nil, err
	}
	return GroupLevels(levelRoles), nil
}

func Tickets() []database.Ticket {
	return slices.Clone(database.Tickets)
}

// NewProject maps a pathway project row to its api shape.
func NewProject(row database.PathwayProjectWithProject) Project {
	return Project{
		ID:          row.Project.ID,
		Name:        row.Project.Name,
		Purpose:     row.Purpose,
		Level:       row.Level,
		Code:        row.Code,
		DisplayCode: row.DisplayCode(),
		DurationMin: row.Project.DurationMin,
		DurationMax: row.Project.DurationMax,
	}
}

// GroupLevels splits level requirements into required rows and elective groups per level, ordered by level.
func GroupLevels(levelRoles []database.LevelRole) []Level {
	var levels []Level
	index := make(map[int]int)
	for _, levelRole := range levelRoles {
		i, ok := index[levelRole.Level]
		if !ok {
			i = len(levels)
			index[levelRole.Level] = i
			levels = append(levels, Level{
				Level:     levelRole.Level,
				Electives: make(map[string][]database.LevelRole),
			})
		}

		if levelRole.Kind == database.LevelRoleKindElective {
			levels[i].Electives[levelRole.Group] = append(levels[i].Electives[levelRole.Group], levelRole)
			continue
		}
		levels[i].Required = append(levels[i].Required, levelRole)
	}

	slices.SortFunc(levels, func(a, b Level) int {
		return a.Level - b.Level
	})
	return levels
}

// ProjectCode returns the display code of a project under a path, or "" when the project is not part of it.
func ProjectCode(ctx context.Context, q *database.Queries, pathID int, projectID int) (string, error) {
	project, err := q.GetPathwayProject(ctx, pathID, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get project code: %w", err)
	}
	return project.DisplayCode(), nil
}

// ProjectLevel parses the level out of a display code snapshot such as "PM2.1". The path abbreviation is stripped
// and the digits before the first dot are the level.
func ProjectLevel(code string, abbr string) (int, bool) {
	rest, ok := strings.CutPrefix(code, abbr)
	if !ok || rest == "" {
		return 0, false
	}
	levelStr, _, _ := strings.Cut(rest, ".")
	level, err := strconv.Atoi(levelStr)
	if err != nil {
		return 0, false
	}
	return level, true
}

// IsExcommOffice reports whether a role name is an executive committee office.
func IsExcommOffice(name string) bool {
	return slices.Contains(ExcommOffices, name)
}

// IsEvaluation reports whether a session row is an evaluation, which adds a minute of break in distributed GE mode.
func IsEvaluation(title string, role *database.Role) bool {
	if role != nil && role.AwardCategory == database.AwardCategoryEvaluator {
		return true
	}
	return len(title) >= len("evaluation") && strings.EqualFold(title[:len("evaluation")], "evaluation")
}
