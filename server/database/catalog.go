package database

import (
	"context"
	"fmt"
)

func (q *Queries) GetPaths(ctx context.Context) ([]Path, error) {
	var paths []Path
	if err := q.sel(ctx, &paths, "SELECT * FROM paths ORDER BY path_name"); err != nil {
		return nil, fmt.Errorf("failed to get paths: %w", err)
	}
	return paths, nil
}

func (q *Queries) GetPath(ctx context.Context, pathID int) (*Path, error) {
	var path Path
	if err := q.get(ctx, &path, "SELECT * FROM paths WHERE path_id = ?", pathID); err != nil {
		return nil, fmt.Errorf("failed to get path: %w", err)
	}
	return &path, nil
}

func (q *Queries) GetPathByName(ctx context.Context, name string) (*Path, error) {
	var path Path
	if err := q.get(ctx, &path, "SELECT * FROM paths WHERE path_name = ?", name); err != nil {
		return nil, fmt.Errorf("failed to get path by name: %w", err)
	}
	return &path, nil
}

// GetProjectsByIDs is the batch loader for projects.
func (q *Queries) GetProjectsByIDs(ctx context.Context, projectIDs []int) (map[int]Project, error) {
	projects := make(map[int]Project, len(projectIDs))
	if len(projectIDs) == 0 {
		return projects, nil
	}

	var rows []Project
	if err := q.selIn(ctx, &rows, "SELECT * FROM projects WHERE project_id IN (?)", projectIDs); err != nil {
		return nil, fmt.Errorf("failed to get projects: %w", err)
	}
	for _, row := range rows {
		projects[row.ID] = row
	}
	return projects, nil
}

func (q *Queries) GetPathwayProjects(ctx context.Context, pathID int) ([]PathwayProjectWithProject, error) {
	query := `
		SELECT pathway_projects.*, projects.*, paths.*
		FROM pathway_projects
		JOIN projects ON pathway_projects.pathway_project_project_id = projects.project_id
		JOIN paths ON pathway_projects.pathway_project_path_id = paths.path_id
		WHERE pathway_projects.pathway_project_path_id = ?
		ORDER BY pathway_projects.pathway_project_level, pathway_projects.pathway_project_code
	`

	var projects []PathwayProjectWithProject
	if err := q.sel(ctx, &projects, query, pathID); err != nil {
		return nil, fmt.Errorf("failed to get pathway projects: %w", err)
	}
	return projects, nil
}

func (q *Queries) GetPathwayProject(ctx context.Context, pathID int, projectID int) (*PathwayProjectWithProject, error) {
	query := `
		SELECT pathway_projects.*, projects.*, paths.*
		FROM pathway_projects
		JOIN projects ON pathway_projects.pathway_project_project_id = projects.project_id
		JOIN paths ON pathway_projects.pathway_project_path_id = paths.path_id
		WHERE pathway_projects.pathway_project_path_id = ? AND pathway_projects.pathway_project_project_id = ?
	`

	var project PathwayProjectWithProject
	if err := q.get(ctx, &project, query, pathID, projectID); err != nil {
		return nil, fmt.Errorf("failed to get pathway project: %w", err)
	}
	return &project, nil
}

func (q *Queries) GetLevelRoles(ctx context.Context) ([]LevelRole, error) {
	var levelRoles []LevelRole
	if err := q.sel(ctx, &levelRoles, "SELECT * FROM level_roles ORDER BY level_role_level, level_role_id"); err != nil {
		return nil, fmt.Errorf("failed to get level roles: %w", err)
	}
	return levelRoles, nil
}

// ReplaceLevelRoles swaps the whole requirement table. It must run inside a transaction.
func (q *Queries) ReplaceLevelRoles(ctx context.Context, levelRoles []LevelRole) error {
	if _, err := q.exec(ctx, "DELETE FROM level_roles"); err != nil {
		return fmt.Errorf("failed to delete level roles: %w", err)
	}
	if len(levelRoles) == 0 {
		return nil
	}

	query := `
		INSERT INTO level_roles (level_role_level, level_role_role, level_role_kind, level_role_group, level_role_count)
		VALUES (:level_role_level, :level_role_role, :level_role_kind, :level_role_group, :level_role_count)
	`
	if _, err := q.named(ctx, query, levelRoles); err != nil {
		return fmt.Errorf("failed to insert level roles: %w", err)
	}
	return nil
}
