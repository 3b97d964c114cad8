// Package progress derives curriculum progress, credentials and membership qualification from role history.
package progress

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/topi314/clubagenda/internal/xtime"
	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/database"
)

func New(cfg Config, db *database.Database) *Service {
	return &Service{cfg: cfg, db: db}
}

type Service struct {
	cfg Config
	db  *database.Database
}

type PathInfo struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Abbr string `json:"abbr"`
}

type Progress struct {
	ContactID       int              `json:"contact_id"`
	CurrentPath     *PathInfo        `json:"current_path"`
	CurrentLevel    int              `json:"current_level"`
	CompletedLevels map[string]int   `json:"completed_levels_by_path"`
	Levels          []LevelStatus    `json:"levels"`
	NextProject     *catalog.Project `json:"next_project"`
	Credentials     string           `json:"credentials"`
	IsQualified     bool             `json:"is_qualified_for_membership"`
	Qualification   *Qualification   `json:"qualification,omitempty"`
}

// loadHistory collects a contact's finished role history and resolves speaker assignments to their agenda rows.
func loadHistory(ctx context.Context, q *database.Queries, cfg Config, contactID int) (*history, error) {
	entries, err := q.GetRoleHistory(ctx, contactID)
	if err != nil {
		return nil, err
	}
	achievements, err := q.GetAchievements(ctx, contactID)
	if err != nil {
		return nil, err
	}
	levelRoles, err := q.GetLevelRoles(ctx)
	if err != nil {
		return nil, err
	}

	var meetingIDs []int
	for _, entry := range entries {
		if entry.AwardCategory == database.AwardCategorySpeaker && !slices.Contains(meetingIDs, entry.MeetingID) {
			meetingIDs = append(meetingIDs, entry.MeetingID)
		}
	}
	logs, err := q.GetSessionLogsByMeetings(ctx, meetingIDs)
	if err != nil {
		return nil, err
	}

	var speeches []speech
	for _, entry := range entries {
		if entry.AwardCategory != database.AwardCategorySpeaker {
			continue
		}
		log, ok := resolveLog(logs[entry.MeetingID], entry.OwnerMeetingRole)
		if !ok {
			continue
		}
		speeches = append(speeches, speech{
			MeetingID:   entry.MeetingID,
			RoleName:    entry.RoleName,
			Pathway:     log.Pathway,
			ProjectCode: log.ProjectCode,
			ProjectID:   log.ProjectID,
		})
	}

	return &history{
		entries:      entries,
		speeches:     speeches,
		achievements: achievements,
		levels:       catalog.GroupLevels(levelRoles),
		speechRole:   cfg.SpeechRole,
	}, nil
}

// resolveLog finds the agenda row an owner held. Shared owners at position k map to the k-th row of the role.
func resolveLog(logs []database.SessionLogWithType, owner database.OwnerMeetingRole) (database.SessionLog, bool) {
	if owner.SessionLogID != nil {
		for _, log := range logs {
			if log.SessionLog.ID == *owner.SessionLogID {
				return log.SessionLog, true
			}
		}
		return database.SessionLog{}, false
	}

	var group []database.SessionLog
	for _, log := range logs {
		if log.RoleID != nil && *log.RoleID == owner.RoleID {
			group = append(group, log.SessionLog)
		}
	}
	if owner.Position < 0 || owner.Position >= len(group) {
		return database.SessionLog{}, false
	}
	return group[owner.Position], true
}

// CurrentPath returns the contact's chosen path, falling back to the path of the latest level completion.
func CurrentPath(ctx context.Context, q *database.Queries, contact database.Contact, achievements []database.Achievement) (*database.Path, error) {
	if contact.CurrentPathID != nil {
		return q.GetPath(ctx, *contact.CurrentPathID)
	}

	for _, achievement := range slices.Backward(achievements) {
		if achievement.Kind != database.AchievementKindLevel || achievement.PathName == "" {
			continue
		}
		path, err := q.GetPathByName(ctx, achievement.PathName)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			return nil, err
		}
		return path, nil
	}
	return nil, nil
}

func pathAbbrs(paths []database.Path) map[string]string {
	abbrs := make(map[string]string, len(paths))
	for _, path := range paths {
		abbrs[path.Name] = path.Abbr
	}
	return abbrs
}

// LoadCredentials renders the credentials of a contact from their stored achievements.
func LoadCredentials(ctx context.Context, q *database.Queries, contact database.Contact) (string, error) {
	achievements, err := q.GetAchievements(ctx, contact.ID)
	if err != nil {
		return "", err
	}
	paths, err := q.GetPaths(ctx)
	if err != nil {
		return "", err
	}
	return Credentials(achievements, pathAbbrs(paths), contact.IsDistinguished), nil
}

func (s *Service) Get(ctx context.Context, contactID int) (*Progress, error) {
	return Calculate(ctx, s.db.Queries, s.cfg, contactID, time.Now())
}

// Calculate derives the full progress of a contact.
func Calculate(ctx context.Context, q *database.Queries, cfg Config, contactID int, now time.Time) (*Progress, error) {
	contact, err := q.GetContact(ctx, contactID)
	if err != nil {
		return nil, apperr.NotFoundOr(err, "contact %d not found", contactID)
	}
	h, err := loadHistory(ctx, q, cfg, contactID)
	if err != nil {
		return nil, err
	}
	paths, err := q.GetPaths(ctx)
	if err != nil {
		return nil, err
	}

	progress := &Progress{
		ContactID:       contactID,
		CompletedLevels: make(map[string]int),
		Credentials:     Credentials(h.achievements, pathAbbrs(paths), contact.IsDistinguished),
	}

	for _, path := range paths {
		if !slices.Contains(h.pursuedPaths(), path.Name) && (contact.CurrentPathID == nil || *contact.CurrentPathID != path.ID) {
			continue
		}
		if level := h.completedLevel(path); level > 0 {
			progress.CompletedLevels[path.Name] = level
		}
	}

	currentPath, err := CurrentPath(ctx, q, *contact, h.achievements)
	if err != nil {
		return nil, err
	}
	if currentPath != nil {
		progress.CurrentPath = &PathInfo{
			ID:   currentPath.ID,
			Name: currentPath.Name,
			Abbr: currentPath.Abbr,
		}
		progress.CurrentLevel = min(h.completedLevel(*currentPath)+1, MaxLevel)

		roleCounts := h.roleMeetings()
		for _, level := range h.levels {
			progress.Levels = append(progress.Levels, h.levelStatus(*currentPath, level, roleCounts))
		}

		projects, err := q.GetPathwayProjects(ctx, currentPath.ID)
		if err != nil {
			return nil, err
		}
		catalogProjects := make([]catalog.Project, 0, len(projects))
		for _, project := range projects {
			catalogProjects = append(catalogProjects, catalog.NewProject(project))
		}
		progress.NextProject = NextProject(catalogProjects, h.completedProjects())
	}

	if contact.Type == database.ContactTypeGuest {
		since := xtime.FormatDate(now.Add(-time.Duration(cfg.QualificationWindow)))
		recent, err := q.GetRoleHistorySince(ctx, contactID, since)
		if err != nil {
			return nil, err
		}
		best, err := q.CountBestTableTopics(ctx, contactID, since)
		if err != nil {
			return nil, err
		}
		qualification := Qualify(recent, best)
		progress.Qualification = &qualification
		progress.IsQualified = qualification.Qualified
	}

	return progress, nil
}

// Refresh records level completions earned by the role history but not yet stored, with backfill.
// It returns the newly created achievements.
func Refresh(ctx context.Context, q *database.Queries, cfg Config, contactID int) ([]database.Achievement, error) {
	h, err := loadHistory(ctx, q, cfg, contactID)
	if err != nil {
		return nil, err
	}
	paths, err := q.GetPaths(ctx)
	if err != nil {
		return nil, err
	}

	var created []database.Achievement
	for _, path := range paths {
		if !slices.Contains(h.pursuedPaths(), path.Name) {
			continue
		}
		earned := h.earnedLevel(path)
		if earned <= h.achievedLevel(path.Name) {
			continue
		}

		newAchievements, err := RecordLevel(ctx, q, contactID, path.Name, earned)
		if err != nil {
			return nil, err
		}
		created = append(created, newAchievements...)
	}

	if len(created) > 0 {
		slog.InfoContext(ctx, "Recorded level completions", slog.Int("contact_id", contactID), slog.Int("achievements", len(created)))
	}
	return created, nil
}

// RecordLevel stores a level completion and backfills every lower level of the path.
// Completing the last level also completes the path.
func RecordLevel(ctx context.Context, q *database.Queries, contactID int, pathName string, level int) ([]database.Achievement, error) {
	if level < 1 || level > MaxLevel {
		return nil, apperr.Validation("level must be between 1 and %d", MaxLevel)
	}

	now := time.Now().UTC()
	var created []database.Achievement
	for l := 1; l <= level; l++ {
		achievement := database.Achievement{
			ContactID: contactID,
			Kind:      database.AchievementKindLevel,
			PathName:  pathName,
			Level:     l,
			IssuedAt:  now,
		}
		ok, err := q.InsertAchievement(ctx, achievement)
		if err != nil {
			return nil, err
		}
		if ok {
			created = append(created, achievement)
		}
	}

	if level == MaxLevel {
		achievement := database.Achievement{
			ContactID: contactID,
			Kind:      database.AchievementKindPath,
			PathName:  pathName,
			Level:     MaxLevel,
			IssuedAt:  now,
		}
		ok, err := q.InsertAchievement(ctx, achievement)
		if err != nil {
			return nil, err
		}
		if ok {
			created = append(created, achievement)
			if err = markPathCompleted(ctx, q, contactID, pathName); err != nil {
				return nil, err
			}
		}
	}
	return created, nil
}

func markPathCompleted(ctx context.Context, q *database.Queries, contactID int, pathName string) error {
	contact, err := q.GetContact(ctx, contactID)
	if err != nil {
		return err
	}
	if slices.Contains(contact.CompletedPaths.V, pathName) {
		return nil
	}
	contact.CompletedPaths.V = append(contact.CompletedPaths.V, pathName)
	return q.UpdateContact(ctx, *contact)
}

func (s *Service) Achievements(ctx context.Context, contactID int) ([]database.Achievement, error) {
	if _, err := s.db.GetContact(ctx, contactID); err != nil {
		return nil, apperr.NotFoundOr(err, "contact %d not found", contactID)
	}
	return s.db.GetAchievements(ctx, contactID)
}

// DeleteAchievement removes a recorded achievement of a contact.
func (s *Service) DeleteAchievement(ctx context.Context, contactID int, achievementID int) error {
	achievements, err := s.db.GetAchievements(ctx, contactID)
	if err != nil {
		return err
	}
	if !slices.ContainsFunc(achievements, func(a database.Achievement) bool {
		return a.ID == achievementID
	}) {
		return apperr.NotFound("achievement %d not found", achievementID)
	}
	return s.db.DeleteAchievement(ctx, contactID, achievementID)
}

// RecordAchievement stores a manually granted achievement. Level completions are backfilled.
func (s *Service) RecordAchievement(ctx context.Context, contactID int, kind database.AchievementKind, pathName string, level int) error {
	if !kind.Valid() {
		return apperr.Validation("unknown achievement kind %q", kind)
	}

	return s.db.Tx(ctx, func(q *database.Queries) error {
		if _, err := q.GetContact(ctx, contactID); err != nil {
			return apperr.NotFoundOr(err, "contact %d not found", contactID)
		}
		if pathName != "" {
			if _, err := q.GetPathByName(ctx, pathName); err != nil {
				return apperr.NotFoundOr(err, "path %q not found", pathName)
			}
		}

		switch kind {
		case database.AchievementKindLevel:
			_, err := RecordLevel(ctx, q, contactID, pathName, level)
			return err
		case database.AchievementKindPath:
			_, err := RecordLevel(ctx, q, contactID, pathName, MaxLevel)
			return err
		}

		if _, err := q.InsertAchievement(ctx, database.Achievement{
			ContactID: contactID,
			Kind:      kind,
			PathName:  pathName,
			Level:     level,
			IssuedAt:  time.Now().UTC(),
		}); err != nil {
			return fmt.Errorf("failed to record achievement: %w", err)
		}
		if kind == database.AchievementKindDTM {
			contact, err := q.GetContact(ctx, contactID)
			if err != nil {
				return err
			}
			contact.IsDistinguished = true
			return q.UpdateContact(ctx, *contact)
		}
		return nil
	})
}

// RefreshAll runs Refresh for every contact and stops at the first failure.
func RefreshAll(ctx context.Context, q *database.Queries, cfg Config, contactIDs []int) ([]database.Achievement, error) {
	var created []database.Achievement
	for _, contactID := range contactIDs {
		achievements, err := Refresh(ctx, q, cfg, contactID)
		if err != nil {
			return nil, fmt.Errorf("failed to refresh progress of contact %d: %w", contactID, err)
		}
		created = append(created, achievements...)
	}
	return created, nil
}

// Snapshot returns the credentials and current path of a contact as frozen onto agenda rows.
func Snapshot(ctx context.Context, q *database.Queries, contact database.Contact) (string, *database.Path, error) {
	achievements, err := q.GetAchievements(ctx, contact.ID)
	if err != nil {
		return "", nil, err
	}
	paths, err := q.GetPaths(ctx)
	if err != nil {
		return "", nil, err
	}
	path, err := CurrentPath(ctx, q, contact, achievements)
	if err != nil {
		return "", nil, err
	}
	return Credentials(achievements, pathAbbrs(paths), contact.IsDistinguished), path, nil
}
