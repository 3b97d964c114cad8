package progress

import (
	"slices"
	"strconv"
	"strings"

	"github.com/topi314/clubagenda/server/catalog"
	"github.com/topi314/clubagenda/server/database"
)

const MaxLevel = 5

// speech is a speaker-category assignment resolved to the agenda row it was held on.
type speech struct {
	MeetingID   int
	RoleName    string
	Pathway     string
	ProjectCode string
	ProjectID   *int
}

// history is everything the calculator needs about one contact.
type history struct {
	entries      []database.RoleHistoryEntry
	speeches     []speech
	achievements []database.Achievement
	levels       []catalog.Level
	speechRole   string
}

type Requirement struct {
	Role      string `json:"role"`
	Group     string `json:"group,omitempty"`
	Required  int    `json:"required"`
	Count     int    `json:"count"`
	Satisfied bool   `json:"satisfied"`
}

type LevelStatus struct {
	Level        int           `json:"level"`
	Complete     bool          `json:"complete"`
	Requirements []Requirement `json:"requirements"`
}

// roleMeetings counts the distinct meetings in which the contact held each role.
func (h history) roleMeetings() map[string]int {
	meetings := make(map[string]map[int]struct{})
	for _, entry := range h.entries {
		if meetings[entry.RoleName] == nil {
			meetings[entry.RoleName] = make(map[int]struct{})
		}
		meetings[entry.RoleName][entry.MeetingID] = struct{}{}
	}

	counts := make(map[string]int, len(meetings))
	for role, set := range meetings {
		counts[role] = len(set)
	}
	return counts
}

// speechMeetings counts distinct meetings with a speech held under path at the given level.
func (h history) speechMeetings(path database.Path, level int) int {
	meetings := make(map[int]struct{})
	for _, s := range h.speeches {
		if s.RoleName != h.speechRole || s.Pathway != path.Name {
			continue
		}
		if l, ok := catalog.ProjectLevel(s.ProjectCode, path.Abbr); ok && l == level {
			meetings[s.MeetingID] = struct{}{}
		}
	}
	return len(meetings)
}

func (h history) count(path database.Path, levelRole database.LevelRole, roleCounts map[string]int) int {
	if levelRole.Role == h.speechRole {
		return h.speechMeetings(path, levelRole.Level)
	}
	return roleCounts[levelRole.Role]
}

// levelStatus evaluates every requirement of a level for a path.
func (h history) levelStatus(path database.Path, level catalog.Level, roleCounts map[string]int) LevelStatus {
	status := LevelStatus{
		Level:    level.Level,
		Complete: true,
	}

	for _, levelRole := range level.Required {
		count := h.count(path, levelRole, roleCounts)
		satisfied := count >= levelRole.Count
		status.Complete = status.Complete && satisfied
		status.Requirements = append(status.Requirements, Requirement{
			Role:      levelRole.Role,
			Required:  levelRole.Count,
			Count:     count,
			Satisfied: satisfied,
		})
	}

	groups := make([]string, 0, len(level.Electives))
	for group := range level.Electives {
		groups = append(groups, group)
	}
	slices.Sort(groups)

	for _, group := range groups {
		var count, required int
		for _, levelRole := range level.Electives[group] {
			count += h.count(path, levelRole, roleCounts)
			required = max(required, levelRole.Count)
		}
		satisfied := count >= required
		status.Complete = status.Complete && satisfied
		status.Requirements = append(status.Requirements, Requirement{
			Role:      group,
			Group:     group,
			Required:  required,
			Count:     count,
			Satisfied: satisfied,
		})
	}
	return status
}

// earnedLevel is the highest level whose requirements are all met by the role history alone.
func (h history) earnedLevel(path database.Path) int {
	roleCounts := h.roleMeetings()

	var earned int
	for _, level := range h.levels {
		if level.Level > MaxLevel {
			continue
		}
		if h.levelStatus(path, level, roleCounts).Complete {
			earned = max(earned, level.Level)
		}
	}
	return earned
}

// achievedLevel is the highest recorded level completion for a path.
func (h history) achievedLevel(pathName string) int {
	var level int
	for _, achievement := range h.achievements {
		if achievement.PathName != pathName {
			continue
		}
		switch achievement.Kind {
		case database.AchievementKindLevel:
			level = max(level, achievement.Level)
		case database.AchievementKindPath:
			level = MaxLevel
		}
	}
	return level
}

func (h history) completedLevel(path database.Path) int {
	return max(h.earnedLevel(path), h.achievedLevel(path.Name))
}

// pursuedPaths returns the names of every path the contact spoke in or holds an achievement for.
func (h history) pursuedPaths() []string {
	var names []string
	for _, s := range h.speeches {
		if s.Pathway != "" && !slices.Contains(names, s.Pathway) {
			names = append(names, s.Pathway)
		}
	}
	for _, achievement := range h.achievements {
		if achievement.PathName != "" && !slices.Contains(names, achievement.PathName) {
			names = append(names, achievement.PathName)
		}
	}
	slices.Sort(names)
	return names
}

// completedProjects returns the ids of every project the contact has delivered.
func (h history) completedProjects() map[int]struct{} {
	projects := make(map[int]struct{})
	for _, s := range h.speeches {
		if s.ProjectID != nil {
			projects[*s.ProjectID] = struct{}{}
		}
	}
	return projects
}

// Credentials renders the highest completed level per path as abbr+level, sorted by abbreviation and
// joined by "/". Distinguished contacts get a trailing DTM.
func Credentials(achievements []database.Achievement, abbrs map[string]string, distinguished bool) string {
	highest := make(map[string]int)
	for _, achievement := range achievements {
		abbr, ok := abbrs[achievement.PathName]
		if !ok {
			continue
		}
		switch achievement.Kind {
		case database.AchievementKindLevel:
			highest[abbr] = max(highest[abbr], achievement.Level)
		case database.AchievementKindPath:
			highest[abbr] = MaxLevel
		}
	}

	parts := make([]string, 0, len(highest)+1)
	for abbr, level := range highest {
		if level > 0 {
			parts = append(parts, abbr+strconv.Itoa(level))
		}
	}
	slices.Sort(parts)
	if distinguished {
		parts = append(parts, "DTM")
	}
	return strings.Join(parts, "/")
}

// NextProject returns the first project of a path, by level then code, the contact has not delivered yet.
func NextProject(projects []catalog.Project, completed map[int]struct{}) *catalog.Project {
	for _, project := range projects {
		if _, ok := completed[project.ID]; !ok {
			return &project
		}
	}
	return nil
}

type Qualification struct {
	TableTopics     int  `json:"table_topics"`
	BestTableTopics int  `json:"best_table_topics"`
	OtherRoles      int  `json:"other_roles"`
	Qualified       bool `json:"qualified"`
}

// Qualify applies the guest membership rule to role history within the window.
func Qualify(entries []database.RoleHistoryEntry, bestTableTopics int) Qualification {
	q := Qualification{BestTableTopics: bestTableTopics}
	for _, entry := range entries {
		switch entry.AwardCategory {
		case database.AwardCategoryTableTopic:
			q.TableTopics++
		case database.AwardCategoryNone:
		default:
			q.OtherRoles++
		}
	}
	q.Qualified = q.TableTopics >= 4 && q.BestTableTopics >= 1 && q.OtherRoles >= 2
	return q
}
