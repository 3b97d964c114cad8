package database

import (
	"time"

	"github.com/topi314/clubagenda/internal/xsql"
)

type ContactType string

const (
	ContactTypeMember     ContactType = "Member"
	ContactTypeGuest      ContactType = "Guest"
	ContactTypePastMember ContactType = "Past Member"
	ContactTypeOfficer    ContactType = "Officer"
)

func (t ContactType) Valid() bool {
	switch t {
	case ContactTypeMember, ContactTypeGuest, ContactTypePastMember, ContactTypeOfficer:
		return true
	}
	return false
}

type AwardCategory string

const (
	AwardCategorySpeaker    AwardCategory = "speaker"
	AwardCategoryEvaluator  AwardCategory = "evaluator"
	AwardCategoryRoleTaker  AwardCategory = "role-taker"
	AwardCategoryTableTopic AwardCategory = "table-topic"
	AwardCategoryNone       AwardCategory = "none"
)

// AwardCategories lists every category that produces a best-of award.
var AwardCategories = []AwardCategory{
	AwardCategorySpeaker,
	AwardCategoryEvaluator,
	AwardCategoryRoleTaker,
	AwardCategoryTableTopic,
}

func (c AwardCategory) Valid() bool {
	switch c {
	case AwardCategorySpeaker, AwardCategoryEvaluator, AwardCategoryRoleTaker, AwardCategoryTableTopic:
		return true
	}
	return false
}

type RoleType string

const (
	RoleTypeStandard     RoleType = "standard"
	RoleTypeOfficer      RoleType = "officer"
	RoleTypeClubSpecific RoleType = "club-specific"
)

type MeetingStatus string

const (
	MeetingStatusUnpublished MeetingStatus = "unpublished"
	MeetingStatusNotStarted  MeetingStatus = "not-started"
	MeetingStatusRunning     MeetingStatus = "running"
	MeetingStatusFinished    MeetingStatus = "finished"
)

type GEMode int

const (
	GEModeTraditional GEMode = 0
	GEModeDistributed GEMode = 1
)

type Ticket string

const (
	TicketOfficer         Ticket = "Officer"
	TicketEarlyBirdMember Ticket = "Early-bird (Member)"
	TicketEarlyBirdGuest  Ticket = "Early-bird (Guest)"
	TicketRoleTaker       Ticket = "Role Taker"
	TicketCancelled       Ticket = "Cancelled"
)

var Tickets = []Ticket{
	TicketOfficer,
	TicketEarlyBirdMember,
	TicketEarlyBirdGuest,
	TicketRoleTaker,
	TicketCancelled,
}

type AchievementKind string

const (
	AchievementKindLevel   AchievementKind = "level-completion"
	AchievementKindPath    AchievementKind = "path-completion"
	AchievementKindProgram AchievementKind = "program-completion"
	AchievementKindDTM     AchievementKind = "dtm"
)

func (k AchievementKind) Valid() bool {
	switch k {
	case AchievementKindLevel, AchievementKindPath, AchievementKindProgram, AchievementKindDTM:
		return true
	}
	return false
}

type LevelRoleKind string

const (
	LevelRoleKindRequired LevelRoleKind = "required"
	LevelRoleKindElective LevelRoleKind = "elective"
)

type PathType string

const (
	PathTypePathway            PathType = "pathway"
	PathTypePresentationSeries PathType = "presentation-series"
	PathTypeProgram            PathType = "program"
	PathTypeDummy              PathType = "dummy"
)

type PlanStatus string

const (
	PlanStatusPlanned PlanStatus = "planned"
	PlanStatusBooked  PlanStatus = "booked"
)

const SessionLogStatusBooked = "Booked"

// UserRole is the per-club permission bitmask of a user.
type UserRole int

const (
	UserRoleMember UserRole = 1 << iota
	UserRoleOfficer
	UserRoleAdmin
)

func (r UserRole) Has(role UserRole) bool {
	return r&role == role
}

type Club struct {
	ID              int       `db:"club_id"`
	Name            string    `db:"club_name"`
	CurrentExcommID *int      `db:"club_current_excomm_id"`
	CreatedAt       time.Time `db:"club_created_at"`
}

type Excomm struct {
	ID        int       `db:"excomm_id"`
	ClubID    int       `db:"excomm_club_id"`
	Term      string    `db:"excomm_term"`
	CreatedAt time.Time `db:"excomm_created_at"`
}

type ExcommOfficer struct {
	ExcommID  int    `db:"excomm_officer_excomm_id"`
	Office    string `db:"excomm_officer_office"`
	ContactID int    `db:"excomm_officer_contact_id"`
}

type ExcommOfficerWithContact struct {
	ExcommOfficer
	Contact
}

type Contact struct {
	ID              int                 `db:"contact_id"`
	Name            string              `db:"contact_name"`
	FirstName       string              `db:"contact_first_name"`
	LastName        string              `db:"contact_last_name"`
	Email           string              `db:"contact_email"`
	Phone           string              `db:"contact_phone"`
	Type            ContactType         `db:"contact_type"`
	CurrentPathID   *int                `db:"contact_current_path_id"`
	CompletedPaths  xsql.JSON[[]string] `db:"contact_completed_paths"`
	IsDistinguished bool                `db:"contact_is_distinguished"`
	MentorID        *int                `db:"contact_mentor_id"`
	AvatarURL       string              `db:"contact_avatar_url"`
	CreatedAt       time.Time           `db:"contact_created_at"`
}

type User struct {
	ID          int       `db:"user_id"`
	Username    string    `db:"user_username"`
	Email       string    `db:"user_email"`
	DisplayName string    `db:"user_display_name"`
	CreatedAt   time.Time `db:"user_created_at"`
}

type UserClub struct {
	UserID    int      `db:"user_club_user_id"`
	ClubID    int      `db:"user_club_club_id"`
	ContactID *int     `db:"user_club_contact_id"`
	Roles     UserRole `db:"user_club_roles"`
	IsHome    bool     `db:"user_club_is_home"`
}

type Session struct {
	ID                 string    `db:"user_session_id"`
	UserID             *int      `db:"user_session_user_id"`
	ClubID             *int      `db:"user_session_club_id"`
	VoterToken         string    `db:"user_session_voter_token"`
	ForcePasswordReset bool      `db:"user_session_force_password_reset"`
	CreatedAt          time.Time `db:"user_session_created_at"`
	ExpiresAt          time.Time `db:"user_session_expires_at"`
}

type Path struct {
	ID     int      `db:"path_id"`
	Name   string   `db:"path_name"`
	Abbr   string   `db:"path_abbr"`
	Type   PathType `db:"path_type"`
	Status string   `db:"path_status"`
}

type Project struct {
	ID             int    `db:"project_id"`
	Name           string `db:"project_name"`
	Purpose        string `db:"project_purpose"`
	DurationMin    int    `db:"project_duration_min"`
	DurationMax    int    `db:"project_duration_max"`
	IsPresentation bool   `db:"project_is_presentation"`
}

type PathwayProject struct {
	PathID    int    `db:"pathway_project_path_id"`
	ProjectID int    `db:"pathway_project_project_id"`
	Level     int    `db:"pathway_project_level"`
	Code      string `db:"pathway_project_code"`
}

type PathwayProjectWithProject struct {
	PathwayProject
	Project
	Path
}

// DisplayCode returns the project code under its path, e.g. "PM2.1".
func (p PathwayProjectWithProject) DisplayCode() string {
	return p.Path.Abbr + p.PathwayProject.Code
}

type LevelRole struct {
	ID    int           `db:"level_role_id" json:"id"`
	Level int           `db:"level_role_level" json:"level"`
	Role  string        `db:"level_role_role" json:"role"`
	Kind  LevelRoleKind `db:"level_role_kind" json:"kind"`
	Group string        `db:"level_role_group" json:"group,omitempty"`
	Count int           `db:"level_role_count" json:"count"`
}

type Role struct {
	ID             int           `db:"role_id"`
	ClubID         *int          `db:"role_club_id"`
	Name           string        `db:"role_name"`
	Type           RoleType      `db:"role_type"`
	Icon           string        `db:"role_icon"`
	AwardCategory  AwardCategory `db:"role_award_category"`
	NeedsApproval  bool          `db:"role_needs_approval"`
	HasSingleOwner bool          `db:"role_has_single_owner"`
	IsMemberOnly   bool          `db:"role_is_member_only"`
}

type SessionType struct {
	ID              int    `db:"session_type_id"`
	ClubID          *int   `db:"session_type_club_id"`
	Title           string `db:"session_type_title"`
	RoleID          *int   `db:"session_type_role_id"`
	DurationMin     int    `db:"session_type_duration_min"`
	DurationMax     int    `db:"session_type_duration_max"`
	IsSection       bool   `db:"session_type_is_section"`
	IsHidden        bool   `db:"session_type_is_hidden"`
	Predefined      bool   `db:"session_type_predefined"`
	ValidForProject bool   `db:"session_type_valid_for_project"`
}

type Meeting struct {
	ID                  int           `db:"meeting_id"`
	ClubID              int           `db:"meeting_club_id"`
	Number              int           `db:"meeting_number"`
	Date                string        `db:"meeting_date"`
	StartTime           string        `db:"meeting_start_time"`
	Type                string        `db:"meeting_type"`
	GEMode              GEMode        `db:"meeting_ge_mode"`
	Title               string        `db:"meeting_title"`
	Subtitle            string        `db:"meeting_subtitle"`
	WOD                 string        `db:"meeting_wod"`
	Status              MeetingStatus `db:"meeting_status"`
	ManagerID           *int          `db:"meeting_manager_id"`
	ExcommID            *int          `db:"meeting_excomm_id"`
	MediaURL            string        `db:"meeting_media_url"`
	RecommendationScore *float64      `db:"meeting_recommendation_score"`
	BestSpeakerID       *int          `db:"meeting_best_speaker_id"`
	BestEvaluatorID     *int          `db:"meeting_best_evaluator_id"`
	BestRoleTakerID     *int          `db:"meeting_best_role_taker_id"`
	BestTableTopicID    *int          `db:"meeting_best_table_topic_id"`
	CreatedAt           time.Time     `db:"meeting_created_at"`
}

// BestOf returns the stored winner for an award category.
func (m Meeting) BestOf(category AwardCategory) *int {
	switch category {
	case AwardCategorySpeaker:
		return m.BestSpeakerID
	case AwardCategoryEvaluator:
		return m.BestEvaluatorID
	case AwardCategoryRoleTaker:
		return m.BestRoleTakerID
	case AwardCategoryTableTopic:
		return m.BestTableTopicID
	}
	return nil
}

type SessionLog struct {
	ID            int     `db:"session_log_id"`
	MeetingID     int     `db:"session_log_meeting_id"`
	Seq           int     `db:"session_log_seq"`
	SessionTypeID int     `db:"session_log_session_type_id"`
	ProjectID     *int    `db:"session_log_project_id"`
	Title         string  `db:"session_log_title"`
	Credentials   string  `db:"session_log_credentials"`
	DurationMin   int     `db:"session_log_duration_min"`
	DurationMax   int     `db:"session_log_duration_max"`
	StartTime     *string `db:"session_log_start_time"`
	ProjectCode   string  `db:"session_log_project_code"`
	Pathway       string  `db:"session_log_pathway"`
	Status        string  `db:"session_log_status"`
}

type SessionLogWithType struct {
	SessionLog
	SessionType
}

type OwnerMeetingRole struct {
	ID           int       `db:"owner_meeting_role_id"`
	ContactID    int       `db:"owner_meeting_role_contact_id"`
	MeetingID    int       `db:"owner_meeting_role_meeting_id"`
	RoleID       int       `db:"owner_meeting_role_role_id"`
	SessionLogID *int      `db:"owner_meeting_role_session_log_id"`
	Credential   string    `db:"owner_meeting_role_credential"`
	Position     int       `db:"owner_meeting_role_position"`
	CreatedAt    time.Time `db:"owner_meeting_role_created_at"`
}

type OwnerWithContact struct {
	OwnerMeetingRole
	Contact
}

type Waitlist struct {
	ID           int       `db:"waitlist_id"`
	SessionLogID int       `db:"waitlist_session_log_id"`
	ContactID    int       `db:"waitlist_contact_id"`
	CreatedAt    time.Time `db:"waitlist_created_at"`
}

type WaitlistWithContact struct {
	Waitlist
	Contact
}

type Vote struct {
	ID            int            `db:"vote_id"`
	MeetingID     int            `db:"vote_meeting_id"`
	Voter         string         `db:"vote_voter"`
	AwardCategory *AwardCategory `db:"vote_award_category"`
	Question      *string        `db:"vote_question"`
	ContactID     *int           `db:"vote_contact_id"`
	Score         *int           `db:"vote_score"`
	Comment       string         `db:"vote_comment"`
	CreatedAt     time.Time      `db:"vote_created_at"`
}

type RosterEntry struct {
	ID          int       `db:"roster_id"`
	MeetingID   int       `db:"roster_meeting_id"`
	ContactID   int       `db:"roster_contact_id"`
	Ticket      Ticket    `db:"roster_ticket"`
	OrderNumber int       `db:"roster_order_number"`
	CreatedAt   time.Time `db:"roster_created_at"`
}

type RosterEntryWithContact struct {
	RosterEntry
	Contact
}

type RosterRole struct {
	RosterID int `db:"roster_role_roster_id"`
	RoleID   int `db:"roster_role_role_id"`
}

type Achievement struct {
	ID        int             `db:"achievement_id"`
	ContactID int             `db:"achievement_contact_id"`
	Kind      AchievementKind `db:"achievement_kind"`
	PathName  string          `db:"achievement_path_name"`
	Level     int             `db:"achievement_level"`
	IssuedAt  time.Time       `db:"achievement_issued_at"`
}

type Plan struct {
	ID        int        `db:"plan_id"`
	ContactID int        `db:"plan_contact_id"`
	MeetingID int        `db:"plan_meeting_id"`
	RoleID    int        `db:"plan_role_id"`
	ProjectID *int       `db:"plan_project_id"`
	Status    PlanStatus `db:"plan_status"`
	CreatedAt time.Time  `db:"plan_created_at"`
}

type PlanWithMeeting struct {
	Plan
	Meeting
}

type MeetingTemplate struct {
	ClubID    int       `db:"meeting_template_club_id"`
	Type      string    `db:"meeting_template_type"`
	Content   string    `db:"meeting_template_content"`
	UpdatedAt time.Time `db:"meeting_template_updated_at"`
}

// RoleHistoryEntry is one role a contact held in a finished meeting.
type RoleHistoryEntry struct {
	OwnerMeetingRole
	MeetingNumber int           `db:"meeting_number"`
	MeetingDate   string        `db:"meeting_date"`
	RoleName      string        `db:"role_name"`
	AwardCategory AwardCategory `db:"role_award_category"`
}

type RoleCount struct {
	ContactID int    `db:"contact_id"`
	Name      string `db:"contact_name"`
	Count     int    `db:"count"`
}
