// Package planner records the roles members intend to take in upcoming meetings.
package planner

import (
	"context"
	"time"

	"github.com/topi314/clubagenda/server/apperr"
	"github.com/topi314/clubagenda/server/auth"
	"github.com/topi314/clubagenda/server/database"
)

type Params struct {
	MeetingNumber int  `json:"meeting_number" validate:"required,gt=0"`
	RoleID        int  `json:"role_id" validate:"required,gt=0"`
	ProjectID     *int `json:"project_id"`
}

func New(db *database.Database) *Service {
	return &Service{db: db}
}

type Service struct {
	db *database.Database
}

func contactOf(principal auth.Principal) (int, error) {
	if !principal.IsAuthenticated() {
		return 0, apperr.New(apperr.KindUnauthorized, "login required")
	}
	if principal.ContactID == nil {
		return 0, apperr.Forbidden("your account is not linked to a contact in this club")
	}
	return *principal.ContactID, nil
}

func (s *Service) List(ctx context.Context, principal auth.Principal) ([]database.PlanWithMeeting, error) {
	contactID, err := contactOf(principal)
	if err != nil {
		return nil, err
	}
	return s.db.GetPlans(ctx, contactID)
}

// Save plans a role in a meeting that has not finished yet. A role the contact already holds is recorded as booked.
func (s *Service) Save(ctx context.Context, principal auth.Principal, params Params) (int, error) {
	contactID, err := contactOf(principal)
	if err != nil {
		return 0, err
	}

	var planID int
	err = s.db.Tx(ctx, func(q *database.Queries) error {
		meeting, err := q.GetMeetingByNumber(ctx, principal.ClubID, params.MeetingNumber)
		if err != nil {
			return apperr.NotFoundOr(err, "meeting %d not found", params.MeetingNumber)
		}
		if meeting.Status == database.MeetingStatusFinished {
			return apperr.PreconditionFailed("meeting %d is already finished", meeting.Number).With("status", meeting.Status)
		}

		role, err := q.GetRole(ctx, params.RoleID)
		if err != nil {
			return apperr.NotFoundOr(err, "role %d not found", params.RoleID)
		}
		if role.ClubID != nil && *role.ClubID != principal.ClubID {
			return apperr.NotFound("role %d not found", params.RoleID)
		}

		if params.ProjectID != nil {
			projects, err := q.GetProjectsByIDs(ctx, []int{*params.ProjectID})
			if err != nil {
				return err
			}
			if _, ok := projects[*params.ProjectID]; !ok {
				return apperr.NotFound("project %d not found", *params.ProjectID)
			}
		}

		status := database.PlanStatusPlanned
		held, err := q.GetContactMeetingRoles(ctx, meeting.ID, contactID)
		if err != nil {
			return err
		}
		for _, owner := range held {
			if owner.RoleID == role.ID {
				status = database.PlanStatusBooked
			}
		}

		planID, err = q.UpsertPlan(ctx, database.Plan{
			ContactID: contactID,
			MeetingID: meeting.ID,
			RoleID:    role.ID,
			ProjectID: params.ProjectID,
			Status:    database.PlanStatusPlanned,
			CreatedAt: time.Now().UTC(),
		})
		if err != nil {
			return err
		}
		return q.UpdatePlanStatus(ctx, contactID, meeting.ID, role.ID, status)
	})
	return planID, err
}

func (s *Service) Delete(ctx context.Context, principal auth.Principal, planID int) error {
	contactID, err := contactOf(principal)
	if err != nil {
		return err
	}

	plan, err := s.db.GetPlan(ctx, planID)
	if err != nil {
		return apperr.NotFoundOr(err, "plan %d not found", planID)
	}
	if plan.ContactID != contactID {
		return apperr.NotFound("plan %d not found", planID)
	}
	return s.db.DeletePlan(ctx, contactID, planID)
}
