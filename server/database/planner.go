package database

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) GetPlans(ctx context.Context, contactID int) ([]PlanWithMeeting, error) {
	query := `
		SELECT planner_plans.*, meetings.*
		FROM planner_plans
		JOIN meetings ON planner_plans.plan_meeting_id = meetings.meeting_id
		WHERE planner_plans.plan_contact_id = ?
		ORDER BY meetings.meeting_date, meetings.meeting_number, planner_plans.plan_id
	`

	var plans []PlanWithMeeting
	if err := q.sel(ctx, &plans, query, contactID); err != nil {
		return nil, fmt.Errorf("failed to get plans: %w", err)
	}
	return plans, nil
}

func (q *Queries) GetPlan(ctx context.Context, planID int) (*Plan, error) {
	var plan Plan
	if err := q.get(ctx, &plan, "SELECT * FROM planner_plans WHERE plan_id = ?", planID); err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	return &plan, nil
}

// UpsertPlan records or replaces the contact's plan for a role in a meeting.
func (q *Queries) UpsertPlan(ctx context.Context, plan Plan) (int, error) {
	query := `
		INSERT INTO planner_plans (plan_contact_id, plan_meeting_id, plan_role_id, plan_project_id, plan_status, plan_created_at)
		VALUES (:plan_contact_id, :plan_meeting_id, :plan_role_id, :plan_project_id, :plan_status, :plan_created_at)
		ON CONFLICT (plan_contact_id, plan_meeting_id, plan_role_id) DO UPDATE SET plan_project_id = excluded.plan_project_id
		RETURNING plan_id
	`

	if plan.CreatedAt.IsZero() {
		plan.CreatedAt = time.Now().UTC()
	}
	id, err := q.insert(ctx, query, plan)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert plan: %w", err)
	}
	return id, nil
}

// UpdatePlanStatus moves the matching plan, if any, to the given status.
func (q *Queries) UpdatePlanStatus(ctx context.Context, contactID int, meetingID int, roleID int, status PlanStatus) error {
	query := "UPDATE planner_plans SET plan_status = ? WHERE plan_contact_id = ? AND plan_meeting_id = ? AND plan_role_id = ?"
	if _, err := q.exec(ctx, query, status, contactID, meetingID, roleID); err != nil {
		return fmt.Errorf("failed to update plan status: %w", err)
	}
	return nil
}

func (q *Queries) DeletePlan(ctx context.Context, contactID int, planID int) error {
	if _, err := q.exec(ctx, "DELETE FROM planner_plans WHERE plan_id = ? AND plan_contact_id = ?", planID, contactID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}
	return nil
}
