package database

import (
	"context"
	"fmt"
	"time"
)

func (q *Queries) GetVotes(ctx context.Context, meetingID int) ([]Vote, error) {
	var votes []Vote
	if err := q.sel(ctx, &votes, "SELECT * FROM votes WHERE vote_meeting_id = ? ORDER BY vote_created_at, vote_id", meetingID); err != nil {
		return nil, fmt.Errorf("failed to get votes: %w", err)
	}
	return votes, nil
}

func (q *Queries) GetVoterVotes(ctx context.Context, meetingID int, voter string) ([]Vote, error) {
	var votes []Vote
	if err := q.sel(ctx, &votes, "SELECT * FROM votes WHERE vote_meeting_id = ? AND vote_voter = ? ORDER BY vote_id", meetingID, voter); err != nil {
		return nil, fmt.Errorf("failed to get voter votes: %w", err)
	}
	return votes, nil
}

func (q *Queries) GetAwardVote(ctx context.Context, meetingID int, voter string, category AwardCategory) (*Vote, error) {
	var vote Vote
	if err := q.get(ctx, &vote, "SELECT * FROM votes WHERE vote_meeting_id = ? AND vote_voter = ? AND vote_award_category = ?", meetingID, voter, category); err != nil {
		return nil, fmt.Errorf("failed to get award vote: %w", err)
	}
	return &vote, nil
}

func (q *Queries) InsertVote(ctx context.Context, vote Vote) (int, error) {
	query := `
		INSERT INTO votes (vote_meeting_id, vote_voter, vote_award_category, vote_question, vote_contact_id, vote_score, vote_comment, vote_created_at)
		VALUES (:vote_meeting_id, :vote_voter, :vote_award_category, :vote_question, :vote_contact_id, :vote_score, :vote_comment, :vote_created_at)
		RETURNING vote_id
	`

	if vote.CreatedAt.IsZero() {
		vote.CreatedAt = time.Now().UTC()
	}
	id, err := q.insert(ctx, query, vote)
	if err != nil {
		return 0, fmt.Errorf("failed to insert vote: %w", err)
	}
	return id, nil
}

// UpdateVoteContact changes the nominee of an award ballot and moves it to the end of the ballot order.
func (q *Queries) UpdateVoteContact(ctx context.Context, voteID int, contactID int, createdAt time.Time) error {
	if _, err := q.exec(ctx, "UPDATE votes SET vote_contact_id = ?, vote_created_at = ? WHERE vote_id = ?", contactID, createdAt.UTC(), voteID); err != nil {
		return fmt.Errorf("failed to update vote: %w", err)
	}
	return nil
}

// UpsertQuestionVote overwrites the voter's answer to a question.
func (q *Queries) UpsertQuestionVote(ctx context.Context, vote Vote) error {
	if _, err := q.exec(ctx, "DELETE FROM votes WHERE vote_meeting_id = ? AND vote_voter = ? AND vote_question = ?", vote.MeetingID, vote.Voter, vote.Question); err != nil {
		return fmt.Errorf("failed to clear question vote: %w", err)
	}
	if _, err := q.InsertVote(ctx, vote); err != nil {
		return err
	}
	return nil
}

func (q *Queries) DeleteVote(ctx context.Context, voteID int) error {
	if _, err := q.exec(ctx, "DELETE FROM votes WHERE vote_id = ?", voteID); err != nil {
		return fmt.Errorf("failed to delete vote: %w", err)
	}
	return nil
}
