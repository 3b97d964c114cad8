package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/topi314/clubagenda/server/database"
)

func TestVoter(t *testing.T) {
	userID := 12
	assert.Equal(t, "user_12", Principal{UserID: &userID, VoterToken: "abc"}.Voter())
	assert.Equal(t, "abc", Principal{VoterToken: "abc"}.Voter())
}

func TestCanManage(t *testing.T) {
	managerID := 5
	otherID := 6
	meeting := database.Meeting{ManagerID: &managerID}

	assert.True(t, Principal{ContactID: &managerID}.CanManage(meeting))
	assert.False(t, Principal{ContactID: &otherID}.CanManage(meeting))
	assert.True(t, Principal{Roles: database.UserRoleOfficer}.CanManage(meeting))
	assert.False(t, Principal{Roles: database.UserRoleMember}.CanManage(meeting))
}

func TestPrincipalContext(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Principal{}, GetPrincipal(ctx))

	ctx = SetPrincipal(ctx, Principal{ClubID: 3})
	assert.Equal(t, 3, GetPrincipal(ctx).ClubID)
}
