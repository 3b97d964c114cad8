package auth

import (
	"context"
	"fmt"

	"github.com/topi314/clubagenda/server/database"
)

// Principal is the caller of a request: an optional logged-in user, the club in context and a browser bound voter token.
type Principal struct {
	SessionID  string
	UserID     *int
	ContactID  *int
	ClubID     int
	Roles      database.UserRole
	VoterToken string
}

func (p Principal) IsAuthenticated() bool {
	return p.UserID != nil
}

// IsAdmin reports whether the principal administers the club in context.
func (p Principal) IsAdmin() bool {
	return p.Roles.Has(database.UserRoleAdmin) || p.Roles.Has(database.UserRoleOfficer)
}

func (p Principal) IsMember() bool {
	return p.IsAdmin() || p.Roles.Has(database.UserRoleMember)
}

// CanManage reports whether the principal has admin rights for the meeting.
func (p Principal) CanManage(meeting database.Meeting) bool {
	if p.IsAdmin() {
		return true
	}
	return p.ContactID != nil && meeting.ManagerID != nil && *p.ContactID == *meeting.ManagerID
}

// Voter returns the ballot identity: user_<id> when logged in, the session voter token otherwise.
func (p Principal) Voter() string {
	if p.UserID != nil {
		return fmt.Sprintf("user_%d", *p.UserID)
	}
	return p.VoterToken
}

type principalKey struct{}

var principalContextKey = &principalKey{}

func SetPrincipal(ctx context.Context, principal Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, principal)
}

// GetPrincipal returns the principal of the request or an anonymous one.
func GetPrincipal(ctx context.Context) Principal {
	principal, _ := ctx.Value(principalContextKey).(Principal)
	return principal
}
