// Package authz decides who may read and who may change posts and accounts.
// Every function here is pure: callers pass in everything needed.
package authz

import "github.com/Baaaki/instagallery/internal/models"

// Principal is the identity behind a request. It is either NoPrincipal or
// a UserPrincipal; switch on the concrete type to handle both.
type Principal interface {
	isPrincipal()
}

// NoPrincipal is an anonymous caller, or one whose token failed
// verification for any reason.
type NoPrincipal struct{}

// UserPrincipal is an authenticated caller.
type UserPrincipal struct {
	UserID uint
	Role   models.Role
}

func (NoPrincipal) isPrincipal()   {}
func (UserPrincipal) isPrincipal() {}

// Anonymous returns the principal of an unauthenticated request
func Anonymous() Principal {
	return NoPrincipal{}
}

// User returns an authenticated principal
func User(userID uint, role models.Role) Principal {
	return UserPrincipal{UserID: userID, Role: role}
}

// AsUser returns the authenticated identity, if any
func AsUser(p Principal) (UserPrincipal, bool) {
	u, ok := p.(UserPrincipal)
	return u, ok
}
