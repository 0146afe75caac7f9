package authz

import "github.com/Baaaki/instagallery/internal/models"

// Action names a mutating (or privileged read) operation
type Action int

const (
	ActionUpdatePost Action = iota
	ActionDeletePost
	ActionDeleteAllPosts
	ActionViewProfile
	ActionUpdateProfile
	ActionDeleteAccount
)

func (a Action) String() string {
	switch a {
	case ActionUpdatePost:
		return "update_post"
	case ActionDeletePost:
		return "delete_post"
	case ActionDeleteAllPosts:
		return "delete_all_posts"
	case ActionViewProfile:
		return "view_profile"
	case ActionUpdateProfile:
		return "update_profile"
	case ActionDeleteAccount:
		return "delete_account"
	}
	return "unknown"
}

// Policy holds the configurable parts of the rule table
type Policy struct {
	// AllowSelfDelete lets users delete their own account.
	// Admins may delete any account either way.
	AllowSelfDelete bool
}

// CanView: public posts are visible to everyone, anything else only to its
// owner. FRIENDS_ONLY posts reach followers through the feed, not here.
func CanView(post *models.Post, p Principal) bool {
	return post.Visibility == models.VisibilityPublic || SeesNonPublic(post.UserID, p)
}

// SeesNonPublic reports whether p may see the non-public posts of ownerID.
// Listings use it to decide between all posts and public ones.
func SeesNonPublic(ownerID uint, p Principal) bool {
	switch v := p.(type) {
	case UserPrincipal:
		return v.UserID == ownerID
	case NoPrincipal:
		return false
	}
	return false
}

// CanMutate decides whether p may perform action on a resource owned by
// ownerID. ownerID is ignored for ActionDeleteAllPosts.
func (pol Policy) CanMutate(action Action, ownerID uint, p Principal) bool {
	u, ok := p.(UserPrincipal)
	if !ok {
		return false
	}

	isOwner := u.UserID == ownerID
	isAdmin := u.Role == models.RoleAdmin

	switch action {
	case ActionUpdatePost, ActionDeletePost:
		return isOwner
	case ActionDeleteAllPosts:
		return isAdmin
	case ActionViewProfile, ActionUpdateProfile:
		return isOwner || isAdmin
	case ActionDeleteAccount:
		return isAdmin || (pol.AllowSelfDelete && isOwner)
	}
	return false
}
