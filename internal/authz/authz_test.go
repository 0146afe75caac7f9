package authz

import (
	"testing"

	"github.com/Baaaki/instagallery/internal/models"
	"github.com/stretchr/testify/assert"
)

var allVisibilities = []models.Visibility{
	models.VisibilityPublic,
	models.VisibilityPrivate,
	models.VisibilityFriendsOnly,
}

func TestCanView_PublicVisibleToEveryone(t *testing.T) {
	post := &models.Post{ID: 10, UserID: 1, Visibility: models.VisibilityPublic}

	assert.True(t, CanView(post, Anonymous()))
	assert.True(t, CanView(post, User(1, models.RoleUser)))
	assert.True(t, CanView(post, User(2, models.RoleUser)))
	assert.True(t, CanView(post, User(3, models.RoleAdmin)))
}

func TestCanView_NonPublicHiddenFromOthers(t *testing.T) {
	for _, v := range []models.Visibility{models.VisibilityPrivate, models.VisibilityFriendsOnly} {
		t.Run(string(v), func(t *testing.T) {
			post := &models.Post{ID: 11, UserID: 2, Visibility: v}

			assert.False(t, CanView(post, Anonymous()))
			assert.False(t, CanView(post, User(1, models.RoleUser)))
			// Admin role grants no read access to private content
			assert.False(t, CanView(post, User(1, models.RoleAdmin)))
		})
	}
}

func TestCanView_OwnerAlwaysSeesOwnPost(t *testing.T) {
	for _, v := range allVisibilities {
		post := &models.Post{UserID: 7, Visibility: v}
		assert.True(t, CanView(post, User(7, models.RoleUser)), string(v))
	}
}

func TestSeesNonPublic_AgreesWithCanView(t *testing.T) {
	principals := []Principal{
		Anonymous(),
		User(7, models.RoleUser),
		User(8, models.RoleUser),
		User(9, models.RoleAdmin),
	}
	for _, p := range principals {
		for _, v := range allVisibilities {
			post := &models.Post{UserID: 7, Visibility: v}
			want := v == models.VisibilityPublic || SeesNonPublic(7, p)
			assert.Equal(t, want, CanView(post, p), "%v %s", p, v)
		}
	}

	assert.True(t, SeesNonPublic(7, User(7, models.RoleUser)))
	assert.False(t, SeesNonPublic(7, User(9, models.RoleAdmin)))
	assert.False(t, SeesNonPublic(7, Anonymous()))
}

func TestCanView_Scenario(t *testing.T) {
	// user A (id=1) owns public post 10; user B (id=2) owns private post 11
	post10 := &models.Post{ID: 10, UserID: 1, Visibility: models.VisibilityPublic}
	post11 := &models.Post{ID: 11, UserID: 2, Visibility: models.VisibilityPrivate}
	a := User(1, models.RoleUser)

	assert.True(t, CanView(post10, a))
	assert.False(t, CanView(post11, a))
	assert.True(t, CanView(post11, User(2, models.RoleUser)))
}

func TestCanMutate_Table(t *testing.T) {
	owner := User(1, models.RoleUser)
	other := User(2, models.RoleUser)
	admin := User(99, models.RoleAdmin)
	anon := Anonymous()

	testCases := []struct {
		action Action
		p      Principal
		want   bool
	}{
		{ActionUpdatePost, owner, true},
		{ActionUpdatePost, other, false},
		{ActionUpdatePost, admin, false},
		{ActionUpdatePost, anon, false},

		{ActionDeletePost, owner, true},
		{ActionDeletePost, other, false},
		{ActionDeletePost, admin, false},

		{ActionDeleteAllPosts, owner, false},
		{ActionDeleteAllPosts, admin, true},
		{ActionDeleteAllPosts, anon, false},

		{ActionViewProfile, owner, true},
		{ActionViewProfile, other, false},
		{ActionViewProfile, admin, true},

		{ActionUpdateProfile, owner, true},
		{ActionUpdateProfile, other, false},
		{ActionUpdateProfile, admin, true},
		{ActionUpdateProfile, anon, false},

		{ActionDeleteAccount, owner, false},
		{ActionDeleteAccount, other, false},
		{ActionDeleteAccount, admin, true},
	}

	pol := Policy{}
	for _, tc := range testCases {
		name := tc.action.String()
		assert.Equal(t, tc.want, pol.CanMutate(tc.action, 1, tc.p), name)
	}
}

func TestCanMutate_SelfDeleteOption(t *testing.T) {
	pol := Policy{AllowSelfDelete: true}

	assert.True(t, pol.CanMutate(ActionDeleteAccount, 1, User(1, models.RoleUser)))
	assert.False(t, pol.CanMutate(ActionDeleteAccount, 1, User(2, models.RoleUser)))
	assert.True(t, pol.CanMutate(ActionDeleteAccount, 1, User(3, models.RoleAdmin)))
	assert.False(t, pol.CanMutate(ActionDeleteAccount, 1, Anonymous()))
}

func TestCanMutate_UnknownAction(t *testing.T) {
	assert.False(t, Policy{}.CanMutate(Action(100), 1, User(1, models.RoleAdmin)))
	assert.Equal(t, "unknown", Action(100).String())
}

func TestAsUser(t *testing.T) {
	u, ok := AsUser(User(5, models.RoleAdmin))
	assert.True(t, ok)
	assert.Equal(t, uint(5), u.UserID)

	_, ok = AsUser(Anonymous())
	assert.False(t, ok)
}
