package session

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resolved(role Role) State {
	return State{Session: &Session{SubjectID: uuid.New()}, Role: role}
}

func TestDecide_NoSessionRedirectsToLanding(t *testing.T) {
	for _, permitted := range [][]Role{nil, {RoleStudent}, AllRoles} {
		v := Decide(State{}, permitted)
		assert.Equal(t, DecisionRedirect, v.Decision)
		assert.Equal(t, "/", v.Location)
	}
}

func TestDecide_LoadingWaits(t *testing.T) {
	v := Decide(State{Loading: true}, []Role{RoleAdmin})
	assert.Equal(t, Verdict{Decision: DecisionWait}, v)
}

func TestDecide_RoleNoneRedirectsToLanding(t *testing.T) {
	v := Decide(resolved(RoleNone), []Role{RoleStudent})
	assert.Equal(t, Verdict{Decision: DecisionRedirect, Location: "/"}, v)

	v = Decide(resolved(RoleNone), nil)
	assert.Equal(t, DecisionRedirect, v.Decision)
}

func TestDecide_RoleOutsidePermittedRedirectsToOwnDashboard(t *testing.T) {
	v := Decide(resolved(RoleTeacher), []Role{RoleAdmin, RoleSuperAdmin})
	assert.Equal(t, Verdict{Decision: DecisionRedirect, Location: "/dashboard/teacher"}, v)
}

func TestDecide_PermittedRoleAllowed(t *testing.T) {
	for _, role := range AllRoles {
		assert.Equal(t, DecisionAllow, Decide(resolved(role), AllRoles).Decision)
		assert.Equal(t, DecisionAllow, Decide(resolved(role), nil).Decision)
	}
}

func TestGuard_ProfileMissingRedirectsEverywhere(t *testing.T) {
	c := NewContext(newTestResolver(&fakeLookup{roles: map[uuid.UUID]string{}}))
	c.Bootstrap(context.Background(), &Session{SubjectID: uuid.New()})
	state := c.State()

	require.False(t, state.Loading)
	require.Equal(t, RoleNone, state.Role)

	views := DefaultViews()
	for _, view := range views.All() {
		if view.Public {
			continue
		}
		v, err := views.Check(state, view.Path)
		require.NoError(t, err)
		assert.Equal(t, Verdict{Decision: DecisionRedirect, Location: "/"}, v, view.Path)
	}
}

func TestViews_Match(t *testing.T) {
	views := DefaultViews()

	view, ok := views.Match("/erp/edit-user/9b2f")
	require.True(t, ok)
	assert.Equal(t, "/erp/edit-user/:userId", view.Path)

	_, ok = views.Match("/erp/edit-user/")
	assert.False(t, ok)

	view, ok = views.Match("/erp/chat/student/?tab=1")
	require.True(t, ok)
	assert.Equal(t, "/erp/chat/student", view.Path)

	_, ok = views.Match("/erp/unknown")
	assert.False(t, ok)
}

func TestViews_Check(t *testing.T) {
	views := DefaultViews()

	v, err := views.Check(State{}, "/auth/student")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, v.Decision)

	v, err = views.Check(resolved(RoleAdmin), "/erp/manage-users")
	require.NoError(t, err)
	assert.Equal(t, Verdict{Decision: DecisionRedirect, Location: "/dashboard/admin"}, v)

	v, err = views.Check(resolved(RoleStudent), "/erp/od/request")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, v.Decision)

	v, err = views.Check(resolved(RoleSuperAdmin), "/erp/attendance/mark")
	require.NoError(t, err)
	assert.Equal(t, DecisionAllow, v.Decision)

	_, err = views.Check(resolved(RoleSuperAdmin), "/nowhere")
	assert.ErrorIs(t, err, ErrUnknownView)
}

func TestViews_MustPermitted(t *testing.T) {
	views := DefaultViews()
	assert.Equal(t, []Role{RoleAdmin, RoleSuperAdmin}, views.MustPermitted("/erp/attendance/mark"))
	assert.Panics(t, func() { views.MustPermitted("/erp/nope") })
}

func TestMenu(t *testing.T) {
	views := DefaultViews()

	items := views.Menu(resolved(RoleStudent))
	require.Len(t, items, 7)
	assert.Equal(t, "Class Chat", items[6].Name)
	assert.Equal(t, "/erp/chat/student", items[6].Href)
	for _, item := range items {
		assert.Equal(t, DecisionAllow, item.Verdict.Decision, item.Href)
	}

	items = views.Menu(resolved(RoleAdmin))
	require.Len(t, items, 9)
	assert.Equal(t, "Update Fee Status", items[7].Name)
	assert.Equal(t, DecisionRedirect, items[7].Verdict.Decision)
	assert.Equal(t, "/dashboard/admin", items[7].Verdict.Location)

	assert.Len(t, views.Menu(resolved(RoleTeacher)), 8)
	assert.Len(t, views.Menu(resolved(RoleSuperAdmin)), 9)
	assert.Nil(t, views.Menu(resolved(RoleNone)))
	assert.Nil(t, views.Menu(State{Loading: true}))
}
