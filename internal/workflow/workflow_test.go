package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaiso/tetractl/internal/tetration"
)

// --- Scope ---

func TestScopeRef_Validate(t *testing.T) {
	assert.ErrorIs(t, ScopeRef{}.Validate(), ErrScopeRequired)
	assert.ErrorIs(t, ScopeRef{ID: "a", ShortName: "X"}.Validate(), ErrAmbiguousScope)
	assert.NoError(t, ScopeRef{ID: "a"}.Validate())
	assert.NoError(t, ScopeRef{ShortName: "X"}.Validate())
}

func TestFindScopeID(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "a", ShortName: "X"}, {ID: "b", ShortName: "Y"}}
	svc := newTestService(api)
	ctx := context.Background()

	id, found, err := svc.FindScopeID(ctx, ScopeRef{ShortName: "Y"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "b", id)

	id, found, err = svc.FindScopeID(ctx, ScopeRef{ShortName: "Z"})
	require.NoError(t, err)
	assert.False(t, found)
	assert.Empty(t, id)

	// ID используется как есть, без запроса списка.
	api.failures["ListScopes"] = errors.New("must not be called")
	id, found, err = svc.FindScopeID(ctx, ScopeRef{ID: "unknown"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "unknown", id)
}

func TestFindScopeID_FirstMatchWins(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "first", ShortName: "Dup"}, {ID: "second", ShortName: "Dup"}}

	id, _, err := newTestService(api).FindScopeID(context.Background(), ScopeRef{ShortName: "Dup"})
	require.NoError(t, err)
	assert.Equal(t, "first", id)
}

func TestFindScopeID_ListFailure(t *testing.T) {
	api := newFakeAPI()
	api.failures["ListScopes"] = apiError(http.StatusInternalServerError)

	_, found, err := newTestService(api).FindScopeID(context.Background(), ScopeRef{ShortName: "X"})
	assert.Error(t, err)
	assert.False(t, found)
}

func TestGetScope(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "a", ShortName: "X"}}
	api.raw["/app_scopes/a"] = json.RawMessage(`{"id":"a"}`)
	svc := newTestService(api)

	raw, found, err := svc.GetScope(context.Background(), ScopeRef{ShortName: "X"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.JSONEq(t, `{"id":"a"}`, string(raw))

	_, found, err = svc.GetScope(context.Background(), ScopeRef{ID: "gone"})
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateScope_CreatesAndCommitsDirtyParent(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "root", ShortName: "Default"}}
	api.dirtyAfterCreation = true
	svc := newTestService(api)

	spec := ScopeSpec{ShortName: "Web", QueryField: "host_name", QueryType: "contains", QueryValue: "web", ParentShortName: "Default"}
	res, err := svc.CreateScope(context.Background(), spec)
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, "root", res.ParentID)
	assert.True(t, res.Committed)
	assert.Equal(t, 1, api.createScopeCalls)
	assert.Equal(t, []string{"root"}, api.commitCalls)
}

func TestCreateScope_CommitsEvenWhenCreationSkipped(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{
		{ID: "root", ShortName: "Default", Dirty: true},
		{ID: "web", ShortName: "Web", ParentID: "root"},
	}
	svc := newTestService(api)

	res, err := svc.CreateScope(context.Background(), ScopeSpec{ShortName: "Web", QueryField: "f", QueryType: "eq", ParentShortName: "Default"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeExists, res.Outcome)
	assert.Equal(t, "web", res.ScopeID)
	assert.Equal(t, 0, api.createScopeCalls)
	assert.Equal(t, []string{"root"}, api.commitCalls, "commit must run exactly once, scoped to the parent")
}

func TestCreateScope_CleanParentNotCommitted(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "root", ShortName: "Default"}}
	svc := newTestService(api)

	res, err := svc.CreateScope(context.Background(), ScopeSpec{ShortName: "Web", QueryField: "f", QueryType: "eq", ParentShortName: "Default"})
	require.NoError(t, err)
	assert.False(t, res.Committed)
	assert.Empty(t, api.commitCalls)
}

func TestCreateScope_ParentNotFound(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(api)

	res, err := svc.CreateScope(context.Background(), ScopeSpec{ShortName: "Web", QueryField: "f", QueryType: "eq", ParentShortName: "Nope"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeParentNotFound, res.Outcome)
	assert.Equal(t, 0, api.createScopeCalls)
	assert.Empty(t, api.commitCalls)
}

func TestCreateScope_CreateRejected(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "root", ShortName: "Default", Dirty: true}}
	api.failures["CreateScope"] = apiError(http.StatusBadRequest)

	res, err := newTestService(api).CreateScope(context.Background(), ScopeSpec{ShortName: "Web", QueryField: "f", QueryType: "eq", ParentShortName: "Default"})
	require.Error(t, err)
	assert.Equal(t, OutcomeFailed, res.Outcome)
	assert.Empty(t, api.commitCalls, "dependent steps are skipped after a rejected create")
}

func TestScopeSpec_Validate(t *testing.T) {
	assert.ErrorIs(t, ScopeSpec{}.Validate(), ErrMissingField)
	assert.ErrorIs(t, ScopeSpec{ShortName: "a", ParentShortName: "b"}.Validate(), ErrMissingField)
	assert.NoError(t, ScopeSpec{ShortName: "a", ParentShortName: "b", QueryField: "f", QueryType: "eq"}.Validate())
}

// --- Application ---

func TestFindApplication_MatchesNameAndScope(t *testing.T) {
	api := newFakeAPI()
	api.apps = []tetration.Application{
		{ID: "1", Name: "Billing", ScopeID: "other"},
		{ID: "2", Name: "Billing", ScopeID: "s"},
	}

	app, found, err := newTestService(api).FindApplication(context.Background(), "Billing", "s")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "2", app.ID)

	_, found, err = newTestService(api).FindApplication(context.Background(), "Billing", "none")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCreateApplication_Idempotent(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "s1", ShortName: "Demo"}}
	svc := newTestService(api)
	in := CreateApplicationInput{Name: "Test App", Scope: ScopeRef{ShortName: "Demo"}}

	first, err := svc.CreateApplication(context.Background(), in)
	require.NoError(t, err)
	second, err := svc.CreateApplication(context.Background(), in)
	require.NoError(t, err)

	assert.Equal(t, 1, api.createAppCalls)
	assert.Equal(t, OutcomeCreated, first.Outcome)
	assert.Equal(t, OutcomeExists, second.Outcome)
	assert.Equal(t, first.ApplicationID, second.ApplicationID)
	assert.JSONEq(t, string(first.Details), string(second.Details))
}

func TestCreateApplication_DefaultsAndPrimary(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(api)

	res, err := svc.CreateApplication(context.Background(), CreateApplicationInput{Name: "A", Scope: ScopeRef{ID: "s9"}, Primary: true})
	require.NoError(t, err)
	assert.Equal(t, "s9", res.ScopeID)
	require.Len(t, api.apps, 1)
	assert.Equal(t, "", api.apps[0].Description)
	assert.True(t, api.apps[0].Primary)
}

func TestCreateApplication_ScopeNotFound(t *testing.T) {
	api := newFakeAPI()

	res, err := newTestService(api).CreateApplication(context.Background(), CreateApplicationInput{Name: "A", Scope: ScopeRef{ShortName: "Missing"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeScopeNotFound, res.Outcome)
	assert.Equal(t, 0, api.createAppCalls)
}

func TestCreateApplication_Preconditions(t *testing.T) {
	svc := newTestService(newFakeAPI())

	_, err := svc.CreateApplication(context.Background(), CreateApplicationInput{Scope: ScopeRef{ID: "s"}})
	assert.ErrorIs(t, err, ErrMissingField)

	_, err = svc.CreateApplication(context.Background(), CreateApplicationInput{Name: "A", Scope: ScopeRef{ID: "s", ShortName: "x"}})
	assert.ErrorIs(t, err, ErrAmbiguousScope)
}

func TestGetApplication(t *testing.T) {
	api := newFakeAPI()
	api.apps = []tetration.Application{{ID: "a1", Name: "Billing", ScopeID: "s"}}
	svc := newTestService(api)

	res, err := svc.GetApplication(context.Background(), ApplicationLookup{Name: "Billing", Scope: ScopeRef{ID: "s"}})
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.Equal(t, "a1", res.ApplicationID)

	res, err = svc.GetApplication(context.Background(), ApplicationLookup{ID: "zzz"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)

	_, err = svc.GetApplication(context.Background(), ApplicationLookup{Name: "Billing"})
	assert.ErrorIs(t, err, ErrScopeRequired)
}

func TestGetApplicationClusters(t *testing.T) {
	api := newFakeAPI()
	api.details["with"] = json.RawMessage(`{"id":"with","clusters":[{"name":"c1"}]}`)
	api.details["without"] = json.RawMessage(`{"id":"without"}`)
	svc := newTestService(api)

	res, err := svc.GetApplicationClusters(context.Background(), "with")
	require.NoError(t, err)
	assert.Equal(t, OutcomeFound, res.Outcome)
	assert.JSONEq(t, `[{"name":"c1"}]`, string(res.Clusters))

	res, err = svc.GetApplicationClusters(context.Background(), "without")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNoClusters, res.Outcome)
}

func TestDeleteApplication(t *testing.T) {
	api := newFakeAPI()
	api.apps = []tetration.Application{{ID: "a1", Name: "Billing"}}
	svc := newTestService(api)

	res, err := svc.DeleteApplication(context.Background(), "nope")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)
	assert.Empty(t, api.deleteAppCalls)

	res, err = svc.DeleteApplication(context.Background(), "a1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, res.Outcome)
	assert.Equal(t, []string{"a1"}, api.deleteAppCalls)
}

// --- Users and roles ---

func TestFindUser_EmailCaseInsensitive(t *testing.T) {
	api := newFakeAPI()
	api.users = []tetration.User{{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "User@Example.com"}}
	svc := newTestService(api)

	user, found, err := svc.FindUser(context.Background(), UserKey{FirstName: "Ada", LastName: "Lovelace", Email: "user@example.com"})
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "u1", user.ID)

	_, found, err = svc.FindUser(context.Background(), UserKey{FirstName: "ada", LastName: "Lovelace", Email: "user@example.com"})
	require.NoError(t, err)
	assert.False(t, found, "names are matched exactly")
}

func newRoleFixture() *fakeAPI {
	api := newFakeAPI()
	api.users = []tetration.User{{ID: "u1", FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}}
	api.roles = []tetration.Role{{ID: "r1", Name: "Ops"}, {ID: "r2", Name: "Dev"}}
	return api
}

var ada = UserKey{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com"}

func TestAssignRole_Idempotent(t *testing.T) {
	api := newRoleFixture()
	svc := newTestService(api)

	first, err := svc.AssignRole(context.Background(), ada, "Ops")
	require.NoError(t, err)
	second, err := svc.AssignRole(context.Background(), ada, "Ops")
	require.NoError(t, err)

	assert.Equal(t, OutcomeAssigned, first.Outcome)
	assert.Equal(t, OutcomeAlreadyAssigned, second.Outcome)
	assert.Equal(t, []string{"u1/r1"}, api.addRoleCalls)
}

func TestAssignRole_BadRequestIsAlreadyAssigned(t *testing.T) {
	api := newRoleFixture()
	api.failures["AddUserRole"] = apiError(http.StatusBadRequest)

	res, err := newTestService(api).AssignRole(context.Background(), ada, "Ops")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyAssigned, res.Outcome)
}

func TestAssignRole_NotFound(t *testing.T) {
	api := newRoleFixture()
	svc := newTestService(api)

	res, err := svc.AssignRole(context.Background(), ada, "Missing")
	require.NoError(t, err)
	assert.Equal(t, OutcomeRoleNotFound, res.Outcome)

	res, err = svc.AssignRole(context.Background(), UserKey{FirstName: "No", LastName: "Body", Email: "x@y"}, "Ops")
	require.NoError(t, err)
	assert.Equal(t, OutcomeUserNotFound, res.Outcome)
	assert.Empty(t, api.addRoleCalls)
}

func TestUnassignRole_Idempotent(t *testing.T) {
	api := newRoleFixture()
	api.users[0].RoleIDs = []string{"r1"}
	svc := newTestService(api)

	first, err := svc.UnassignRole(context.Background(), ada, "Ops")
	require.NoError(t, err)
	second, err := svc.UnassignRole(context.Background(), ada, "Ops")
	require.NoError(t, err)

	assert.Equal(t, OutcomeRemoved, first.Outcome)
	assert.Equal(t, OutcomeNotAssigned, second.Outcome)
	assert.Equal(t, []string{"u1/r1"}, api.removeRoleCalls)
}

func TestListRoleIDs(t *testing.T) {
	ids, err := newTestService(newRoleFixture()).ListRoleIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"r1", "r2"}, ids)
}

func TestAddUser_CreatesAndAssignsRoles(t *testing.T) {
	api := newRoleFixture()
	api.users = nil
	svc := newTestService(api)

	res, err := svc.AddUser(context.Background(), UserKey{FirstName: "Grace", LastName: "Hopper", Email: "Grace@Navy.mil"}, []string{"Ops", " Dev ", "", "Missing"})
	require.NoError(t, err)

	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, 1, api.createUserCalls)
	require.Len(t, res.Roles, 3)
	assert.Equal(t, OutcomeAssigned, res.Roles[0].Outcome)
	assert.Equal(t, OutcomeAssigned, res.Roles[1].Outcome)
	assert.Equal(t, OutcomeRoleNotFound, res.Roles[2].Outcome)
	assert.Len(t, api.addRoleCalls, 2)

	again, err := svc.AddUser(context.Background(), UserKey{FirstName: "Grace", LastName: "Hopper", Email: "grace@navy.mil"}, []string{"Ops"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeExists, again.Outcome)
	assert.Equal(t, OutcomeAlreadyAssigned, again.Roles[0].Outcome)
	assert.Equal(t, 1, api.createUserCalls)
}

func TestAddUser_RoleFailureIsPartial(t *testing.T) {
	api := newRoleFixture()
	api.failures["AddUserRole"] = apiError(http.StatusInternalServerError)

	res, err := newTestService(api).AddUser(context.Background(), ada, []string{"Ops"})
	require.ErrorIs(t, err, ErrPartialFailure)
	assert.Equal(t, OutcomeExists, res.Outcome)
	assert.Equal(t, OutcomeFailed, res.Roles[0].Outcome)
	assert.NotEmpty(t, res.Roles[0].Error)
}

func TestDeleteUser(t *testing.T) {
	api := newRoleFixture()
	svc := newTestService(api)

	res, err := svc.DeleteUser(context.Background(), UserKey{FirstName: "No", LastName: "Body", Email: "x@y"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)

	res, err = svc.DeleteUser(context.Background(), ada)
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, res.Outcome)
	assert.Equal(t, []string{"u1"}, api.deleteUserCalls)
}

func TestAddRole_WithCapability(t *testing.T) {
	api := newFakeAPI()
	api.scopes = []tetration.Scope{{ID: "s1", ShortName: "Demo"}}
	svc := newTestService(api)

	res, err := svc.AddRole(context.Background(), RoleSpec{Name: "Viewers", ScopeShortName: "Demo", Ability: "SCOPE_READ"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeCreated, res.Outcome)
	assert.Equal(t, OutcomeGranted, res.Capability)
	require.Len(t, api.roles, 1)
	assert.Equal(t, "Viewers", api.roles[0].Description, "description defaults to the name")
	assert.Equal(t, []tetration.Capability{{ScopeID: "s1", Ability: "SCOPE_READ"}}, api.capabilityCalls)

	api.failures["AddRoleCapability"] = apiError(http.StatusBadRequest)
	res, err = svc.AddRole(context.Background(), RoleSpec{Name: "Viewers", ScopeShortName: "Demo", Ability: "SCOPE_READ"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeExists, res.Outcome)
	assert.Equal(t, OutcomeAlreadyGranted, res.Capability)
	assert.Equal(t, 1, api.createRoleCalls)
}

func TestAddRole_CapabilitySkipped(t *testing.T) {
	api := newFakeAPI()
	svc := newTestService(api)

	res, err := svc.AddRole(context.Background(), RoleSpec{Name: "R", ScopeShortName: "Missing", Ability: "SCOPE_READ"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeScopeNotFound, res.Capability)

	api.scopes = []tetration.Scope{{ID: "s1", ShortName: "Demo"}}
	res, err = svc.AddRole(context.Background(), RoleSpec{Name: "R", ScopeShortName: "Demo"})
	require.NoError(t, err)
	assert.Equal(t, OutcomeSkipped, res.Capability)
	assert.Empty(t, api.capabilityCalls)
}

// --- Sensors ---

func sensorFixture() *fakeAPI {
	api := newFakeAPI()
	api.sensors = []tetration.Sensor{
		{UUID: "u1", HostName: "server001", Interfaces: []tetration.Interface{
			{IP: "10.0.0.5", FamilyType: "IPV4"},
			{IP: "127.0.0.1", FamilyType: "IPV4"},
			{IP: "fe80::1", FamilyType: "IPV6"},
		}},
		{UUID: "u2", HostName: "server001", Interfaces: []tetration.Interface{
			{IP: "10.0.0.6", FamilyType: "IPV4"},
			{IP: "10.0.0.5", FamilyType: "IPV4"},
		}},
		{UUID: "old", HostName: "server001", DeletedAt: json.RawMessage(`1700000000`), Interfaces: []tetration.Interface{
			{IP: "10.0.0.9", FamilyType: "IPV4"},
		}},
		{UUID: "x", HostName: "server002"},
	}
	return api
}

func TestDeleteSensor_IPMismatchDeletesNothing(t *testing.T) {
	api := sensorFixture()

	res, err := newTestService(api).DeleteSensor(context.Background(), "server001", "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIPMismatch, res.Outcome)
	assert.Empty(t, api.deleteSensorCalls)
}

func TestDeleteSensor_DeletesEveryUUID(t *testing.T) {
	api := sensorFixture()

	res, err := newTestService(api).DeleteSensor(context.Background(), "server001", "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, OutcomeDeleted, res.Outcome)
	assert.Equal(t, []string{"10.0.0.5", "10.0.0.6"}, res.IPs)
	assert.Equal(t, []string{"u1", "u2"}, api.deleteSensorCalls)
}

func TestDeleteSensor_PartialFailurePerUUID(t *testing.T) {
	api := sensorFixture()
	api.failures["DeleteSensor:u2"] = apiError(http.StatusInternalServerError)

	res, err := newTestService(api).DeleteSensor(context.Background(), "server001", "10.0.0.6")
	require.ErrorIs(t, err, ErrPartialFailure)
	assert.Equal(t, OutcomePartial, res.Outcome)
	require.Len(t, res.Deletions, 2)
	assert.True(t, res.Deletions[0].Deleted)
	assert.False(t, res.Deletions[1].Deleted)
	assert.NotEmpty(t, res.Deletions[1].Error)
}

func TestDeleteSensor_NotFoundAndAlreadyDeleted(t *testing.T) {
	api := sensorFixture()
	svc := newTestService(api)

	res, err := svc.DeleteSensor(context.Background(), "server404", "10.0.0.5")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotFound, res.Outcome)

	api.sensors = api.sensors[2:3]
	res, err = svc.DeleteSensor(context.Background(), "server001", "10.0.0.9")
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyDeleted, res.Outcome)
	assert.Empty(t, api.deleteSensorCalls)
}

func TestFindSensors(t *testing.T) {
	sensors, err := newTestService(sensorFixture()).FindSensors(context.Background(), "server001")
	require.NoError(t, err)
	assert.Len(t, sensors, 3)
}

// --- Listings ---

func TestInventoryFilters_FilterByScope(t *testing.T) {
	api := newFakeAPI()
	api.raw["/filters/inventories"] = json.RawMessage(`[{"id":"f1","app_scope_id":"s1"},{"id":"f2","app_scope_id":"s2"}]`)
	svc := newTestService(api)

	all, err := svc.InventoryFilters(context.Background(), "")
	require.NoError(t, err)
	assert.JSONEq(t, string(api.raw["/filters/inventories"]), string(all))

	one, err := svc.InventoryFilters(context.Background(), "s2")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"f2","app_scope_id":"s2"}]`, string(one))
}

func TestList_WrapsError(t *testing.T) {
	_, err := newTestService(newFakeAPI()).List(context.Background(), ListingSwitches)
	assert.ErrorIs(t, err, tetration.ErrNotFound)
}
