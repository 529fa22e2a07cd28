package workflow

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/shaiso/tetractl/internal/tetration"
)

// fakeAPI — API в памяти с подсчётом мутирующих вызовов.
type fakeAPI struct {
	scopes   []tetration.Scope
	apps     []tetration.Application
	users    []tetration.User
	roles    []tetration.Role
	sensors  []tetration.Sensor
	raw      map[string]json.RawMessage
	details  map[string]json.RawMessage
	failures map[string]error // ключ — имя метода

	nextID int

	createScopeCalls   int
	commitCalls        []string
	createAppCalls     int
	deleteAppCalls     []string
	createUserCalls    int
	deleteUserCalls    []string
	addRoleCalls       []string
	removeRoleCalls    []string
	createRoleCalls    int
	capabilityCalls    []tetration.Capability
	deleteSensorCalls  []string
	dirtyAfterCreation bool
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		raw:      map[string]json.RawMessage{},
		details:  map[string]json.RawMessage{},
		failures: map[string]error{},
	}
}

func newTestService(api API) *Service {
	return NewService(api, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func (f *fakeAPI) id(prefix string) string {
	f.nextID++
	return fmt.Sprintf("%s-%d", prefix, f.nextID)
}

func (f *fakeAPI) fail(method string) error {
	return f.failures[method]
}

func apiError(status int) error {
	return &tetration.APIError{Method: "X", Path: "/x", StatusCode: status}
}

func (f *fakeAPI) ListScopes(context.Context) ([]tetration.Scope, error) {
	if err := f.fail("ListScopes"); err != nil {
		return nil, err
	}
	return append([]tetration.Scope(nil), f.scopes...), nil
}

func (f *fakeAPI) GetScope(_ context.Context, id string) (*tetration.Scope, error) {
	if err := f.fail("GetScope"); err != nil {
		return nil, err
	}
	for _, s := range f.scopes {
		if s.ID == id {
			scope := s
			return &scope, nil
		}
	}
	return nil, apiError(http.StatusNotFound)
}

func (f *fakeAPI) CreateScope(_ context.Context, req tetration.CreateScopeRequest) (*tetration.Scope, error) {
	f.createScopeCalls++
	if err := f.fail("CreateScope"); err != nil {
		return nil, err
	}
	scope := tetration.Scope{ID: f.id("scope"), ShortName: req.ShortName, ParentID: req.ParentID}
	f.scopes = append(f.scopes, scope)
	if f.dirtyAfterCreation {
		for i := range f.scopes {
			if f.scopes[i].ID == req.ParentID {
				f.scopes[i].Dirty = true
			}
		}
	}
	return &scope, nil
}

func (f *fakeAPI) CommitDirty(_ context.Context, rootID string) error {
	f.commitCalls = append(f.commitCalls, rootID)
	if err := f.fail("CommitDirty"); err != nil {
		return err
	}
	for i := range f.scopes {
		if f.scopes[i].ID == rootID {
			f.scopes[i].Dirty = false
		}
	}
	return nil
}

func (f *fakeAPI) ListApplications(context.Context) ([]tetration.Application, error) {
	if err := f.fail("ListApplications"); err != nil {
		return nil, err
	}
	return append([]tetration.Application(nil), f.apps...), nil
}

func (f *fakeAPI) GetApplicationDetails(_ context.Context, id string) (json.RawMessage, error) {
	if err := f.fail("GetApplicationDetails"); err != nil {
		return nil, err
	}
	if d, ok := f.details[id]; ok {
		return d, nil
	}
	for _, app := range f.apps {
		if app.ID == id {
			return json.Marshal(map[string]any{"id": app.ID, "name": app.Name, "app_scope_id": app.ScopeID})
		}
	}
	return nil, apiError(http.StatusNotFound)
}

func (f *fakeAPI) CreateApplication(_ context.Context, req tetration.CreateApplicationRequest) (*tetration.Application, error) {
	f.createAppCalls++
	if err := f.fail("CreateApplication"); err != nil {
		return nil, err
	}
	app := tetration.Application{ID: f.id("app"), Name: req.Name, ScopeID: req.ScopeID, Description: req.Description, Primary: req.Primary}
	f.apps = append(f.apps, app)
	return &app, nil
}

func (f *fakeAPI) DeleteApplication(_ context.Context, id string) error {
	f.deleteAppCalls = append(f.deleteAppCalls, id)
	return f.fail("DeleteApplication")
}

func (f *fakeAPI) ListUsers(context.Context) ([]tetration.User, error) {
	if err := f.fail("ListUsers"); err != nil {
		return nil, err
	}
	out := make([]tetration.User, len(f.users))
	for i, u := range f.users {
		u.RoleIDs = append([]string(nil), u.RoleIDs...)
		out[i] = u
	}
	return out, nil
}

func (f *fakeAPI) CreateUser(_ context.Context, req tetration.CreateUserRequest) (*tetration.User, error) {
	f.createUserCalls++
	if err := f.fail("CreateUser"); err != nil {
		return nil, err
	}
	user := tetration.User{ID: f.id("user"), FirstName: req.FirstName, LastName: req.LastName, Email: strings.ToLower(req.Email)}
	f.users = append(f.users, user)
	return &user, nil
}

func (f *fakeAPI) DeleteUser(_ context.Context, id string) error {
	f.deleteUserCalls = append(f.deleteUserCalls, id)
	return f.fail("DeleteUser")
}

func (f *fakeAPI) AddUserRole(_ context.Context, userID, roleID string) error {
	f.addRoleCalls = append(f.addRoleCalls, userID+"/"+roleID)
	if err := f.fail("AddUserRole"); err != nil {
		return err
	}
	for i := range f.users {
		if f.users[i].ID == userID {
			f.users[i].RoleIDs = append(f.users[i].RoleIDs, roleID)
		}
	}
	return nil
}

func (f *fakeAPI) RemoveUserRole(_ context.Context, userID, roleID string) error {
	f.removeRoleCalls = append(f.removeRoleCalls, userID+"/"+roleID)
	if err := f.fail("RemoveUserRole"); err != nil {
		return err
	}
	for i := range f.users {
		if f.users[i].ID == userID {
			f.users[i].RoleIDs = removeID(f.users[i].RoleIDs, roleID)
		}
	}
	return nil
}

func (f *fakeAPI) ListRoles(context.Context) ([]tetration.Role, error) {
	if err := f.fail("ListRoles"); err != nil {
		return nil, err
	}
	return append([]tetration.Role(nil), f.roles...), nil
}

func (f *fakeAPI) CreateRole(_ context.Context, req tetration.CreateRoleRequest) (*tetration.Role, error) {
	f.createRoleCalls++
	if err := f.fail("CreateRole"); err != nil {
		return nil, err
	}
	role := tetration.Role{ID: f.id("role"), Name: req.Name, Description: req.Description}
	f.roles = append(f.roles, role)
	return &role, nil
}

func (f *fakeAPI) AddRoleCapability(_ context.Context, _ string, capability tetration.Capability) error {
	f.capabilityCalls = append(f.capabilityCalls, capability)
	return f.fail("AddRoleCapability")
}

func (f *fakeAPI) ListSensors(context.Context) ([]tetration.Sensor, error) {
	if err := f.fail("ListSensors"); err != nil {
		return nil, err
	}
	return f.sensors, nil
}

func (f *fakeAPI) DeleteSensor(_ context.Context, uuid string) error {
	f.deleteSensorCalls = append(f.deleteSensorCalls, uuid)
	return f.failures["DeleteSensor:"+uuid]
}

func (f *fakeAPI) GetRaw(_ context.Context, path string) (json.RawMessage, error) {
	if raw, ok := f.raw[path]; ok {
		return raw, nil
	}
	return nil, apiError(http.StatusNotFound)
}
