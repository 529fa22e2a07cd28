package batch

import (
	"context"
	"fmt"
	"strings"

	"github.com/shaiso/tetractl/internal/workflow"
)

// Action — тип пакетной операции.
type Action string

// Действия.
const (
	ActionRoleAdd     Action = "role-add"
	ActionUserAdd     Action = "user-add"
	ActionUserDelete  Action = "user-delete"
	ActionScopeCreate Action = "scope-create"
)

// Actions возвращает все действия.
func Actions() []Action {
	return []Action{ActionRoleAdd, ActionUserAdd, ActionUserDelete, ActionScopeCreate}
}

// ParseAction разбирает имя действия.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions() {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Columns возвращает позиционный набор колонок действия.
func (a Action) Columns() []string {
	switch a {
	case ActionRoleAdd:
		return []string{"role_name", "role_description", "scope_short_name", "ability"}
	case ActionUserAdd:
		return []string{"email", "first_name", "last_name", "roles"}
	case ActionUserDelete:
		return []string{"email", "first_name", "last_name"}
	case ActionScopeCreate:
		return []string{"new_short_name", "query_field", "query_type", "query_value", "parent_short_name"}
	}
	return nil
}

// Workflows — сценарии, которые вызывает пакетная обработка.
// Реализуется *workflow.Service.
type Workflows interface {
	AddRole(ctx context.Context, spec workflow.RoleSpec) (*workflow.RoleResult, error)
	AddUser(ctx context.Context, key workflow.UserKey, roles []string) (*workflow.UserResult, error)
	DeleteUser(ctx context.Context, key workflow.UserKey) (*workflow.UserResult, error)
	CreateScope(ctx context.Context, spec workflow.ScopeSpec) (*workflow.ScopeResult, error)
}

// Dispatch прогоняет строки через сценарий, соответствующий действию.
func Dispatch(ctx context.Context, wf Workflows, action Action, rows []Row, observe func(RowResult)) (Report, error) {
	var report Report

	switch action {
	case ActionRoleAdd:
		report = Run(ctx, rows, ParseRoleRow, func(ctx context.Context, spec workflow.RoleSpec) (any, error) {
			res, err := wf.AddRole(ctx, spec)
			return result(res, err)
		}, observe)
	case ActionUserAdd:
		report = Run(ctx, rows, ParseUserAddRow, func(ctx context.Context, row UserAddRow) (any, error) {
			res, err := wf.AddUser(ctx, row.User, row.Roles)
			return result(res, err)
		}, observe)
	case ActionUserDelete:
		report = Run(ctx, rows, ParseUserRow, func(ctx context.Context, key workflow.UserKey) (any, error) {
			res, err := wf.DeleteUser(ctx, key)
			return result(res, err)
		}, observe)
	case ActionScopeCreate:
		report = Run(ctx, rows, ParseScopeRow, func(ctx context.Context, spec workflow.ScopeSpec) (any, error) {
			res, err := wf.CreateScope(ctx, spec)
			return result(res, err)
		}, observe)
	default:
		return Report{}, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	report.Action = action
	return report, nil
}

// result убирает типизированный nil, чтобы RowResult.Result был пустым.
func result[T any](res *T, err error) (any, error) {
	if res == nil {
		return nil, err
	}
	return res, err
}

// ParseRoleRow: [role_name, role_description, scope_short_name, ability].
func ParseRoleRow(row Row) (workflow.RoleSpec, error) {
	if err := row.require(1); err != nil {
		return workflow.RoleSpec{}, err
	}
	spec := workflow.RoleSpec{
		Name:           row.field(0),
		Description:    row.field(1),
		ScopeShortName: row.field(2),
		Ability:        row.field(3),
	}
	if spec.Name == "" {
		return spec, fmt.Errorf("line %d: %w: role name", row.Line, workflow.ErrMissingField)
	}
	return spec, nil
}

// UserAddRow — строка user-add.
type UserAddRow struct {
	User  workflow.UserKey
	Roles []string
}

// ParseUserAddRow: [email, first_name, last_name, "role1,role2"].
func ParseUserAddRow(row Row) (UserAddRow, error) {
	key, err := ParseUserRow(row)
	if err != nil {
		return UserAddRow{}, err
	}

	out := UserAddRow{User: key}
	if roles := row.field(3); roles != "" {
		out.Roles = strings.Split(roles, ",")
	}
	return out, nil
}

// ParseUserRow: [email, first_name, last_name].
func ParseUserRow(row Row) (workflow.UserKey, error) {
	if err := row.require(3); err != nil {
		return workflow.UserKey{}, err
	}
	key := workflow.UserKey{
		Email:     row.field(0),
		FirstName: row.field(1),
		LastName:  row.field(2),
	}
	if err := key.Validate(); err != nil {
		return key, fmt.Errorf("line %d: %w", row.Line, err)
	}
	return key, nil
}

// ParseScopeRow: [new_short_name, query_field, query_type, query_value, parent_short_name].
func ParseScopeRow(row Row) (workflow.ScopeSpec, error) {
	if err := row.require(5); err != nil {
		return workflow.ScopeSpec{}, err
	}
	spec := workflow.ScopeSpec{
		ShortName:       row.field(0),
		QueryField:      row.field(1),
		QueryType:       row.field(2),
		QueryValue:      row.field(3),
		ParentShortName: row.field(4),
	}
	if err := spec.Validate(); err != nil {
		return spec, fmt.Errorf("line %d: %w", row.Line, err)
	}
	return spec, nil
}
