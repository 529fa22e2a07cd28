package workflow

import (
	"context"
	"errors"
	"fmt"

	"github.com/shaiso/tetractl/internal/tetration"
)

// FindRoleByName ищет роль по точному имени.
func (s *Service) FindRoleByName(ctx context.Context, name string) (tetration.Role, bool, error) {
	roles, err := s.api.ListRoles(ctx)
	if err != nil {
		return tetration.Role{}, false, fmt.Errorf("list roles: %w", err)
	}

	for _, role := range roles {
		if role.Name == name {
			return role, true, nil
		}
	}
	return tetration.Role{}, false, nil
}

// ListRoleIDs возвращает ID всех ролей в порядке API.
func (s *Service) ListRoleIDs(ctx context.Context) ([]string, error) {
	roles, err := s.api.ListRoles(ctx)
	if err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}

	ids := make([]string, len(roles))
	for i, role := range roles {
		ids[i] = role.ID
	}
	return ids, nil
}

// RoleChangeResult — итог назначения или снятия роли.
type RoleChangeResult struct {
	Outcome Outcome `json:"outcome"`
	Role    string  `json:"role"`
	User    string  `json:"user,omitempty"`
	UserID  string  `json:"user_id,omitempty"`
	RoleID  string  `json:"role_id,omitempty"`
	Error   string  `json:"error,omitempty"`
}

// AssignRole назначает роль пользователю, если она ещё не назначена.
func (s *Service) AssignRole(ctx context.Context, key UserKey, roleName string) (*RoleChangeResult, error) {
	return s.changeUserRole(ctx, key, roleName, true)
}

// UnassignRole снимает роль с пользователя, если она назначена.
func (s *Service) UnassignRole(ctx context.Context, key UserKey, roleName string) (*RoleChangeResult, error) {
	return s.changeUserRole(ctx, key, roleName, false)
}

func (s *Service) changeUserRole(ctx context.Context, key UserKey, roleName string, add bool) (*RoleChangeResult, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	if roleName == "" {
		return nil, fmt.Errorf("%w: role name", ErrMissingField)
	}

	role, found, err := s.FindRoleByName(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if !found {
		return &RoleChangeResult{Outcome: OutcomeRoleNotFound, Role: roleName, User: key.String()}, nil
	}

	user, found, err := s.FindUser(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		return &RoleChangeResult{
			Outcome: OutcomeUserNotFound,
			Role:    roleName,
			RoleID:  role.ID,
			User:    key.String(),
		}, nil
	}

	result, err := s.applyRoleChange(ctx, &user, role, add)
	result.User = key.String()
	return result, err
}

// changeRole резолвит роль и применяет изменение к уже найденному пользователю.
// Результат не nil даже при ошибке.
func (s *Service) changeRole(ctx context.Context, user *tetration.User, roleName string, add bool) (*RoleChangeResult, error) {
	role, found, err := s.FindRoleByName(ctx, roleName)
	if err != nil {
		return &RoleChangeResult{Outcome: OutcomeFailed, Role: roleName, UserID: user.ID, Error: err.Error()}, err
	}
	if !found {
		return &RoleChangeResult{Outcome: OutcomeRoleNotFound, Role: roleName, UserID: user.ID}, nil
	}
	return s.applyRoleChange(ctx, user, role, add)
}

func (s *Service) applyRoleChange(ctx context.Context, user *tetration.User, role tetration.Role, add bool) (*RoleChangeResult, error) {
	result := &RoleChangeResult{Role: role.Name, RoleID: role.ID, UserID: user.ID}
	assigned := user.HasRole(role.ID)

	if add {
		if assigned {
			result.Outcome = OutcomeAlreadyAssigned
			return result, nil
		}

		err := s.api.AddUserRole(ctx, user.ID, role.ID)
		switch {
		case errors.Is(err, tetration.ErrBadRequest):
			// Роль назначена в обход нашего списка.
			result.Outcome = OutcomeAlreadyAssigned
			return result, nil
		case err != nil:
			result.Outcome = OutcomeFailed
			result.Error = err.Error()
			return result, fmt.Errorf("add role %s to user %s: %w", role.Name, user.ID, err)
		}

		user.RoleIDs = append(user.RoleIDs, role.ID)
		result.Outcome = OutcomeAssigned
		s.logger.Info("role assigned", "role", role.Name, "user_id", user.ID)
		return result, nil
	}

	if !assigned {
		result.Outcome = OutcomeNotAssigned
		return result, nil
	}

	if err := s.api.RemoveUserRole(ctx, user.ID, role.ID); err != nil {
		result.Outcome = OutcomeFailed
		result.Error = err.Error()
		return result, fmt.Errorf("remove role %s from user %s: %w", role.Name, user.ID, err)
	}

	user.RoleIDs = removeID(user.RoleIDs, role.ID)
	result.Outcome = OutcomeRemoved
	s.logger.Info("role removed", "role", role.Name, "user_id", user.ID)
	return result, nil
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

// RoleSpec — роль и, опционально, capability в scope.
type RoleSpec struct {
	Name           string
	Description    string
	ScopeShortName string
	Ability        string
}

// RoleResult — итог AddRole.
type RoleResult struct {
	Outcome    Outcome `json:"outcome"`
	Name       string  `json:"name"`
	RoleID     string  `json:"role_id,omitempty"`
	ScopeID    string  `json:"scope_id,omitempty"`
	Capability Outcome `json:"capability,omitempty"`
}

// AddRole создаёт роль, если её нет, и выдаёт ей capability в scope.
//
// Описание по умолчанию совпадает с именем. Capability выдаётся, только
// если scope найден и ability задана.
func (s *Service) AddRole(ctx context.Context, spec RoleSpec) (*RoleResult, error) {
	if spec.Name == "" {
		return nil, fmt.Errorf("%w: role name", ErrMissingField)
	}

	result := &RoleResult{Name: spec.Name}

	role, found, err := s.FindRoleByName(ctx, spec.Name)
	if err != nil {
		return nil, err
	}

	if found {
		result.Outcome = OutcomeExists
	} else {
		description := spec.Description
		if description == "" {
			description = spec.Name
		}

		created, err := s.api.CreateRole(ctx, tetration.CreateRoleRequest{Name: spec.Name, Description: description})
		if err != nil {
			result.Outcome = OutcomeFailed
			return result, fmt.Errorf("create role %s: %w", spec.Name, err)
		}
		result.Outcome = OutcomeCreated
		role = *created
		s.logger.Info("role created", "role", spec.Name)

		if role.ID == "" {
			role, _, err = s.FindRoleByName(ctx, spec.Name)
			if err != nil {
				return result, err
			}
		}
	}
	result.RoleID = role.ID

	if spec.ScopeShortName == "" {
		return result, nil
	}

	scopeID, found, err := s.FindScopeID(ctx, ScopeRef{ShortName: spec.ScopeShortName})
	if err != nil {
		return result, err
	}
	if !found {
		result.Capability = OutcomeScopeNotFound
		return result, nil
	}
	result.ScopeID = scopeID

	if spec.Ability == "" || role.ID == "" {
		result.Capability = OutcomeSkipped
		return result, nil
	}

	err = s.api.AddRoleCapability(ctx, role.ID, tetration.Capability{ScopeID: scopeID, Ability: spec.Ability})
	switch {
	case errors.Is(err, tetration.ErrBadRequest):
		result.Capability = OutcomeAlreadyGranted
	case err != nil:
		result.Capability = OutcomeFailed
		return result, fmt.Errorf("grant %s on %s to role %s: %w", spec.Ability, spec.ScopeShortName, spec.Name, err)
	default:
		result.Capability = OutcomeGranted
		s.logger.Info("capability granted", "role", spec.Name, "scope_id", scopeID, "ability", spec.Ability)
	}

	return result, nil
}
