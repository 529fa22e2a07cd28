package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shaiso/tetractl/internal/tetration"
)

// UserKey — идентификация пользователя тройкой полей.
type UserKey struct {
	FirstName string
	LastName  string
	Email     string
}

// Validate проверяет, что заполнены все поля.
func (k UserKey) Validate() error {
	if k.FirstName == "" || k.LastName == "" || k.Email == "" {
		return fmt.Errorf("%w: first name, last name and email", ErrMissingField)
	}
	return nil
}

// Matches сравнивает имя и фамилию точно, email — без учёта регистра.
func (k UserKey) Matches(u tetration.User) bool {
	return u.FirstName == k.FirstName &&
		u.LastName == k.LastName &&
		strings.EqualFold(u.Email, k.Email)
}

// String возвращает «First Last <email>».
func (k UserKey) String() string {
	return fmt.Sprintf("%s %s <%s>", k.FirstName, k.LastName, k.Email)
}

// FindUser возвращает первого пользователя, совпавшего с ключом.
func (s *Service) FindUser(ctx context.Context, key UserKey) (tetration.User, bool, error) {
	users, err := s.api.ListUsers(ctx)
	if err != nil {
		return tetration.User{}, false, fmt.Errorf("list users: %w", err)
	}

	for _, user := range users {
		if key.Matches(user) {
			return user, true, nil
		}
	}
	return tetration.User{}, false, nil
}

// UserResult — итог AddUser/DeleteUser.
type UserResult struct {
	Outcome Outcome            `json:"outcome"`
	User    string             `json:"user"`
	UserID  string             `json:"user_id,omitempty"`
	Roles   []RoleChangeResult `json:"roles,omitempty"`
}

// AddUser создаёт пользователя, если его нет, и назначает ему роли.
//
// Ошибка назначения одной роли не останавливает остальные; итог по каждой
// роли лежит в Roles, а ошибки собраны в ErrPartialFailure.
func (s *Service) AddUser(ctx context.Context, key UserKey, roles []string) (*UserResult, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	result := &UserResult{User: key.String()}

	user, found, err := s.FindUser(ctx, key)
	if err != nil {
		return nil, err
	}

	if found {
		result.Outcome = OutcomeExists
	} else {
		created, err := s.api.CreateUser(ctx, tetration.CreateUserRequest{
			FirstName: key.FirstName,
			LastName:  key.LastName,
			Email:     key.Email,
		})
		if err != nil {
			result.Outcome = OutcomeFailed
			return result, fmt.Errorf("create user %s: %w", key, err)
		}
		result.Outcome = OutcomeCreated
		s.logger.Info("user created", "user", key.String())

		user, found, err = s.FindUser(ctx, key)
		if err != nil {
			return result, err
		}
		if !found {
			user = *created
		}
	}
	result.UserID = user.ID

	var errs []error
	for _, name := range roles {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}

		change, err := s.changeRole(ctx, &user, name, true)
		if err != nil {
			errs = append(errs, err)
		}
		result.Roles = append(result.Roles, *change)
	}

	if len(errs) > 0 {
		return result, fmt.Errorf("%w: %w", ErrPartialFailure, errors.Join(errs...))
	}
	return result, nil
}

// DeleteUser удаляет пользователя, если он существует.
func (s *Service) DeleteUser(ctx context.Context, key UserKey) (*UserResult, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	result := &UserResult{User: key.String()}

	user, found, err := s.FindUser(ctx, key)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Outcome = OutcomeNotFound
		return result, nil
	}
	result.UserID = user.ID

	if err := s.api.DeleteUser(ctx, user.ID); err != nil {
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("delete user %s: %w", key, err)
	}

	result.Outcome = OutcomeDeleted
	s.logger.Info("user deleted", "user", key.String(), "id", user.ID)
	return result, nil
}
