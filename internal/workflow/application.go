package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shaiso/tetractl/internal/tetration"
)

// FindApplication ищет приложение по точной паре (name, scopeID).
// Имя не уникально между scopes, поэтому scope обязателен.
func (s *Service) FindApplication(ctx context.Context, name, scopeID string) (tetration.Application, bool, error) {
	apps, err := s.api.ListApplications(ctx)
	if err != nil {
		return tetration.Application{}, false, fmt.Errorf("list applications: %w", err)
	}

	for _, app := range apps {
		if app.Name == name && app.ScopeID == scopeID {
			return app, true, nil
		}
	}
	return tetration.Application{}, false, nil
}

// FindApplicationByRef сначала резолвит scope, затем ищет приложение.
func (s *Service) FindApplicationByRef(ctx context.Context, name string, ref ScopeRef) (tetration.Application, bool, error) {
	scopeID, found, err := s.FindScopeID(ctx, ref)
	if err != nil || !found {
		return tetration.Application{}, false, err
	}
	return s.FindApplication(ctx, name, scopeID)
}

// CreateApplicationInput — параметры создания приложения.
type CreateApplicationInput struct {
	Name        string
	Description string
	Scope       ScopeRef
	Primary     bool
}

// ApplicationResult — итог сценариев над приложением.
type ApplicationResult struct {
	Outcome       Outcome         `json:"outcome"`
	Name          string          `json:"name,omitempty"`
	ApplicationID string          `json:"application_id,omitempty"`
	ScopeID       string          `json:"scope_id,omitempty"`
	Details       json.RawMessage `json:"details,omitempty"`
}

// CreateApplication создаёт приложение, если в scope ещё нет приложения
// с таким именем, и возвращает его детальное представление.
//
// Повторный вызов с теми же (name, scope) не создаёт дубликат и
// возвращает то же представление.
func (s *Service) CreateApplication(ctx context.Context, in CreateApplicationInput) (*ApplicationResult, error) {
	if in.Name == "" {
		return nil, fmt.Errorf("%w: application name", ErrMissingField)
	}
	if err := in.Scope.Validate(); err != nil {
		return nil, err
	}

	result := &ApplicationResult{Name: in.Name}

	scopeID, found, err := s.FindScopeID(ctx, in.Scope)
	if err != nil {
		return nil, err
	}
	if !found {
		result.Outcome = OutcomeScopeNotFound
		return result, nil
	}
	result.ScopeID = scopeID

	app, exists, err := s.FindApplication(ctx, in.Name, scopeID)
	if err != nil {
		return nil, err
	}

	if exists {
		result.Outcome = OutcomeExists
	} else {
		created, err := s.api.CreateApplication(ctx, tetration.CreateApplicationRequest{
			ScopeID:     scopeID,
			Name:        in.Name,
			Description: in.Description,
			Primary:     in.Primary,
		})
		if err != nil {
			result.Outcome = OutcomeFailed
			return result, fmt.Errorf("create application %s: %w", in.Name, err)
		}
		result.Outcome = OutcomeCreated
		s.logger.Info("application created", "name", in.Name, "scope_id", scopeID)

		// Перечитываем список: ответ на создание не содержит детального представления.
		app, exists, err = s.FindApplication(ctx, in.Name, scopeID)
		if err != nil {
			return result, err
		}
		if !exists {
			app = *created
		}
	}

	result.ApplicationID = app.ID
	if app.ID == "" {
		return result, nil
	}

	details, err := s.api.GetApplicationDetails(ctx, app.ID)
	if err != nil {
		return result, fmt.Errorf("get application %s details: %w", app.ID, err)
	}
	result.Details = details

	return result, nil
}

// ApplicationLookup — поиск приложения по ID либо по имени в scope.
type ApplicationLookup struct {
	ID    string
	Name  string
	Scope ScopeRef
}

// Validate проверяет комбинацию полей.
func (l ApplicationLookup) Validate() error {
	if l.ID != "" {
		return nil
	}
	if l.Name == "" {
		return fmt.Errorf("%w: application id or application name", ErrMissingField)
	}
	return l.Scope.Validate()
}

// GetApplication возвращает детальное представление приложения.
func (s *Service) GetApplication(ctx context.Context, lookup ApplicationLookup) (*ApplicationResult, error) {
	if err := lookup.Validate(); err != nil {
		return nil, err
	}

	result := &ApplicationResult{Name: lookup.Name, ApplicationID: lookup.ID}

	if result.ApplicationID == "" {
		app, found, err := s.FindApplicationByRef(ctx, lookup.Name, lookup.Scope)
		if err != nil {
			return nil, err
		}
		if !found {
			result.Outcome = OutcomeNotFound
			return result, nil
		}
		result.ApplicationID = app.ID
		result.ScopeID = app.ScopeID
	}

	details, err := s.api.GetApplicationDetails(ctx, result.ApplicationID)
	if errors.Is(err, tetration.ErrNotFound) {
		result.Outcome = OutcomeNotFound
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s details: %w", result.ApplicationID, err)
	}

	result.Outcome = OutcomeFound
	result.Details = details
	return result, nil
}

// ClustersResult — кластеры приложения.
type ClustersResult struct {
	Outcome       Outcome         `json:"outcome"`
	ApplicationID string          `json:"application_id"`
	Clusters      json.RawMessage `json:"Clusters,omitempty"`
}

// GetApplicationClusters возвращает поле clusters детального представления.
// Пустой результат обычно значит, что для приложения не запускался ADM.
func (s *Service) GetApplicationClusters(ctx context.Context, appID string) (*ClustersResult, error) {
	result := &ClustersResult{ApplicationID: appID}

	details, err := s.api.GetApplicationDetails(ctx, appID)
	if errors.Is(err, tetration.ErrNotFound) {
		result.Outcome = OutcomeNotFound
		return result, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get application %s details: %w", appID, err)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(details, &fields); err != nil {
		return nil, fmt.Errorf("decode application %s details: %w", appID, err)
	}

	clusters, ok := fields["clusters"]
	if !ok {
		result.Outcome = OutcomeNoClusters
		return result, nil
	}

	result.Outcome = OutcomeFound
	result.Clusters = clusters
	return result, nil
}

// DeleteApplication удаляет приложение, если оно есть в списке.
func (s *Service) DeleteApplication(ctx context.Context, appID string) (*ApplicationResult, error) {
	result := &ApplicationResult{ApplicationID: appID}

	apps, err := s.api.ListApplications(ctx)
	if err != nil {
		return nil, fmt.Errorf("list applications: %w", err)
	}

	var app *tetration.Application
	for i := range apps {
		if apps[i].ID == appID {
			app = &apps[i]
			break
		}
	}
	if app == nil {
		result.Outcome = OutcomeNotFound
		return result, nil
	}
	result.Name = app.Name
	result.ScopeID = app.ScopeID

	if err := s.api.DeleteApplication(ctx, appID); err != nil {
		result.Outcome = OutcomeFailed
		return result, fmt.Errorf("delete application %s: %w", appID, err)
	}

	result.Outcome = OutcomeDeleted
	s.logger.Info("application deleted", "id", appID, "name", app.Name)
	return result, nil
}
