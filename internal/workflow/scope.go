package workflow

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/shaiso/tetractl/internal/tetration"
)

// ScopeRef — ссылка на scope: либо ID, либо short name.
type ScopeRef struct {
	ID        string
	ShortName string
}

// Validate проверяет, что задано ровно одно из полей.
func (r ScopeRef) Validate() error {
	switch {
	case r.ID != "" && r.ShortName != "":
		return ErrAmbiguousScope
	case r.ID == "" && r.ShortName == "":
		return ErrScopeRequired
	}
	return nil
}

// String возвращает человекочитаемое представление ссылки.
func (r ScopeRef) String() string {
	if r.ID != "" {
		return "id:" + r.ID
	}
	return r.ShortName
}

// FindScopeID возвращает ID scope.
//
// ID из ссылки возвращается как есть, без проверки существования.
// Short name ищется по полному списку scopes, первое точное совпадение.
func (s *Service) FindScopeID(ctx context.Context, ref ScopeRef) (string, bool, error) {
	if ref.ID != "" {
		return ref.ID, true, nil
	}

	scopes, err := s.api.ListScopes(ctx)
	if err != nil {
		return "", false, fmt.Errorf("list scopes: %w", err)
	}

	for _, scope := range scopes {
		if scope.ShortName == ref.ShortName {
			return scope.ID, true, nil
		}
	}
	return "", false, nil
}

// GetScope возвращает запись scope как есть.
func (s *Service) GetScope(ctx context.Context, ref ScopeRef) (json.RawMessage, bool, error) {
	id, found, err := s.FindScopeID(ctx, ref)
	if err != nil || !found {
		return nil, false, err
	}

	raw, err := s.api.GetRaw(ctx, "/app_scopes/"+url.PathEscape(id))
	if errors.Is(err, tetration.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get scope %s: %w", id, err)
	}
	return raw, true, nil
}

// ScopeSpec — новый scope под родителем, заданным short name.
type ScopeSpec struct {
	ShortName       string
	QueryField      string
	QueryType       string
	QueryValue      string
	ParentShortName string
}

// Validate проверяет обязательные поля.
func (s ScopeSpec) Validate() error {
	if s.ShortName == "" || s.ParentShortName == "" {
		return fmt.Errorf("%w: short name and parent short name", ErrMissingField)
	}
	if s.QueryField == "" || s.QueryType == "" {
		return fmt.Errorf("%w: query field and query type", ErrMissingField)
	}
	return nil
}

// ScopeResult — итог CreateScope.
type ScopeResult struct {
	Outcome   Outcome `json:"outcome"`
	ShortName string  `json:"short_name"`
	ScopeID   string  `json:"scope_id,omitempty"`
	ParentID  string  `json:"parent_id,omitempty"`
	Committed bool    `json:"committed"`
}

// CreateScope создаёт scope под родителем и коммитит родителя, если он dirty.
//
// Коммит проверяется всегда, когда родитель найден, даже если scope уже
// существовал: предыдущий запуск мог упасть между созданием и коммитом.
func (s *Service) CreateScope(ctx context.Context, spec ScopeSpec) (*ScopeResult, error) {
	result := &ScopeResult{ShortName: spec.ShortName}

	parentID, found, err := s.FindScopeID(ctx, ScopeRef{ShortName: spec.ParentShortName})
	if err != nil {
		return nil, err
	}
	if !found {
		result.Outcome = OutcomeParentNotFound
		return result, nil
	}
	result.ParentID = parentID

	existingID, exists, err := s.FindScopeID(ctx, ScopeRef{ShortName: spec.ShortName})
	if err != nil {
		return nil, err
	}

	if exists {
		result.Outcome = OutcomeExists
		result.ScopeID = existingID
	} else {
		created, err := s.api.CreateScope(ctx, tetration.CreateScopeRequest{
			ShortName: spec.ShortName,
			ShortQuery: tetration.ShortQuery{
				Type:  spec.QueryType,
				Field: spec.QueryField,
				Value: spec.QueryValue,
			},
			ParentID: parentID,
		})
		if err != nil {
			result.Outcome = OutcomeFailed
			return result, fmt.Errorf("create scope %s: %w", spec.ShortName, err)
		}
		result.Outcome = OutcomeCreated
		result.ScopeID = created.ID
		s.logger.Info("scope created", "short_name", spec.ShortName, "parent_id", parentID)
	}

	parent, err := s.api.GetScope(ctx, parentID)
	if err != nil {
		return result, fmt.Errorf("get parent scope %s: %w", parentID, err)
	}
	if !parent.Dirty {
		return result, nil
	}

	if err := s.api.CommitDirty(ctx, parentID); err != nil {
		return result, fmt.Errorf("commit dirty scope %s: %w", parentID, err)
	}
	result.Committed = true
	s.logger.Info("scope commit queued", "root_scope_id", parentID)

	return result, nil
}
