package workflow

import (
	"context"
	"encoding/json"
	"fmt"
)

// Listing — read-only коллекция API, выводимая как есть.
type Listing string

// Коллекции.
const (
	ListingScopes              Listing = "/app_scopes"
	ListingApplications        Listing = "/applications"
	ListingUsers               Listing = "/users"
	ListingRoles               Listing = "/roles"
	ListingSensors             Listing = "/sensors"
	ListingSwitches            Listing = "/switches"
	ListingFlowDimensions      Listing = "/flowsearch/dimensions"
	ListingFlowMetrics         Listing = "/flowsearch/metrics"
	ListingInventoryDimensions Listing = "/inventory/search/dimensions"
	ListingInventoryFilters    Listing = "/filters/inventories"
)

// List возвращает коллекцию без изменений.
func (s *Service) List(ctx context.Context, listing Listing) (json.RawMessage, error) {
	raw, err := s.api.GetRaw(ctx, string(listing))
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", listing, err)
	}
	return raw, nil
}

// InventoryFilters возвращает inventory-фильтры. Если scopeID задан,
// остаются только фильтры этого scope.
func (s *Service) InventoryFilters(ctx context.Context, scopeID string) (json.RawMessage, error) {
	raw, err := s.List(ctx, ListingInventoryFilters)
	if err != nil || scopeID == "" {
		return raw, err
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode inventory filters: %w", err)
	}

	filtered := make([]json.RawMessage, 0, len(items))
	for _, item := range items {
		var head struct {
			ScopeID string `json:"app_scope_id"`
		}
		if err := json.Unmarshal(item, &head); err != nil {
			return nil, fmt.Errorf("decode inventory filter: %w", err)
		}
		if head.ScopeID == scopeID {
			filtered = append(filtered, item)
		}
	}

	out, err := json.Marshal(filtered)
	if err != nil {
		return nil, fmt.Errorf("encode inventory filters: %w", err)
	}
	return out, nil
}
