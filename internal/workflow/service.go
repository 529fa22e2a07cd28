package workflow

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/shaiso/tetractl/internal/tetration"
)

// API — вызовы management API, которые используют сценарии.
// Реализуется *tetration.Client.
type API interface {
	ListScopes(ctx context.Context) ([]tetration.Scope, error)
	GetScope(ctx context.Context, id string) (*tetration.Scope, error)
	CreateScope(ctx context.Context, req tetration.CreateScopeRequest) (*tetration.Scope, error)
	CommitDirty(ctx context.Context, rootID string) error

	ListApplications(ctx context.Context) ([]tetration.Application, error)
	GetApplicationDetails(ctx context.Context, id string) (json.RawMessage, error)
	CreateApplication(ctx context.Context, req tetration.CreateApplicationRequest) (*tetration.Application, error)
	DeleteApplication(ctx context.Context, id string) error

	ListUsers(ctx context.Context) ([]tetration.User, error)
	CreateUser(ctx context.Context, req tetration.CreateUserRequest) (*tetration.User, error)
	DeleteUser(ctx context.Context, id string) error
	AddUserRole(ctx context.Context, userID, roleID string) error
	RemoveUserRole(ctx context.Context, userID, roleID string) error

	ListRoles(ctx context.Context) ([]tetration.Role, error)
	CreateRole(ctx context.Context, req tetration.CreateRoleRequest) (*tetration.Role, error)
	AddRoleCapability(ctx context.Context, roleID string, capability tetration.Capability) error

	ListSensors(ctx context.Context) ([]tetration.Sensor, error)
	DeleteSensor(ctx context.Context, uuid string) error

	GetRaw(ctx context.Context, path string) (json.RawMessage, error)
}

// Outcome — итог сценария.
type Outcome string

// Итоги сценариев.
const (
	OutcomeFound    Outcome = "found"
	OutcomeNotFound Outcome = "not_found"
	OutcomeCreated  Outcome = "created"
	OutcomeExists   Outcome = "exists"
	OutcomeDeleted  Outcome = "deleted"
	OutcomeFailed   Outcome = "failed"
	OutcomeSkipped  Outcome = "skipped"

	OutcomeScopeNotFound  Outcome = "scope_not_found"
	OutcomeParentNotFound Outcome = "parent_not_found"
	OutcomeUserNotFound   Outcome = "user_not_found"
	OutcomeRoleNotFound   Outcome = "role_not_found"

	OutcomeAssigned        Outcome = "assigned"
	OutcomeAlreadyAssigned Outcome = "already_assigned"
	OutcomeRemoved         Outcome = "removed"
	OutcomeNotAssigned     Outcome = "not_assigned"

	OutcomeGranted        Outcome = "granted"
	OutcomeAlreadyGranted Outcome = "already_granted"

	OutcomeNoClusters     Outcome = "no_clusters"
	OutcomeAlreadyDeleted Outcome = "already_deleted"
	OutcomeIPMismatch     Outcome = "ip_mismatch"
	OutcomePartial        Outcome = "partial"
)

// Service выполняет сценарии поверх API.
type Service struct {
	api    API
	logger *slog.Logger
}

// NewService создаёт Service.
func NewService(api API, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{api: api, logger: logger}
}
