package tetration

import (
	"bytes"
	"encoding/json"
)

// Scope — application scope.
type Scope struct {
	ID         string          `json:"id"`
	ShortName  string          `json:"short_name"`
	Name       string          `json:"name"`
	ParentID   string          `json:"parent_app_scope_id"`
	Query      json.RawMessage `json:"query,omitempty"`
	ShortQuery json.RawMessage `json:"short_query,omitempty"`
	VRFID      int             `json:"vrf_id"`
	Dirty      bool            `json:"dirty"`
}

// ShortQuery — фильтр, задающий членство в scope.
type ShortQuery struct {
	Type  string `json:"type"`
	Field string `json:"field"`
	Value string `json:"value"`
}

// CreateScopeRequest — создание дочернего scope.
type CreateScopeRequest struct {
	ShortName  string     `json:"short_name"`
	ShortQuery ShortQuery `json:"short_query"`
	ParentID   string     `json:"parent_app_scope_id"`
}

// Application — приложение внутри scope.
type Application struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ScopeID     string `json:"app_scope_id"`
	Primary     bool   `json:"primary"`
}

// CreateApplicationRequest — создание приложения.
type CreateApplicationRequest struct {
	ScopeID     string `json:"app_scope_id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Primary     bool   `json:"primary"`
}

// User — пользователь.
type User struct {
	ID        string   `json:"id"`
	FirstName string   `json:"first_name"`
	LastName  string   `json:"last_name"`
	Email     string   `json:"email"`
	RoleIDs   []string `json:"role_ids"`
}

// HasRole проверяет, назначена ли пользователю роль.
func (u User) HasRole(roleID string) bool {
	for _, id := range u.RoleIDs {
		if id == roleID {
			return true
		}
	}
	return false
}

// CreateUserRequest — создание пользователя.
type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

// Role — роль. Роли глобальны, привязка к scope идёт через capabilities.
type Role struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Description  string       `json:"description"`
	Capabilities []Capability `json:"capabilities,omitempty"`
}

// Capability — пара (scope, ability), выданная роли.
type Capability struct {
	ScopeID string `json:"app_scope_id"`
	Ability string `json:"ability"`
}

// CreateRoleRequest — создание роли.
type CreateRoleRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Sensor — агент на хосте.
type Sensor struct {
	UUID       string          `json:"uuid"`
	HostName   string          `json:"host_name"`
	Interfaces []Interface     `json:"interfaces"`
	DeletedAt  json.RawMessage `json:"deleted_at,omitempty"`
}

// IsDeleted сообщает, помечен ли сенсор удалённым.
func (s Sensor) IsDeleted() bool {
	return len(s.DeletedAt) > 0 && !bytes.Equal(s.DeletedAt, []byte("null"))
}

// Interface — сетевой интерфейс сенсора.
type Interface struct {
	IP         string `json:"ip"`
	FamilyType string `json:"family_type"`
}

// FamilyIPv4 — значение family_type для IPv4 интерфейсов.
const FamilyIPv4 = "IPV4"

type sensorList struct {
	Results []Sensor `json:"results"`
}
