package entity

import "time"

// Roles de usuario dentro de una organización.
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleWorker  = "worker"
)

// User usuario de la plataforma, pertenece a una organización (tenant).
// La gestión de usuarios es externa a este core; aquí solo se consulta
// para autenticación y resolución de nombres.
type User struct {
	ID             string
	OrganizationID string
	Email          string
	PasswordHash   string
	Name           string
	Role           string
	Status         string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsManagerOrAbove informa si el rol permite operar tareas ajenas.
func (u *User) IsManagerOrAbove() bool {
	return u.Role == RoleAdmin || u.Role == RoleManager
}

// RoleAtLeastManager informa si un rol (string) es manager o superior.
func RoleAtLeastManager(role string) bool {
	return role == RoleAdmin || role == RoleManager
}
