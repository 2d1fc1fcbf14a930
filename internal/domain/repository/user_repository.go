package repository

import (
	"context"

	"github.com/jhoicas/Activos-api/internal/domain/entity"
)

// UserRepository puerto mínimo sobre usuarios: autenticación y lookups.
// La gestión de usuarios vive fuera de este core.
type UserRepository interface {
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	GetByID(ctx context.Context, id string) (*entity.User, error)
}

// PlanRepository puerto de consulta del plan efectivo de una organización.
type PlanRepository interface {
	GetByOrganization(ctx context.Context, organizationID string) (*entity.OrgPlan, error)
}
