package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound          = errors.New("recurso no encontrado")
	ErrUserNotFound      = errors.New("usuario no encontrado")
	ErrInvalidInput      = errors.New("entrada inválida")
	ErrUnauthorized      = errors.New("no autorizado")
	ErrForbidden         = errors.New("acceso denegado")
	ErrInvalidTransition = errors.New("transición de estado inválida")
	ErrDuplicateItem     = errors.New("el activo ya tiene un ítem en la sesión")
	ErrPlanLimit         = errors.New("límite del plan alcanzado")
	ErrAiProvider        = errors.New("proveedor de visión IA no disponible")
	ErrDecisionRecorded  = errors.New("la decisión del reconocimiento ya fue registrada")
)
