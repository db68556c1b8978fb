package repository

import (
	"context"

	"github.com/jhoicas/kardex-api/internal/domain/entity"
)

// MovementSource define el puerto de lectura del historial de movimientos de un producto.
// ListMovements devuelve el historial completo (todas las páginas), sin orden garantizado.
// GetSummary devuelve el resumen que calcula el origen para el periodo; nil si no existe.
type MovementSource interface {
	ListMovements(ctx context.Context, q entity.MovementQuery) ([]entity.RawMovement, error)
	GetSummary(ctx context.Context, q entity.MovementQuery, period entity.DateRange) (*entity.UpstreamSummary, error)
}
