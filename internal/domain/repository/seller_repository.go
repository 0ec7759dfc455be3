package repository

import (
	"context"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
)

// SellerRepository puerto de lectura de vendedores (colaborador consumido
// por el motor: resolución de canales de proveedor).
type SellerRepository interface {
	// GetByID devuelve el vendedor o nil si no existe.
	GetByID(ctx context.Context, id string) (*entity.Seller, error)

	// GetByUserID resuelve el vendedor asociado a un usuario autenticado.
	GetByUserID(ctx context.Context, userID string) (*entity.Seller, error)
}
