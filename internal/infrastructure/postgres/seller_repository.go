package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

var _ repository.SellerRepository = (*SellerRepo)(nil)

// SellerRepo implementación de SellerRepository sobre PostgreSQL. Los canales
// por proveedor se persisten como JSONB {"shipbob": "ch-1", "4px": "cuenta-9"}.
type SellerRepo struct {
	q Querier
}

// NewSellerRepository construye el adaptador. Pasar pool o tx (Querier).
func NewSellerRepository(q Querier) *SellerRepo {
	return &SellerRepo{q: q}
}

// GetByID devuelve el vendedor o nil si no existe.
func (r *SellerRepo) GetByID(ctx context.Context, id string) (*entity.Seller, error) {
	query := `
		SELECT id, user_id, name, channels, created_at, updated_at
		FROM sellers WHERE id = $1`
	return r.get(ctx, query, id)
}

// GetByUserID resuelve el vendedor asociado a un usuario autenticado.
func (r *SellerRepo) GetByUserID(ctx context.Context, userID string) (*entity.Seller, error) {
	query := `
		SELECT id, user_id, name, channels, created_at, updated_at
		FROM sellers WHERE user_id = $1`
	return r.get(ctx, query, userID)
}

func (r *SellerRepo) get(ctx context.Context, query, arg string) (*entity.Seller, error) {
	var s entity.Seller
	var channels []byte
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&s.ID, &s.UserID, &s.Name, &channels, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}

	if len(channels) > 0 {
		raw := make(map[string]string)
		if err := json.Unmarshal(channels, &raw); err != nil {
			return nil, fmt.Errorf("deserializar canales del vendedor %s: %w", s.ID, err)
		}
		s.Channels = make(map[provider.Code]string, len(raw))
		for code, channelID := range raw {
			s.Channels[provider.Code(code)] = channelID
		}
	}
	return &s, nil
}
