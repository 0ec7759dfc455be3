package fulfillment

import (
	"context"
	"fmt"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
)

// Tracker consulta el estado de un envío contra el proveedor, resolviendo el
// canal del vendedor autenticado.
type Tracker struct {
	registry *provider.Registry
	sellers  repository.SellerRepository
}

// NewTracker construye el caso de uso.
func NewTracker(registry *provider.Registry, sellers repository.SellerRepository) *Tracker {
	return &Tracker{registry: registry, sellers: sellers}
}

// Track devuelve estado e historial del envío según el proveedor.
func (t *Tracker) Track(ctx context.Context, userID string, code provider.Code, trackingID string) (*provider.ShipmentStatus, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("%w: tracking requerido", domain.ErrInvalidInput)
	}

	client, err := t.registry.Get(code)
	if err != nil {
		return nil, err
	}

	seller, err := t.sellers.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, fmt.Errorf("%w: usuario %s", domain.ErrSellerNotFound, userID)
	}
	channelID := seller.ChannelFor(code)
	if channelID == "" {
		return nil, fmt.Errorf("%w: el vendedor %s no tiene canal en %s", domain.ErrInvalidInput, seller.ID, code)
	}

	return client.GetShipmentStatus(ctx, channelID, trackingID)
}
