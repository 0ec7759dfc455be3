package stock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/stock"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

type memSellerRepo struct {
	sellers map[string]*entity.Seller
}

func (r *memSellerRepo) GetByID(_ context.Context, id string) (*entity.Seller, error) {
	return r.sellers[id], nil
}

func (r *memSellerRepo) GetByUserID(_ context.Context, userID string) (*entity.Seller, error) {
	for _, s := range r.sellers {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, nil
}

func TestSyncWithWarehouse_RegistraYTraeCantidad(t *testing.T) {
	db := newMemDB()
	seedProduct(db, "prod-1")

	var registeredSKU string
	client := &fakeClient{
		code: provider.CodeShipBob,
		createProduct: func(_ context.Context, channelID string, in provider.ProductInput) (string, error) {
			registeredSKU = in.SKU
			return "ext-42", nil
		},
		getInventory: func(context.Context, string, []string) ([]provider.InventoryItem, error) {
			return []provider.InventoryItem{{SKU: "SKU-1", Available: 12, Location: "Cicero (IL)"}}, nil
		},
	}

	uc := stock.NewSyncUseCase(provider.NewRegistry(client), db, &memProductRepo{db: db},
		&memSellerRepo{}, nil, logger.Nop())

	result, err := uc.SyncWithWarehouse(context.Background(), stock.SyncWarehouseInput{
		ProductID:   "prod-1",
		WarehouseID: "wh-a",
		Provider:    provider.CodeShipBob,
		ChannelID:   "ch-1",
		UserID:      "user-1",
	})
	require.NoError(t, err)

	assert.Equal(t, "SKU-1", registeredSKU)
	assert.Equal(t, "ext-42", result.ExternalProductID)
	assert.Equal(t, 12, result.Quantity, "la cantidad inicial es la que reporta la bodega")
	assert.Equal(t, 12, db.products["prod-1"].CountInStock)

	rec := db.stock[stockKey("prod-1", "wh-a")]
	require.NotNil(t, rec)
	assert.Equal(t, "Cicero (IL)", rec.Location)
}

func TestSyncWithWarehouse_ProductoInexistente(t *testing.T) {
	db := newMemDB()
	client := &fakeClient{code: provider.CodeShipBob}
	uc := stock.NewSyncUseCase(provider.NewRegistry(client), db, &memProductRepo{db: db},
		&memSellerRepo{}, nil, logger.Nop())

	_, err := uc.SyncWithWarehouse(context.Background(), stock.SyncWarehouseInput{
		ProductID:   "fantasma",
		WarehouseID: "wh-a",
		Provider:    provider.CodeShipBob,
		ChannelID:   "ch-1",
	})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSyncProductInventory_UnProveedorCaidoNoDetieneAlResto(t *testing.T) {
	db := newMemDB()
	seedProduct(db, "prod-1")
	db.stock[stockKey("prod-1", "shipbob-wh")] = &entity.WarehouseStockRecord{
		ProductID: "prod-1", WarehouseID: "shipbob-wh", Provider: provider.CodeShipBob,
		SKU: "SKU-1", Quantity: 5,
	}
	db.stock[stockKey("prod-1", "4px-wh")] = &entity.WarehouseStockRecord{
		ProductID: "prod-1", WarehouseID: "4px-wh", Provider: provider.CodeFourPX,
		SKU: "SKU-1", Quantity: 3,
	}

	shipbob := &fakeClient{
		code: provider.CodeShipBob,
		getInventory: func(context.Context, string, []string) ([]provider.InventoryItem, error) {
			return []provider.InventoryItem{{SKU: "SKU-1", Available: 9}}, nil
		},
	}
	fourpx := &fakeClient{
		code: provider.CodeFourPX,
		getInventory: func(context.Context, string, []string) ([]provider.InventoryItem, error) {
			return nil, errors.New("gateway caído")
		},
	}

	sellers := &memSellerRepo{sellers: map[string]*entity.Seller{
		"seller-1": {ID: "seller-1", Channels: map[provider.Code]string{
			provider.CodeShipBob: "ch-1",
			provider.CodeFourPX:  "cuenta-1",
		}},
	}}

	uc := stock.NewSyncUseCase(provider.NewRegistry(shipbob, fourpx), db,
		&memProductRepo{db: db}, sellers, nil, logger.Nop())

	result, err := uc.SyncProductInventory(context.Background(), "prod-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, []provider.Code{provider.CodeShipBob}, result.Synced)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, provider.CodeFourPX, result.Failures[0].Provider)

	// ShipBob refrescado a 9; 4PX conserva su última cantidad conocida (3).
	assert.Equal(t, 12, result.CountInStock)
	assert.Equal(t, 9, db.stock[stockKey("prod-1", "shipbob-wh")].Quantity)
	assert.Equal(t, 3, db.stock[stockKey("prod-1", "4px-wh")].Quantity)
}

func TestSyncProductInventory_TodosCaidosFalla(t *testing.T) {
	db := newMemDB()
	seedProduct(db, "prod-1")

	caido := func(context.Context, string, []string) ([]provider.InventoryItem, error) {
		return nil, errors.New("sin respuesta")
	}
	shipbob := &fakeClient{code: provider.CodeShipBob, getInventory: caido}

	sellers := &memSellerRepo{sellers: map[string]*entity.Seller{
		"seller-1": {ID: "seller-1", Channels: map[provider.Code]string{provider.CodeShipBob: "ch-1"}},
	}}

	uc := stock.NewSyncUseCase(provider.NewRegistry(shipbob), db,
		&memProductRepo{db: db}, sellers, nil, logger.Nop())

	_, err := uc.SyncProductInventory(context.Background(), "prod-1", "user-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ningún proveedor respondió")
}
