package fulfillment_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/application/fulfillment"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/repository"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// ───────────────────────────── fakes ─────────────────────────────

type memDB struct {
	mu       sync.Mutex
	stock    map[string]*entity.WarehouseStockRecord // clave productID|warehouseID
	products map[string]*entity.Product
	orders   map[string]*entity.Order
	sellers  map[string]*entity.Seller
}

func newMemDB() *memDB {
	return &memDB{
		stock:    make(map[string]*entity.WarehouseStockRecord),
		products: make(map[string]*entity.Product),
		orders:   make(map[string]*entity.Order),
		sellers:  make(map[string]*entity.Seller),
	}
}

func key(productID, warehouseID string) string { return productID + "|" + warehouseID }

// Run implementa fulfillment.TxRunner con rollback por snapshot.
func (db *memDB) Run(_ context.Context, fn func(repository.WarehouseStockRepository, repository.ProductRepository, repository.OrderRepository) error) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	stockSnap := make(map[string]*entity.WarehouseStockRecord, len(db.stock))
	for k, v := range db.stock {
		cp := *v
		stockSnap[k] = &cp
	}
	if err := fn(&stockRepo{db: db}, &productRepo{db: db}, &orderRepo{db: db}); err != nil {
		db.stock = stockSnap
		return err
	}
	return nil
}

type stockRepo struct{ db *memDB }

func (r *stockRepo) ListByProduct(_ context.Context, productID string) ([]*entity.WarehouseStockRecord, error) {
	var out []*entity.WarehouseStockRecord
	for _, rec := range r.db.stock {
		if rec.ProductID == productID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stockRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.WarehouseStockRecord, error) {
	return r.ListByProduct(ctx, productID)
}

func (r *stockRepo) Upsert(_ context.Context, record *entity.WarehouseStockRecord) error {
	r.db.stock[key(record.ProductID, record.WarehouseID)] = record
	return nil
}

type productRepo struct{ db *memDB }

func (r *productRepo) GetByID(_ context.Context, id string) (*entity.Product, error) {
	return r.db.products[id], nil
}

func (r *productRepo) UpdateAggregate(_ context.Context, productID string, countInStock int, status entity.InventoryStatus) error {
	p, ok := r.db.products[productID]
	if !ok {
		return errors.New("producto no existe")
	}
	p.CountInStock = countInStock
	p.InventoryStatus = status
	return nil
}

type orderRepo struct{ db *memDB }

func (r *orderRepo) GetByID(_ context.Context, id string) (*entity.Order, error) {
	o, ok := r.db.orders[id]
	if !ok {
		return nil, nil
	}
	cp := *o
	cp.Shipments = append([]entity.ShipmentRecord(nil), o.Shipments...)
	return &cp, nil
}

func (r *orderRepo) AppendShipment(_ context.Context, orderID string, shipment *entity.ShipmentRecord) error {
	o, ok := r.db.orders[orderID]
	if !ok {
		return errors.New("pedido no existe")
	}
	o.Shipments = append(o.Shipments, *shipment)
	return nil
}

func (r *orderRepo) UpdateFulfillmentStatus(_ context.Context, orderID string, status entity.FulfillmentStatus) error {
	o, ok := r.db.orders[orderID]
	if !ok {
		return errors.New("pedido no existe")
	}
	o.FulfillmentStatus = status
	return nil
}

type sellerRepo struct{ db *memDB }

func (r *sellerRepo) GetByID(_ context.Context, id string) (*entity.Seller, error) {
	return r.db.sellers[id], nil
}

func (r *sellerRepo) GetByUserID(_ context.Context, userID string) (*entity.Seller, error) {
	for _, s := range r.db.sellers {
		if s.UserID == userID {
			return s, nil
		}
	}
	return nil, nil
}

// fakeClient cliente con CreateShipment inyectable.
type fakeClient struct {
	code           provider.Code
	createShipment func(ctx context.Context, channelID string, in provider.ShipmentInput) (*provider.ShipmentResult, error)
	calls          []provider.ShipmentInput
}

func (f *fakeClient) Code() provider.Code { return f.code }

func (f *fakeClient) CreateProduct(context.Context, string, provider.ProductInput) (string, error) {
	return "ext-1", nil
}

func (f *fakeClient) UpdateInventory(context.Context, string, string, int) error { return nil }

func (f *fakeClient) GetInventory(context.Context, string, []string) ([]provider.InventoryItem, error) {
	return nil, nil
}

func (f *fakeClient) CreateShipment(ctx context.Context, channelID string, in provider.ShipmentInput) (*provider.ShipmentResult, error) {
	f.calls = append(f.calls, in)
	if f.createShipment != nil {
		return f.createShipment(ctx, channelID, in)
	}
	return &provider.ShipmentResult{TrackingID: "TRACK-" + string(f.code)}, nil
}

func (f *fakeClient) GetShipmentStatus(context.Context, string, string) (*provider.ShipmentStatus, error) {
	return &provider.ShipmentStatus{Status: "Processing"}, nil
}

type recordingNotifier struct {
	events []fulfillment.FulfillmentEvent
}

func (n *recordingNotifier) Notify(_ context.Context, event fulfillment.FulfillmentEvent) error {
	n.events = append(n.events, event)
	return nil
}

// ───────────────────────────── setup ─────────────────────────────

// seedTwoProviderOrder pedido con dos líneas que caen en proveedores distintos.
func seedTwoProviderOrder(db *memDB) {
	db.sellers["seller-1"] = &entity.Seller{
		ID: "seller-1", UserID: "user-1",
		Channels: map[provider.Code]string{
			provider.CodeShipBob: "ch-1",
			provider.CodeFourPX:  "cuenta-1",
		},
	}
	db.products["prod-a"] = &entity.Product{ID: "prod-a", SellerID: "seller-1", SKU: "SKU-A", CountInStock: 10}
	db.products["prod-b"] = &entity.Product{ID: "prod-b", SellerID: "seller-1", SKU: "SKU-B", CountInStock: 6}
	db.stock[key("prod-a", "wh-sb")] = &entity.WarehouseStockRecord{
		ProductID: "prod-a", WarehouseID: "wh-sb", Provider: provider.CodeShipBob,
		SKU: "SKU-A", Quantity: 10,
	}
	db.stock[key("prod-b", "wh-4px")] = &entity.WarehouseStockRecord{
		ProductID: "prod-b", WarehouseID: "wh-4px", Provider: provider.CodeFourPX,
		SKU: "SKU-B", Quantity: 6,
	}
	db.orders["ord-1"] = &entity.Order{
		ID: "ord-1", SellerID: "seller-1",
		FulfillmentStatus: entity.FulfillmentUnfulfilled,
		Items: []entity.OrderItem{
			{ProductID: "prod-a", SKU: "SKU-A", Name: "Camiseta", Quantity: 2, Price: decimal.NewFromInt(20)},
			{ProductID: "prod-b", SKU: "SKU-B", Name: "Gorra", Quantity: 1, Price: decimal.NewFromInt(10)},
		},
		ShippingAddress: entity.ShippingAddress{FullName: "Ana Pérez", City: "Bogotá", Country: "CO"},
	}
}

func newDispatcher(db *memDB, notifier fulfillment.Notifier, clients ...provider.Client) *fulfillment.Dispatcher {
	return fulfillment.NewDispatcher(
		provider.NewRegistry(clients...),
		&orderRepo{db: db},
		&sellerRepo{db: db},
		&stockRepo{db: db},
		nil,
		db,
		notifier,
		nil,
		logger.Nop(),
	)
}

// ───────────────────────────── tests ─────────────────────────────

func TestDispatch_TodosLosGruposDespachados(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)

	shipbob := &fakeClient{code: provider.CodeShipBob}
	fourpx := &fakeClient{code: provider.CodeFourPX}
	notifier := &recordingNotifier{}

	result, err := newDispatcher(db, notifier, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.NoError(t, err)

	assert.Equal(t, entity.FulfillmentFulfilled, result.Status)
	require.Len(t, result.Shipments, 2)
	assert.Equal(t, entity.FulfillmentFulfilled, db.orders["ord-1"].FulfillmentStatus)
	assert.Len(t, db.orders["ord-1"].Shipments, 2)

	// Descuento interno tras el envío confirmado.
	assert.Equal(t, 8, db.stock[key("prod-a", "wh-sb")].Quantity)
	assert.Equal(t, 5, db.stock[key("prod-b", "wh-4px")].Quantity)
	assert.Equal(t, 8, db.products["prod-a"].CountInStock)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, entity.FulfillmentFulfilled, notifier.events[0].Status)
	assert.Len(t, notifier.events[0].Shipments, 2)

	// Una línea por proveedor, con el valor declarado de su grupo.
	require.Len(t, shipbob.calls, 1)
	assert.True(t, shipbob.calls[0].DeclaredValue.Equal(decimal.NewFromInt(40)))
}

func TestDispatch_FalloParcialEsEstadoExplicito(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)

	shipbob := &fakeClient{code: provider.CodeShipBob}
	fourpx := &fakeClient{
		code: provider.CodeFourPX,
		createShipment: func(context.Context, string, provider.ShipmentInput) (*provider.ShipmentResult, error) {
			return nil, errors.New("gateway caído")
		},
	}
	notifier := &recordingNotifier{}

	result, err := newDispatcher(db, notifier, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.NoError(t, err, "el fallo parcial no es error del caso de uso")

	assert.Equal(t, entity.FulfillmentPartial, result.Status)
	require.Len(t, result.Shipments, 1)
	assert.Equal(t, provider.CodeShipBob, result.Shipments[0].Provider)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, provider.CodeFourPX, result.Failures[0].Provider)

	// Solo el grupo despachado descuenta stock.
	assert.Equal(t, 8, db.stock[key("prod-a", "wh-sb")].Quantity)
	assert.Equal(t, 6, db.stock[key("prod-b", "wh-4px")].Quantity, "el grupo fallido no toca su stock")

	assert.Equal(t, entity.FulfillmentPartial, db.orders["ord-1"].FulfillmentStatus)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, entity.FulfillmentPartial, notifier.events[0].Status)
}

func TestDispatch_TodosFallanDejaUnfulfilled(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)

	caido := func(context.Context, string, provider.ShipmentInput) (*provider.ShipmentResult, error) {
		return nil, errors.New("sin respuesta")
	}
	shipbob := &fakeClient{code: provider.CodeShipBob, createShipment: caido}
	fourpx := &fakeClient{code: provider.CodeFourPX, createShipment: caido}
	notifier := &recordingNotifier{}

	result, err := newDispatcher(db, notifier, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.Error(t, err)

	assert.Equal(t, entity.FulfillmentUnfulfilled, result.Status)
	assert.Empty(t, result.Shipments)
	assert.Equal(t, entity.FulfillmentUnfulfilled, db.orders["ord-1"].FulfillmentStatus)
	assert.Equal(t, 10, db.stock[key("prod-a", "wh-sb")].Quantity, "sin envíos no hay descuentos")
	assert.Empty(t, notifier.events, "sin envíos no hay evento")
}

func TestDispatch_StockInsuficienteAbortaAntesDeLlamar(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)
	db.stock[key("prod-b", "wh-4px")].Quantity = 0

	shipbob := &fakeClient{code: provider.CodeShipBob}
	fourpx := &fakeClient{code: provider.CodeFourPX}

	_, err := newDispatcher(db, nil, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.Empty(t, shipbob.calls, "ningún proveedor recibe llamadas si una línea no tiene cobertura")
	assert.Empty(t, fourpx.calls)
	assert.Equal(t, 10, db.stock[key("prod-a", "wh-sb")].Quantity)
}

func TestDispatch_LineasRepetidasNoCuentanElMismoStockDosVeces(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)
	// Dos líneas del mismo producto que juntas exceden la única bodega (10).
	db.orders["ord-1"].Items = []entity.OrderItem{
		{ProductID: "prod-a", SKU: "SKU-A", Name: "Camiseta", Quantity: 6, Price: decimal.NewFromInt(20)},
		{ProductID: "prod-a", SKU: "SKU-A", Name: "Camiseta", Quantity: 6, Price: decimal.NewFromInt(20)},
	}

	shipbob := &fakeClient{code: provider.CodeShipBob}
	fourpx := &fakeClient{code: provider.CodeFourPX}

	_, err := newDispatcher(db, nil, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.ErrorIs(t, err, domain.ErrInsufficientStock,
		"cada línea compromete stock: la segunda no puede reutilizar las mismas unidades")

	assert.Empty(t, shipbob.calls, "el pedido aborta antes de llamar al proveedor")
	assert.Equal(t, 10, db.stock[key("prod-a", "wh-sb")].Quantity)
}

func TestDispatch_SegundaLineaCaeEnOtraBodegaSiLaPrimeraQuedaCorta(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)
	db.stock[key("prod-a", "wh-sb2")] = &entity.WarehouseStockRecord{
		ProductID: "prod-a", WarehouseID: "wh-sb2", Provider: provider.CodeShipBob,
		SKU: "SKU-A", Quantity: 6,
	}
	db.orders["ord-1"].Items = []entity.OrderItem{
		{ProductID: "prod-a", SKU: "SKU-A", Name: "Camiseta", Quantity: 6, Price: decimal.NewFromInt(20)},
		{ProductID: "prod-a", SKU: "SKU-A", Name: "Camiseta", Quantity: 6, Price: decimal.NewFromInt(20)},
	}

	shipbob := &fakeClient{code: provider.CodeShipBob}
	fourpx := &fakeClient{code: provider.CodeFourPX}

	result, err := newDispatcher(db, nil, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.NoError(t, err)
	assert.Equal(t, entity.FulfillmentFulfilled, result.Status)

	// Primera línea en wh-sb (10 disponibles), la segunda ya solo ve 4 ahí y
	// cae en wh-sb2. Un único envío del proveedor con ambas líneas.
	require.Len(t, shipbob.calls, 1)
	assert.Len(t, shipbob.calls[0].Items, 2)
	assert.Equal(t, 4, db.stock[key("prod-a", "wh-sb")].Quantity)
	assert.Equal(t, 0, db.stock[key("prod-a", "wh-sb2")].Quantity)
	assert.Equal(t, 4, db.products["prod-a"].CountInStock)
}

func TestDispatch_PedidoYaDespachadoEsConflicto(t *testing.T) {
	db := newMemDB()
	seedTwoProviderOrder(db)
	db.orders["ord-1"].Shipments = []entity.ShipmentRecord{{Provider: provider.CodeShipBob, TrackingID: "T-1"}}

	shipbob := &fakeClient{code: provider.CodeShipBob}
	fourpx := &fakeClient{code: provider.CodeFourPX}

	_, err := newDispatcher(db, nil, shipbob, fourpx).Dispatch(context.Background(), "ord-1", "user-1")
	require.ErrorIs(t, err, domain.ErrConflict)
	assert.Empty(t, shipbob.calls)
}

func TestDispatch_PedidoInexistente(t *testing.T) {
	db := newMemDB()
	_, err := newDispatcher(db, nil, &fakeClient{code: provider.CodeShipBob}).Dispatch(context.Background(), "fantasma", "user-1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSelector_EligeMayorDisponibilidadQueCubra(t *testing.T) {
	records := []*entity.WarehouseStockRecord{
		{WarehouseID: "wh-a", Quantity: 3},
		{WarehouseID: "wh-b", Quantity: 8},
		{WarehouseID: "wh-c", Quantity: 8},
	}
	selector := fulfillment.HighestAvailableSelector{}

	chosen := selector.Select(records, entity.OrderItem{Quantity: 5})
	require.NotNil(t, chosen)
	assert.Equal(t, "wh-b", chosen.WarehouseID, "empate de disponibilidad se resuelve por WarehouseID")

	assert.Nil(t, selector.Select(records, entity.OrderItem{Quantity: 9}),
		"una línea no se parte entre bodegas: sin bodega capaz no hay selección")
}
