package provider

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Code identifica un proveedor de fulfillment externo.
type Code string

const (
	// CodeShipBob bodegas tipo ShipBob (OAuth, API REST JSON).
	CodeShipBob Code = "shipbob"
	// CodeFourPX bodegas tipo 4PX (peticiones firmadas, gateway único).
	CodeFourPX Code = "4px"
)

// IsValid indica si el código corresponde a un proveedor conocido.
func (c Code) IsValid() bool {
	switch c {
	case CodeShipBob, CodeFourPX:
		return true
	default:
		return false
	}
}

// String devuelve el código como string.
func (c Code) String() string { return string(c) }

// Dimensions dimensiones físicas de un producto para registro en bodega.
type Dimensions struct {
	Length decimal.Decimal
	Width  decimal.Decimal
	Height decimal.Decimal
	Weight decimal.Decimal
}

// ProductInput datos para registrar un producto en el proveedor.
type ProductInput struct {
	SKU        string
	Name       string
	Quantity   int
	Dimensions *Dimensions // opcional
}

// InventoryItem disponibilidad de un SKU reportada por el proveedor.
type InventoryItem struct {
	SKU       string
	Available int
	Location  string
}

// ShipmentItem línea de un envío a crear en el proveedor.
type ShipmentItem struct {
	SKU      string
	Name     string
	Quantity int
}

// Address dirección de entrega del envío.
type Address struct {
	FullName   string
	Phone      string
	Street     string
	City       string
	State      string
	PostalCode string
	Country    string
}

// ShipmentInput petición de creación de envío.
type ShipmentInput struct {
	OrderRef      string // referencia del pedido interno (idempotencia del lado del proveedor)
	Items         []ShipmentItem
	Address       Address
	DeclaredValue decimal.Decimal // valor declarado para aduanas
}

// ShipmentResult resultado de la creación de un envío.
type ShipmentResult struct {
	TrackingID string
}

// TrackingEvent evento del historial de un envío.
type TrackingEvent struct {
	Timestamp   time.Time
	Location    string
	Description string
}

// ShipmentStatus estado actual de un envío según el proveedor.
type ShipmentStatus struct {
	Status   string
	Location string
	Events   []TrackingEvent
}

// Client contrato que implementa cada variante de proveedor de fulfillment.
// channelID identifica el canal del vendedor en ese proveedor; las credenciales
// (token OAuth o firma) se resuelven por canal.
//
// Todas las operaciones llevan context con timeout acotado y pasan por el
// ejecutor de peticiones (reintentos 429, re-autenticación 401, parsing 422).
type Client interface {
	// Code devuelve el código del proveedor que atiende este cliente.
	Code() Code

	// CreateProduct registra un producto y devuelve el ID externo asignado.
	// Si el proveedor responde "referencia duplicada" (reintento previo que sí
	// llegó), busca el producto existente por referencia y devuelve su ID en
	// lugar de fallar.
	CreateProduct(ctx context.Context, channelID string, in ProductInput) (string, error)

	// UpdateInventory fija la cantidad disponible de un SKU. Idempotente:
	// repetir la misma cantidad no tiene efecto externo.
	UpdateInventory(ctx context.Context, channelID, sku string, quantity int) error

	// GetInventory consulta disponibilidad. skus vacío = todos los del canal.
	GetInventory(ctx context.Context, channelID string, skus []string) ([]InventoryItem, error)

	// CreateShipment crea un envío. Verifica disponibilidad just-in-time de
	// cada SKU y garantiza que todos estén registrados como producto del canal
	// antes de crear el envío. Falla con ErrInsufficientInventory si algún
	// ítem no alcanza la cantidad pedida.
	CreateShipment(ctx context.Context, channelID string, in ShipmentInput) (*ShipmentResult, error)

	// GetShipmentStatus consulta el estado y el historial de un envío.
	GetShipmentStatus(ctx context.Context, channelID, trackingID string) (*ShipmentStatus, error)
}
