package shipbob

import "github.com/shopspring/decimal"

// productPayload cuerpo de registro de producto. reference_id es el SKU
// interno: la clave de idempotencia del lado del proveedor.
type productPayload struct {
	ReferenceID string             `json:"reference_id"`
	Name        string             `json:"name"`
	Dimensions  *dimensionsPayload `json:"dimensions,omitempty"`
}

type dimensionsPayload struct {
	Length decimal.Decimal `json:"length"`
	Width  decimal.Decimal `json:"width"`
	Height decimal.Decimal `json:"height"`
	Weight decimal.Decimal `json:"weight"`
}

// productResponse respuesta de creación o búsqueda de producto.
type productResponse struct {
	ID          int64  `json:"id"`
	ReferenceID string `json:"reference_id"`
	Name        string `json:"name"`
}

// inventoryResponse ítem de la consulta de inventario.
type inventoryResponse struct {
	ReferenceID       string `json:"reference_id"`
	FulfillableQty    int    `json:"total_fulfillable_quantity"`
	FulfillmentCenter struct {
		Name string `json:"name"`
	} `json:"fulfillment_center"`
}

// inventoryUpdatePayload cuerpo del ajuste absoluto de inventario.
type inventoryUpdatePayload struct {
	Quantity int `json:"quantity"`
}

// orderPayload cuerpo de creación de pedido de envío.
type orderPayload struct {
	ReferenceID   string             `json:"reference_id"`
	Recipient     recipientPayload   `json:"recipient"`
	Products      []orderLinePayload `json:"products"`
	DeclaredValue decimal.Decimal    `json:"declared_value"`
}

type recipientPayload struct {
	Name    string         `json:"name"`
	Phone   string         `json:"phone_number"`
	Address addressPayload `json:"address"`
}

type addressPayload struct {
	Address1 string `json:"address1"`
	City     string `json:"city"`
	State    string `json:"state"`
	ZipCode  string `json:"zip_code"`
	Country  string `json:"country"`
}

type orderLinePayload struct {
	ReferenceID string `json:"reference_id"`
	Name        string `json:"name"`
	Quantity    int    `json:"quantity"`
}

// orderResponse respuesta de creación o búsqueda de pedido.
type orderResponse struct {
	ID        int64              `json:"id"`
	Shipments []shipmentResponse `json:"shipments"`
}

// shipmentResponse estado de un envío con su historial.
type shipmentResponse struct {
	ID       int64  `json:"id"`
	Status   string `json:"status"`
	Location struct {
		Name string `json:"name"`
	} `json:"location"`
	Tracking struct {
		TrackingNumber string `json:"tracking_number"`
	} `json:"tracking"`
	StatusHistory []statusEventResponse `json:"status_history"`
}

type statusEventResponse struct {
	TimeStamp   string `json:"time_stamp"`
	Location    string `json:"location"`
	Description string `json:"description"`
}
