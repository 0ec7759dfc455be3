package fourpx

import "encoding/json"

// envelope sobre estándar del gateway: result "1" = éxito, "0" = error de
// negocio (el HTTP es 200 en ambos casos).
type envelope struct {
	Result  string          `json:"result"`
	Msg     string          `json:"msg"`
	ErrCode string          `json:"err_code"`
	Data    json.RawMessage `json:"data"`
}

// productAddPayload cuerpo de ds.product.add.
type productAddPayload struct {
	SKU    string `json:"sku"`
	Name   string `json:"product_name"`
	Length string `json:"length,omitempty"`
	Width  string `json:"width,omitempty"`
	Height string `json:"height,omitempty"`
	Weight string `json:"weight,omitempty"`
}

// productAddData respuesta de ds.product.add y ds.product.get.
type productAddData struct {
	ProductID string `json:"product_id"`
	SKU       string `json:"sku"`
}

// inventoryGetPayload cuerpo de ds.inventory.get.
type inventoryGetPayload struct {
	SKUs []string `json:"skus,omitempty"`
}

// inventoryGetData respuesta de ds.inventory.get.
type inventoryGetData struct {
	Items []inventoryItemData `json:"items"`
}

type inventoryItemData struct {
	SKU           string `json:"sku"`
	Available     int    `json:"available_qty"`
	WarehouseCode string `json:"warehouse_code"`
}

// inventoryUpdatePayload cuerpo de ds.inventory.update.
type inventoryUpdatePayload struct {
	SKU      string `json:"sku"`
	Quantity int    `json:"qty"`
}

// orderCreatePayload cuerpo de ds.xms.order.create.
type orderCreatePayload struct {
	RefNo         string           `json:"ref_no"`
	DeclaredValue string           `json:"declared_value"`
	Consignee     consigneePayload `json:"consignee"`
	Items         []orderItemData  `json:"items"`
}

type consigneePayload struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Street   string `json:"street"`
	City     string `json:"city"`
	Province string `json:"province"`
	PostCode string `json:"post_code"`
	Country  string `json:"country_code"`
}

type orderItemData struct {
	SKU  string `json:"sku"`
	Name string `json:"product_name"`
	Qty  int    `json:"qty"`
}

// orderCreateData respuesta de ds.xms.order.create.
type orderCreateData struct {
	TrackingNo string `json:"tracking_no"`
}

// trackQueryPayload cuerpo de ds.xms.track.query.
type trackQueryPayload struct {
	TrackingNo string `json:"tracking_no"`
}

// trackQueryData respuesta de ds.xms.track.query.
type trackQueryData struct {
	Status   string           `json:"status"`
	Location string           `json:"location"`
	Events   []trackEventData `json:"events"`
}

type trackEventData struct {
	OccurredAt  string `json:"occurred_at"`
	Location    string `json:"location"`
	Description string `json:"description"`
}
