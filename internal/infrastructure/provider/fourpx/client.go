// Package fourpx implementa el cliente para bodegas tipo 4PX: un gateway
// único que recibe todas las operaciones como POST firmados (MD5 con el
// app secret) y responde siempre HTTP 200 con un sobre result/msg/data.
// No hay OAuth: la firma por petición reemplaza al token.
package fourpx

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/httpx"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

var _ provider.Client = (*Client)(nil)

// Client cliente del proveedor 4PX.
type Client struct {
	gatewayURL string
	appKey     string
	appSecret  string
	exec       *httpx.Executor
	log        *logger.Logger
	now        func() time.Time
}

// New construye el cliente contra el gateway dado.
func New(gatewayURL, appKey, appSecret string, exec *httpx.Executor, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		gatewayURL: strings.TrimRight(gatewayURL, "/"),
		appKey:     appKey,
		appSecret:  appSecret,
		exec:       exec,
		log:        log,
		now:        time.Now,
	}
}

// Code devuelve el código del proveedor.
func (c *Client) Code() provider.Code { return provider.CodeFourPX }

// sign firma del gateway: MD5(appSecret + method + timestamp + body + appSecret)
// en hexadecimal mayúsculas.
func (c *Client) sign(method, timestamp string, body []byte) string {
	h := md5.New()
	h.Write([]byte(c.appSecret))
	h.Write([]byte(method))
	h.Write([]byte(timestamp))
	h.Write(body)
	h.Write([]byte(c.appSecret))
	return strings.ToUpper(fmt.Sprintf("%x", h.Sum(nil)))
}

// call ejecuta una operación del gateway y devuelve el campo data del sobre.
// channelID viaja como customer_code: identifica la cuenta del vendedor.
func (c *Client) call(ctx context.Context, channelID, method string, payload interface{}, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serializar payload de %s: %w", method, err)
	}

	raw, err := c.exec.Do(ctx, httpx.Request{
		Build: func(ctx context.Context) (*http.Request, error) {
			timestamp := strconv.FormatInt(c.now().UnixMilli(), 10)
			query := url.Values{
				"method":        {method},
				"app_key":       {c.appKey},
				"customer_code": {channelID},
				"format":        {"json"},
				"v":             {"1.0"},
				"timestamp":     {timestamp},
				"sign":          {c.sign(method, timestamp, body)},
			}
			req, err := http.NewRequestWithContext(ctx, http.MethodPost,
				c.gatewayURL+"?"+query.Encode(), bytes.NewReader(body))
			if err != nil {
				return nil, err
			}
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Accept", "application/json")
			return req, nil
		},
	})
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("parsear sobre de %s: %w", method, err)
	}
	if env.Result != "1" {
		return mapGatewayError(method, env)
	}
	if out == nil {
		return nil
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("respuesta de %s sin data", method)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("parsear data de %s: %w", method, err)
	}
	return nil
}

// mapGatewayError traduce el error de negocio del sobre a los errores del
// dominio de proveedores. El gateway no usa códigos HTTP para esto.
func mapGatewayError(method string, env envelope) error {
	code := strings.ToLower(env.ErrCode)
	msg := strings.ToLower(env.Msg)
	switch {
	case code == "duplicate" || strings.Contains(msg, "duplicate") || strings.Contains(msg, "already exists"):
		return fmt.Errorf("%w: %s: %s", provider.ErrDuplicateReference, method, env.Msg)
	case code == "insufficient_stock" || strings.Contains(msg, "insufficient"):
		return fmt.Errorf("%w: %s: %s", provider.ErrInsufficientInventory, method, env.Msg)
	case code == "sign_error" || code == "invalid_app_key" || strings.Contains(msg, "sign"):
		return fmt.Errorf("%w: %s: %s", provider.ErrAuth, method, env.Msg)
	default:
		return &provider.UnprocessableError{Code: env.ErrCode, Detail: fmt.Sprintf("%s: %s", method, env.Msg)}
	}
}

// CreateProduct registra el SKU en 4PX. Duplicado = ya registrado por un
// intento anterior: se recupera el ID existente con ds.product.get.
func (c *Client) CreateProduct(ctx context.Context, channelID string, in provider.ProductInput) (string, error) {
	if in.SKU == "" || in.Name == "" {
		return "", fmt.Errorf("%w: producto requiere sku y nombre", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return "", fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}

	payload := productAddPayload{SKU: in.SKU, Name: in.Name}
	if d := in.Dimensions; d != nil {
		payload.Length = d.Length.String()
		payload.Width = d.Width.String()
		payload.Height = d.Height.String()
		payload.Weight = d.Weight.String()
	}

	var data productAddData
	err := c.call(ctx, channelID, "ds.product.add", payload, &data)
	if err == nil {
		return data.ProductID, nil
	}
	if !isDuplicate(err) {
		return "", err
	}

	c.log.Info().Str("sku", in.SKU).Str("channel_id", channelID).
		Msg("sku ya registrado en 4px, recuperando product_id")
	var existing productAddData
	if gerr := c.call(ctx, channelID, "ds.product.get", productAddPayload{SKU: in.SKU}, &existing); gerr != nil {
		return "", gerr
	}
	if existing.ProductID == "" {
		return "", fmt.Errorf("%w: sku %s duplicado pero ds.product.get no lo devuelve", domain.ErrNotFound, in.SKU)
	}
	return existing.ProductID, nil
}

// UpdateInventory fija la cantidad absoluta del SKU en bodega.
func (c *Client) UpdateInventory(ctx context.Context, channelID, sku string, quantity int) error {
	if sku == "" {
		return fmt.Errorf("%w: sku vacío", domain.ErrInvalidInput)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}
	return c.call(ctx, channelID, "ds.inventory.update", inventoryUpdatePayload{SKU: sku, Quantity: quantity}, nil)
}

// GetInventory consulta disponibilidad por SKU.
func (c *Client) GetInventory(ctx context.Context, channelID string, skus []string) ([]provider.InventoryItem, error) {
	var data inventoryGetData
	if err := c.call(ctx, channelID, "ds.inventory.get", inventoryGetPayload{SKUs: skus}, &data); err != nil {
		return nil, err
	}

	out := make([]provider.InventoryItem, 0, len(data.Items))
	for _, it := range data.Items {
		out = append(out, provider.InventoryItem{
			SKU:       it.SKU,
			Available: it.Available,
			Location:  it.WarehouseCode,
		})
	}
	return out, nil
}

// CreateShipment crea el envío tras la verificación just-in-time de
// disponibilidad y el registro de los SKUs desconocidos por la bodega.
func (c *Client) CreateShipment(ctx context.Context, channelID string, in provider.ShipmentInput) (*provider.ShipmentResult, error) {
	if in.OrderRef == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: envío requiere referencia y al menos una línea", domain.ErrInvalidInput)
	}

	skus := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		skus = append(skus, item.SKU)
	}
	inventory, err := c.GetInventory(ctx, channelID, skus)
	if err != nil {
		return nil, fmt.Errorf("verificar disponibilidad: %w", err)
	}
	available := make(map[string]int, len(inventory))
	for _, it := range inventory {
		available[it.SKU] += it.Available
	}

	for _, item := range in.Items {
		qty, known := available[item.SKU]
		if !known {
			if _, err := c.CreateProduct(ctx, channelID, provider.ProductInput{SKU: item.SKU, Name: item.Name}); err != nil {
				return nil, fmt.Errorf("registrar sku %s antes del envío: %w", item.SKU, err)
			}
			qty = 0
		}
		if qty < item.Quantity {
			return nil, fmt.Errorf("%w: sku %s pide %d y la bodega tiene %d",
				provider.ErrInsufficientInventory, item.SKU, item.Quantity, qty)
		}
	}

	payload := orderCreatePayload{
		RefNo:         in.OrderRef,
		DeclaredValue: in.DeclaredValue.String(),
		Consignee: consigneePayload{
			Name:     in.Address.FullName,
			Phone:    in.Address.Phone,
			Street:   in.Address.Street,
			City:     in.Address.City,
			Province: in.Address.State,
			PostCode: in.Address.PostalCode,
			Country:  in.Address.Country,
		},
	}
	for _, item := range in.Items {
		payload.Items = append(payload.Items, orderItemData{SKU: item.SKU, Name: item.Name, Qty: item.Quantity})
	}

	var data orderCreateData
	err = c.call(ctx, channelID, "ds.xms.order.create", payload, &data)
	if err != nil {
		if isDuplicate(err) {
			c.log.Info().Str("order_ref", in.OrderRef).Str("channel_id", channelID).
				Msg("pedido ya creado en 4px, recuperando tracking")
			return c.findShipmentByRef(ctx, channelID, in.OrderRef)
		}
		return nil, err
	}
	if data.TrackingNo == "" {
		return nil, fmt.Errorf("el gateway no devolvió tracking para el pedido %s", in.OrderRef)
	}
	return &provider.ShipmentResult{TrackingID: data.TrackingNo}, nil
}

// findShipmentByRef recupera el tracking de un pedido ya registrado bajo la
// misma referencia.
func (c *Client) findShipmentByRef(ctx context.Context, channelID, orderRef string) (*provider.ShipmentResult, error) {
	var data orderCreateData
	if err := c.call(ctx, channelID, "ds.xms.order.get", map[string]string{"ref_no": orderRef}, &data); err != nil {
		return nil, err
	}
	if data.TrackingNo == "" {
		return nil, fmt.Errorf("%w: pedido %s duplicado pero ds.xms.order.get no lo devuelve", domain.ErrNotFound, orderRef)
	}
	return &provider.ShipmentResult{TrackingID: data.TrackingNo}, nil
}

// GetShipmentStatus consulta el tracking con ds.xms.track.query.
func (c *Client) GetShipmentStatus(ctx context.Context, channelID, trackingID string) (*provider.ShipmentStatus, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("%w: tracking vacío", domain.ErrInvalidInput)
	}

	var data trackQueryData
	if err := c.call(ctx, channelID, "ds.xms.track.query", trackQueryPayload{TrackingNo: trackingID}, &data); err != nil {
		return nil, err
	}

	status := &provider.ShipmentStatus{Status: data.Status, Location: data.Location}
	for _, ev := range data.Events {
		ts, err := time.Parse(time.RFC3339, ev.OccurredAt)
		if err != nil {
			ts = time.Time{}
		}
		status.Events = append(status.Events, provider.TrackingEvent{
			Timestamp:   ts,
			Location:    ev.Location,
			Description: ev.Description,
		})
	}
	return status, nil
}

func isDuplicate(err error) bool {
	return errors.Is(err, provider.ErrDuplicateReference)
}
