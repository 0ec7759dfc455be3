// Package shipbob implementa el cliente para bodegas tipo ShipBob: API REST
// JSON con OAuth por canal. Toda petición sale por el ejecutor compartido y
// lleva el access token vigente del canal; ante un 401 el token se invalida y
// el siguiente intento se re-autentica solo.
package shipbob

import (
	"bytes"
	"context"
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
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/infrastructure/provider/token"
	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

var _ provider.Client = (*Client)(nil)

// Client cliente del proveedor ShipBob.
type Client struct {
	baseURL string
	tokens  *token.Manager
	exec    *httpx.Executor
	log     *logger.Logger
}

// New construye el cliente. baseURL sin slash final.
func New(baseURL string, tokens *token.Manager, exec *httpx.Executor, log *logger.Logger) *Client {
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		tokens:  tokens,
		exec:    exec,
		log:     log,
	}
}

// Code devuelve el código del proveedor.
func (c *Client) Code() provider.Code { return provider.CodeShipBob }

// request arma la petición autenticada del canal. El token se resuelve dentro
// de Build: el reintento tras un 401 construye la petición de nuevo y recoge
// el token refrescado.
func (c *Client) request(channelID, method, path string, query url.Values, payload interface{}) httpx.Request {
	return httpx.Request{
		Build: func(ctx context.Context) (*http.Request, error) {
			accessToken, err := c.tokens.AccessToken(ctx, channelID)
			if err != nil {
				return nil, err
			}

			u := c.baseURL + path
			if len(query) > 0 {
				u += "?" + query.Encode()
			}

			var body *bytes.Reader
			if payload != nil {
				raw, err := json.Marshal(payload)
				if err != nil {
					return nil, fmt.Errorf("serializar payload: %w", err)
				}
				body = bytes.NewReader(raw)
			} else {
				body = bytes.NewReader(nil)
			}

			req, err := http.NewRequestWithContext(ctx, method, u, body)
			if err != nil {
				return nil, err
			}
			req.Header.Set("Authorization", "Bearer "+accessToken)
			req.Header.Set("shipbob_channel_id", channelID)
			req.Header.Set("Accept", "application/json")
			if payload != nil {
				req.Header.Set("Content-Type", "application/json")
			}
			return req, nil
		},
		OnUnauthorized: func(ctx context.Context) error {
			return c.tokens.Invalidate(ctx, channelID)
		},
	}
}

// CreateProduct registra el producto y devuelve su ID externo. Si la
// referencia ya existe (un reintento previo sí llegó) busca el producto
// existente y devuelve su ID.
func (c *Client) CreateProduct(ctx context.Context, channelID string, in provider.ProductInput) (string, error) {
	if in.SKU == "" || in.Name == "" {
		return "", fmt.Errorf("%w: producto requiere sku y nombre", domain.ErrInvalidInput)
	}
	if in.Quantity < 0 {
		return "", fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}

	payload := productPayload{ReferenceID: in.SKU, Name: in.Name}
	if in.Dimensions != nil {
		payload.Dimensions = &dimensionsPayload{
			Length: in.Dimensions.Length,
			Width:  in.Dimensions.Width,
			Height: in.Dimensions.Height,
			Weight: in.Dimensions.Weight,
		}
	}

	body, err := c.exec.Do(ctx, c.request(channelID, http.MethodPost, "/1.0/product", nil, payload))
	if err != nil {
		if errors.Is(err, provider.ErrDuplicateReference) {
			c.log.Info().Str("sku", in.SKU).Str("channel_id", channelID).
				Msg("producto ya registrado, recuperando por referencia")
			return c.findProductByReference(ctx, channelID, in.SKU)
		}
		return "", err
	}

	var resp productResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parsear producto creado: %w", err)
	}
	return strconv.FormatInt(resp.ID, 10), nil
}

// findProductByReference resuelve el ID externo de un producto ya registrado.
func (c *Client) findProductByReference(ctx context.Context, channelID, sku string) (string, error) {
	query := url.Values{"reference_id": {sku}}
	body, err := c.exec.Do(ctx, c.request(channelID, http.MethodGet, "/1.0/product", query, nil))
	if err != nil {
		return "", err
	}

	var products []productResponse
	if err := json.Unmarshal(body, &products); err != nil {
		return "", fmt.Errorf("parsear búsqueda de producto: %w", err)
	}
	for _, p := range products {
		if p.ReferenceID == sku {
			return strconv.FormatInt(p.ID, 10), nil
		}
	}
	return "", fmt.Errorf("%w: producto %s reportado como duplicado pero no aparece en la búsqueda", domain.ErrNotFound, sku)
}

// UpdateInventory fija la cantidad absoluta disponible del SKU.
func (c *Client) UpdateInventory(ctx context.Context, channelID, sku string, quantity int) error {
	if sku == "" {
		return fmt.Errorf("%w: sku vacío", domain.ErrInvalidInput)
	}
	if quantity < 0 {
		return fmt.Errorf("%w: cantidad negativa", domain.ErrInvalidInput)
	}

	path := "/1.0/inventory/" + url.PathEscape(sku)
	_, err := c.exec.Do(ctx, c.request(channelID, http.MethodPut, path, nil, inventoryUpdatePayload{Quantity: quantity}))
	return err
}

// GetInventory consulta la disponibilidad reportada por la bodega.
func (c *Client) GetInventory(ctx context.Context, channelID string, skus []string) ([]provider.InventoryItem, error) {
	query := url.Values{}
	if len(skus) > 0 {
		query.Set("skus", strings.Join(skus, ","))
	}

	body, err := c.exec.Do(ctx, c.request(channelID, http.MethodGet, "/1.0/inventory", query, nil))
	if err != nil {
		return nil, err
	}

	var items []inventoryResponse
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("parsear inventario: %w", err)
	}

	out := make([]provider.InventoryItem, 0, len(items))
	for _, it := range items {
		out = append(out, provider.InventoryItem{
			SKU:       it.ReferenceID,
			Available: it.FulfillableQty,
			Location:  it.FulfillmentCenter.Name,
		})
	}
	return out, nil
}

// CreateShipment crea el envío. Antes de llamar al endpoint de pedidos
// verifica disponibilidad just-in-time de cada línea y registra los SKUs que
// la bodega aún no conoce; un SKU recién registrado arranca en cero y cae en
// ErrInsufficientInventory como cualquier otro faltante.
func (c *Client) CreateShipment(ctx context.Context, channelID string, in provider.ShipmentInput) (*provider.ShipmentResult, error) {
	if in.OrderRef == "" || len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: envío requiere referencia y al menos una línea", domain.ErrInvalidInput)
	}

	skus := make([]string, 0, len(in.Items))
	for _, item := range in.Items {
		skus = append(skus, item.SKU)
	}

	available, err := c.availability(ctx, channelID, skus)
	if err != nil {
		return nil, err
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

	payload := orderPayload{
		ReferenceID: in.OrderRef,
		Recipient: recipientPayload{
			Name:  in.Address.FullName,
			Phone: in.Address.Phone,
			Address: addressPayload{
				Address1: in.Address.Street,
				City:     in.Address.City,
				State:    in.Address.State,
				ZipCode:  in.Address.PostalCode,
				Country:  in.Address.Country,
			},
		},
		DeclaredValue: in.DeclaredValue,
	}
	for _, item := range in.Items {
		payload.Products = append(payload.Products, orderLinePayload{
			ReferenceID: item.SKU,
			Name:        item.Name,
			Quantity:    item.Quantity,
		})
	}

	body, err := c.exec.Do(ctx, c.request(channelID, http.MethodPost, "/1.0/order", nil, payload))
	if err != nil {
		if errors.Is(err, provider.ErrDuplicateReference) {
			c.log.Info().Str("order_ref", in.OrderRef).Str("channel_id", channelID).
				Msg("pedido ya creado en el proveedor, recuperando tracking por referencia")
			return c.findShipmentByReference(ctx, channelID, in.OrderRef)
		}
		return nil, err
	}

	var resp orderResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsear pedido creado: %w", err)
	}
	return shipmentResult(resp, in.OrderRef)
}

// availability indexa por SKU la disponibilidad reportada.
func (c *Client) availability(ctx context.Context, channelID string, skus []string) (map[string]int, error) {
	items, err := c.GetInventory(ctx, channelID, skus)
	if err != nil {
		return nil, fmt.Errorf("verificar disponibilidad: %w", err)
	}
	out := make(map[string]int, len(items))
	for _, it := range items {
		out[it.SKU] += it.Available
	}
	return out, nil
}

// findShipmentByReference recupera el tracking de un pedido que el proveedor
// ya tenía registrado bajo la misma referencia.
func (c *Client) findShipmentByReference(ctx context.Context, channelID, orderRef string) (*provider.ShipmentResult, error) {
	query := url.Values{"reference_id": {orderRef}}
	body, err := c.exec.Do(ctx, c.request(channelID, http.MethodGet, "/1.0/order", query, nil))
	if err != nil {
		return nil, err
	}

	var orders []orderResponse
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("parsear búsqueda de pedido: %w", err)
	}
	if len(orders) == 0 {
		return nil, fmt.Errorf("%w: pedido %s reportado como duplicado pero no aparece en la búsqueda", domain.ErrNotFound, orderRef)
	}
	return shipmentResult(orders[0], orderRef)
}

func shipmentResult(resp orderResponse, orderRef string) (*provider.ShipmentResult, error) {
	if len(resp.Shipments) == 0 || resp.Shipments[0].Tracking.TrackingNumber == "" {
		return nil, fmt.Errorf("el proveedor no devolvió tracking para el pedido %s", orderRef)
	}
	return &provider.ShipmentResult{TrackingID: resp.Shipments[0].Tracking.TrackingNumber}, nil
}

// GetShipmentStatus consulta estado e historial del envío por tracking.
func (c *Client) GetShipmentStatus(ctx context.Context, channelID, trackingID string) (*provider.ShipmentStatus, error) {
	if trackingID == "" {
		return nil, fmt.Errorf("%w: tracking vacío", domain.ErrInvalidInput)
	}

	path := "/1.0/shipment/" + url.PathEscape(trackingID)
	body, err := c.exec.Do(ctx, c.request(channelID, http.MethodGet, path, nil, nil))
	if err != nil {
		return nil, err
	}

	var resp shipmentResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parsear estado del envío: %w", err)
	}

	status := &provider.ShipmentStatus{
		Status:   resp.Status,
		Location: resp.Location.Name,
	}
	for _, ev := range resp.StatusHistory {
		ts, err := time.Parse(time.RFC3339, ev.TimeStamp)
		if err != nil {
			// Evento con timestamp ilegible: se conserva sin fecha.
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
