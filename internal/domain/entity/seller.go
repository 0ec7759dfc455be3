package entity

import (
	"time"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/provider"
)

// Seller proyección mínima del vendedor que necesita el motor: sus canales
// habilitados por proveedor de fulfillment. El CRUD completo de vendedores
// vive fuera de este servicio.
type Seller struct {
	ID        string
	UserID    string
	Name      string
	Channels  map[provider.Code]string // proveedor → channelID en ese proveedor
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ChannelFor devuelve el channelID del vendedor en el proveedor dado
// ("" si no tiene el canal habilitado).
func (s *Seller) ChannelFor(code provider.Code) string {
	if s == nil || s.Channels == nil {
		return ""
	}
	return s.Channels[code]
}
