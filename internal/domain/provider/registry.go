package provider

import (
	"fmt"
	"sort"
)

// Registry registro de clientes de proveedor construido en el arranque y
// pasado por inyección al coordinador y al despachador. Reemplaza el mapa
// global proveedor→cliente: sin singletons de proceso, testeable con fakes.
type Registry struct {
	clients map[Code]Client
}

// NewRegistry construye el registro con los clientes dados.
func NewRegistry(clients ...Client) *Registry {
	m := make(map[Code]Client, len(clients))
	for _, c := range clients {
		m[c.Code()] = c
	}
	return &Registry{clients: m}
}

// Get devuelve el cliente para el código o ErrUnknownProvider.
func (r *Registry) Get(code Code) (Client, error) {
	c, ok := r.clients[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProvider, code)
	}
	return c, nil
}

// Codes devuelve los códigos registrados en orden estable.
func (r *Registry) Codes() []Code {
	out := make([]Code, 0, len(r.clients))
	for c := range r.clients {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
