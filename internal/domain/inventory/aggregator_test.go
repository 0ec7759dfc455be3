package inventory_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/entity"
	"github.com/Mark-Lasfar/mgzonapk-sub002/internal/domain/inventory"
)

func record(qty, minStock int, variants ...entity.ColorStock) *entity.WarehouseStockRecord {
	return &entity.WarehouseStockRecord{
		Quantity:     qty,
		MinimumStock: minStock,
		Variants:     variants,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Fronteras de estado: total=0 → OUT_OF_STOCK sin importar mínimos;
// total>0 y total ≤ min(minimumStock) → LOW_STOCK; si no IN_STOCK.
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregateStock_Estados(t *testing.T) {
	cases := []struct {
		name     string
		records  []*entity.WarehouseStockRecord
		total    int
		expected entity.InventoryStatus
	}{
		{
			name:     "total cero es OUT_OF_STOCK aunque los mínimos sean cero",
			records:  []*entity.WarehouseStockRecord{record(0, 0), record(0, 0)},
			total:    0,
			expected: entity.StatusOutOfStock,
		},
		{
			name:     "total igual al mínimo más bajo es LOW_STOCK",
			records:  []*entity.WarehouseStockRecord{record(5, 5), record(0, 10)},
			total:    5,
			expected: entity.StatusLowStock,
		},
		{
			name:     "total por encima de todos los mínimos es IN_STOCK",
			records:  []*entity.WarehouseStockRecord{record(8, 3), record(4, 5)},
			total:    12,
			expected: entity.StatusInStock,
		},
		{
			name:     "una sola bodega con stock bajo",
			records:  []*entity.WarehouseStockRecord{record(2, 10)},
			total:    2,
			expected: entity.StatusLowStock,
		},
		{
			name:     "sin registros es OUT_OF_STOCK",
			records:  nil,
			total:    0,
			expected: entity.StatusOutOfStock,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			agg := inventory.AggregateStock(tc.records)
			assert.Equal(t, tc.total, agg.CountInStock, "CountInStock debe ser la suma de cantidades")
			assert.Equal(t, tc.expected, agg.Status)
		})
	}
}

// TestAggregateStock_Invariante verifica que CountInStock siempre es la suma
// exacta de las cantidades por bodega.
func TestAggregateStock_Invariante(t *testing.T) {
	records := []*entity.WarehouseStockRecord{record(7, 0), record(13, 2), record(0, 5)}
	agg := inventory.AggregateStock(records)

	sum := 0
	for _, r := range records {
		sum += r.Quantity
	}
	assert.Equal(t, sum, agg.CountInStock)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fusión de variantes: colores con el mismo nombre entre bodegas se suman por
// talla; InStock de la talla fusionada = suma > 0.
// ──────────────────────────────────────────────────────────────────────────────

func TestAggregateStock_FusionaColores(t *testing.T) {
	warehouseA := record(10, 0, entity.ColorStock{
		Color: "negro",
		Sizes: []entity.SizeStock{
			{Size: "M", Quantity: 4},
			{Size: "L", Quantity: 0},
		},
	})
	warehouseB := record(6, 0,
		entity.ColorStock{
			Color: "negro",
			Sizes: []entity.SizeStock{
				{Size: "M", Quantity: 2},
				{Size: "XL", Quantity: 1},
			},
		},
		entity.ColorStock{
			Color: "rojo",
			Sizes: []entity.SizeStock{{Size: "M", Quantity: 3}},
		},
	)

	agg := inventory.AggregateStock([]*entity.WarehouseStockRecord{warehouseA, warehouseB})

	require.Len(t, agg.MergedColors, 2, "negro fusionado + rojo")

	negro := agg.MergedColors[0]
	assert.Equal(t, "negro", negro.Color)
	require.Len(t, negro.Sizes, 3)
	assert.Equal(t, entity.SizeStock{Size: "M", Quantity: 6, InStock: true}, negro.Sizes[0])
	assert.Equal(t, entity.SizeStock{Size: "L", Quantity: 0, InStock: false}, negro.Sizes[1])
	assert.Equal(t, entity.SizeStock{Size: "XL", Quantity: 1, InStock: true}, negro.Sizes[2])

	rojo := agg.MergedColors[1]
	assert.Equal(t, "rojo", rojo.Color)
	require.Len(t, rojo.Sizes, 1)
	assert.True(t, rojo.Sizes[0].InStock)
}

// TestAggregateStock_SinVariantes no debe inventar colores.
func TestAggregateStock_SinVariantes(t *testing.T) {
	agg := inventory.AggregateStock([]*entity.WarehouseStockRecord{record(5, 1)})
	assert.Nil(t, agg.MergedColors)
}

// TestAggregateStock_EsPura la entrada no se modifica al agregar.
func TestAggregateStock_EsPura(t *testing.T) {
	rec := record(3, 1, entity.ColorStock{
		Color: "azul",
		Sizes: []entity.SizeStock{{Size: "S", Quantity: 3}},
	})
	_ = inventory.AggregateStock([]*entity.WarehouseStockRecord{rec})

	assert.Equal(t, 3, rec.Quantity)
	assert.Equal(t, 3, rec.Variants[0].Sizes[0].Quantity)
}
