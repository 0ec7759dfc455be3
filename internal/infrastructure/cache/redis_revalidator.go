package cache

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/Mark-Lasfar/mgzonapk-sub002/pkg/logger"
)

// revalidateChannel canal pub/sub que escuchan los frontales para refrescar
// sus vistas de producto cacheadas.
const revalidateChannel = "revalidate"

// RedisViewInvalidator invalida las vistas de producto cacheadas tras un
// cambio de stock: borra la clave de la vista y publica el aviso de
// revalidación. Falla en silencio hacia el caller (solo log): la escritura en
// base de datos ya quedó confirmada.
type RedisViewInvalidator struct {
	rdb *redis.Client
	log *logger.Logger
}

// NewRedisViewInvalidator construye el invalidador.
func NewRedisViewInvalidator(rdb *redis.Client, log *logger.Logger) *RedisViewInvalidator {
	if log == nil {
		log = logger.Nop()
	}
	return &RedisViewInvalidator{rdb: rdb, log: log}
}

// InvalidateProduct borra la vista cacheada del producto y avisa a los
// suscriptores.
func (v *RedisViewInvalidator) InvalidateProduct(ctx context.Context, productID string) {
	key := fmt.Sprintf("views:product:%s", productID)
	if err := v.rdb.Del(ctx, key).Err(); err != nil {
		v.log.Warn().Err(err).Str("key", key).Msg("borrar vista cacheada")
	}
	if err := v.rdb.Publish(ctx, revalidateChannel, productID).Err(); err != nil {
		v.log.Warn().Err(err).Str("product_id", productID).Msg("publicar revalidación")
	}
}

// NopViewInvalidator invalidador nulo para entornos sin Redis.
type NopViewInvalidator struct{}

// InvalidateProduct no hace nada.
func (NopViewInvalidator) InvalidateProduct(context.Context, string) {}
