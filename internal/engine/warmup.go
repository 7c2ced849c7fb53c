package engine

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// WarmupState - универсальная функция для прогрева L1 (RAM) и L2 (Redis) кэшей.
func WarmupState(
	ctx context.Context,
	rdb redis.Cmdable,
	logger *zap.Logger,
	ids []string,
	redisKey string,
	lockKey string,
	updateL1 func([]string), // Callback для обновления локальной мапы
) error {
	// 1. Обновляем локальный кэш (L1) через callback
	updateL1(ids)

	// 2. Распределенная блокировка (SetNX), чтобы только один инстанс обновлял Redis
	ok, err := rdb.SetNX(ctx, lockKey, "processing", 30*time.Second).Result()
	if err != nil || !ok {
		return nil // Либо ошибка сети, либо другой уже греет кэш
	}

	// 3. L2 пересобирается целиком: состояние в Postgres могло измениться, пока Redis был недоступен
	pipe := rdb.TxPipeline()
	pipe.Del(ctx, redisKey)
	for _, id := range ids {
		pipe.SAdd(ctx, redisKey, id)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn("warm-up of Redis set failed", zap.String("key", redisKey), zap.Error(err))
		return err
	}

	logger.Info("Redis state warmed up from DB", zap.String("key", redisKey), zap.Int("count", len(ids)))
	return nil
}
