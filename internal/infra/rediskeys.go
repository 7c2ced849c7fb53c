package infra

import "fmt"

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "loyalty"
)

// Ключи состояния
const (
	RedisKeyPausedPolicies = RedisNamespace + ":policies:paused_set"
	redisKeyCartPrefix     = RedisNamespace + ":carts:"
)

// Каналы Pub/Sub
const (
	// RedisChanPolicyUpdate - любое изменение политик, все инстансы перечитывают кэш.
	RedisChanPolicyUpdate = RedisNamespace + ":policies:update"
	// RedisChanPause - сигналы вида "policy_id:on|off".
	RedisChanPause = RedisNamespace + ":policies:pause-signal"
)

func CartKey(cartID string) string {
	return redisKeyCartPrefix + cartID
}

// GetWarmupLockKey Генератор ключей для блокировок
func GetWarmupLockKey(resource string) string {
	return fmt.Sprintf("%s:lock:warmup:%s", RedisNamespace, resource)
}

// PauseSignal формирует payload для RedisChanPause.
func PauseSignal(policyID string, paused bool) string {
	if paused {
		return policyID + ":on"
	}
	return policyID + ":off"
}
