package infra

const (
	// RedisNamespace Базовый префикс для изоляции данных проекта в Redis
	RedisNamespace = "cledger"
)

// Каналы Pub/Sub (события)
const (
	// RedisChanPolicyUpdate — сигнал «политики/правила изменились».
	// Все инстансы с кэшем правил (RuleCache) по нему вызывают Refresh().
	RedisChanPolicyUpdate = RedisNamespace + ":policies:update"
)
