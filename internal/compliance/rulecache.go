package compliance

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"github.com/xela07ax/compliance-ledger/internal/infra"
	"go.uber.org/zap"
)

// RuleRepository описывает требования кэша к хранилищу правил
type RuleRepository interface {
	GetAllRetentionRules(ctx context.Context) ([]domain.DataRetentionRule, error)
}

// RuleCache — read-through кэш правил хранения с явной инвалидацией.
// Hot Path эвалюатора работает только с RAM; при сигнале в Redis-канале
// или переподключении кэш перечитывает всю таблицу из Postgres.
// Глобального мутабельного состояния без правила инвалидации здесь нет.
type RuleCache struct {
	mu     sync.RWMutex
	rules  map[domain.ContentType][]domain.DataRetentionRule
	warmed bool

	repo   RuleRepository // Используется для Refresh() и холодной догрузки
	rdb    *redis.Client
	logger *zap.Logger
}

func NewRuleCache(repo RuleRepository, rdb *redis.Client, logger *zap.Logger) *RuleCache {
	return &RuleCache{
		rules:  make(map[domain.ContentType][]domain.DataRetentionRule),
		repo:   repo,
		rdb:    rdb,
		logger: logger.Named("rulecache"),
	}
}

// RulesFor реализует RuleSource для эвалюатора.
// Если кэш еще не прогрет (холодный старт), читаем насквозь из БД.
func (c *RuleCache) RulesFor(ctx context.Context, contentType domain.ContentType) ([]domain.DataRetentionRule, error) {
	c.mu.RLock()
	if c.warmed {
		rules := c.rules[contentType]
		c.mu.RUnlock()
		return rules, nil
	}
	c.mu.RUnlock()

	if err := c.Refresh(ctx); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rules[contentType], nil
}

// Refresh выполняет «холодную загрузку» всех правил из PostgreSQL в память.
func (c *RuleCache) Refresh(ctx context.Context) error {
	fromDB, err := c.repo.GetAllRetentionRules(ctx)
	if err != nil {
		return err
	}

	fresh := make(map[domain.ContentType][]domain.DataRetentionRule)
	for _, r := range fromDB {
		fresh[r.ContentType] = append(fresh[r.ContentType], r)
	}

	c.mu.Lock()
	c.rules = fresh
	c.warmed = true
	c.mu.Unlock()

	c.logger.Info("retention rule cache refreshed", zap.Int("count", len(fromDB)))
	return nil
}

// StartListener подписывается на сигналы обновления правил в реальном времени.
// Сам сигнал — просто "refresh": кэш перечитывает таблицу целиком.
func (c *RuleCache) StartListener(ctx context.Context) {
	infra.ListenResilient(ctx, c.rdb, c.logger, infra.RedisChanPolicyUpdate,
		func() error { return c.Refresh(ctx) }, // Переподключение
		func(payload string) { // Обработка сообщения
			if err := c.Refresh(ctx); err != nil {
				c.logger.Error("rule cache refresh failed", zap.Error(err))
			}
		},
	)
}
