package compliance

import (
	"context"
	"fmt"

	"github.com/xela07ax/compliance-ledger/internal/domain"
	"go.uber.org/zap"
)

// RuleSource поставляет активные правила хранения для проверки.
// В проде это RuleCache (read-through из Postgres с инвалидацией через Redis).
type RuleSource interface {
	RulesFor(ctx context.Context, contentType domain.ContentType) ([]domain.DataRetentionRule, error)
}

// Result — итог проверки кандидата на соответствие политикам.
// Порядок Violations и PolicyReferences детерминирован и попарно согласован.
type Result struct {
	IsCompliant      bool     `json:"is_compliant"`
	Violations       []string `json:"violations"`
	PolicyReferences []string `json:"policy_references"`
}

// Evaluator прогоняет кандидата через retention-, privacy- и security-проверки.
type Evaluator struct {
	rules  RuleSource
	logger *zap.Logger
}

func NewEvaluator(rules RuleSource, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		rules:  rules,
		logger: logger.Named("evaluator"),
	}
}

// Evaluate выполняет все проверки независимо: нарушения накапливаются,
// short-circuit отсутствует. Метаданные могут нести is_encrypted, user_address
// и ip_address, унаследованные из контекста записи.
//
// Любой внутренний сбой не выходит за эту границу: результат —
// is_compliant=false с единственным нарушением "Policy check failed".
func (e *Evaluator) Evaluate(ctx context.Context, contentType domain.ContentType, metadata map[string]interface{}) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("policy check panicked", zap.Any("cause", r))
			res = failedResult()
		}
	}()

	violations := []string{}
	refs := []string{}

	// 1. Retention/encryption: каждое активное правило типа может требовать шифрования
	rules, err := e.rules.RulesFor(ctx, contentType)
	if err != nil {
		e.logger.Error("failed to load retention rules", zap.Error(err))
		return failedResult()
	}
	for _, rule := range rules {
		if rule.IsEncrypted && !isTruthy(metadata["is_encrypted"]) {
			violations = append(violations, fmt.Sprintf("Content type %s requires encryption", contentType))
			refs = append(refs, "DataRetention:"+rule.ID)
		}
	}

	// 2. Privacy: формат кошелька (длина 26..44)
	if raw, present := metadata["user_address"]; present {
		addr, _ := raw.(string)
		if len(addr) < 26 || len(addr) > 44 {
			violations = append(violations, "Invalid wallet address format")
			refs = append(refs, "Privacy:WalletAddressFormat")
		}
	}

	// 3. Security: явные loopback/zero адреса запрещены.
	// Пустая строка означает "unknown" и нарушением НЕ является.
	if raw, present := metadata["ip_address"]; present {
		ip, _ := raw.(string)
		switch ip {
		case "0.0.0.0", "127.0.0.1", "localhost":
			violations = append(violations, "Invalid IP address")
			refs = append(refs, "Security:IPAddressValidation")
		}
	}

	return Result{
		IsCompliant:      len(violations) == 0,
		Violations:       violations,
		PolicyReferences: refs,
	}
}

func failedResult() Result {
	return Result{
		IsCompliant:      false,
		Violations:       []string{"Policy check failed"},
		PolicyReferences: []string{},
	}
}

// isTruthy повторяет питоновскую семантику truthiness для значений из JSON-метаданных.
func isTruthy(v interface{}) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case int:
		return val != 0
	default:
		return true
	}
}
