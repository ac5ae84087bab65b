package compliance

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xela07ax/compliance-ledger/internal/domain"
	"go.uber.org/zap"
)

// stubRules — детерминированный RuleSource для тестов эвалюатора.
type stubRules struct {
	rules map[domain.ContentType][]domain.DataRetentionRule
	err   error
}

func (s *stubRules) RulesFor(_ context.Context, ct domain.ContentType) ([]domain.DataRetentionRule, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.rules[ct], nil
}

func validWallet() string {
	return "bc1qxy2kgdygjrsqtzq2n0yrf2493p83kkfjhx0wlh" // 42 символа
}

func newTestEvaluator(rules *stubRules) *Evaluator {
	return NewEvaluator(rules, zap.NewNop())
}

func TestEvaluateCompliant(t *testing.T) {
	e := newTestEvaluator(&stubRules{})

	res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{
		"user_address": validWallet(),
		"ip_address":   "203.0.113.7",
	})

	assert.True(t, res.IsCompliant)
	assert.Empty(t, res.Violations)
	assert.Empty(t, res.PolicyReferences)
}

func TestEvaluateEncryptionRequired(t *testing.T) {
	rules := &stubRules{rules: map[domain.ContentType][]domain.DataRetentionRule{
		domain.ContentMessage: {{ID: "rule-77", ContentType: domain.ContentMessage, IsEncrypted: true}},
	}}
	e := newTestEvaluator(rules)

	res := e.Evaluate(context.Background(), domain.ContentMessage, map[string]interface{}{
		"is_encrypted": false,
	})

	require.False(t, res.IsCompliant)
	assert.Contains(t, res.Violations, "Content type message requires encryption")
	assert.Contains(t, res.PolicyReferences, "DataRetention:rule-77")
}

func TestEvaluateEncryptionSatisfied(t *testing.T) {
	rules := &stubRules{rules: map[domain.ContentType][]domain.DataRetentionRule{
		domain.ContentMessage: {{ID: "rule-77", ContentType: domain.ContentMessage, IsEncrypted: true}},
	}}
	e := newTestEvaluator(rules)

	res := e.Evaluate(context.Background(), domain.ContentMessage, map[string]interface{}{
		"is_encrypted": true,
	})
	assert.True(t, res.IsCompliant)
}

func TestEvaluateWalletFormat(t *testing.T) {
	e := newTestEvaluator(&stubRules{})

	t.Run("too short", func(t *testing.T) {
		res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{
			"user_address": "short",
		})
		require.False(t, res.IsCompliant)
		assert.Contains(t, res.Violations, "Invalid wallet address format")
		assert.Contains(t, res.PolicyReferences, "Privacy:WalletAddressFormat")
	})

	t.Run("too long", func(t *testing.T) {
		long := make([]byte, 45)
		for i := range long {
			long[i] = 'a'
		}
		res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{
			"user_address": string(long),
		})
		assert.False(t, res.IsCompliant)
	})

	t.Run("absent address is not checked", func(t *testing.T) {
		res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{})
		assert.True(t, res.IsCompliant)
	})
}

func TestEvaluateIPAddress(t *testing.T) {
	e := newTestEvaluator(&stubRules{})

	for _, bad := range []string{"0.0.0.0", "127.0.0.1", "localhost"} {
		res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{
			"ip_address": bad,
		})
		require.False(t, res.IsCompliant, bad)
		assert.Contains(t, res.Violations, "Invalid IP address")
		assert.Contains(t, res.PolicyReferences, "Security:IPAddressValidation")
	}

	t.Run("empty string means unknown, not a violation", func(t *testing.T) {
		res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{
			"ip_address": "",
		})
		assert.True(t, res.IsCompliant)
	})
}

func TestEvaluateAccumulatesViolations(t *testing.T) {
	rules := &stubRules{rules: map[domain.ContentType][]domain.DataRetentionRule{
		domain.ContentPost: {{ID: "rule-1", ContentType: domain.ContentPost, IsEncrypted: true}},
	}}
	e := newTestEvaluator(rules)

	res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{
		"is_encrypted": false,
		"user_address": "short",
		"ip_address":   "127.0.0.1",
	})

	require.False(t, res.IsCompliant)
	// Все три проверки отработали, порядок детерминирован
	assert.Equal(t, []string{
		"Content type post requires encryption",
		"Invalid wallet address format",
		"Invalid IP address",
	}, res.Violations)
	assert.Equal(t, []string{
		"DataRetention:rule-1",
		"Privacy:WalletAddressFormat",
		"Security:IPAddressValidation",
	}, res.PolicyReferences)
}

func TestEvaluateInternalFailure(t *testing.T) {
	e := newTestEvaluator(&stubRules{err: errors.New("db is down")})

	res := e.Evaluate(context.Background(), domain.ContentPost, map[string]interface{}{})

	require.False(t, res.IsCompliant)
	assert.Equal(t, []string{"Policy check failed"}, res.Violations)
	assert.Empty(t, res.PolicyReferences)
}

func TestIsTruthy(t *testing.T) {
	assert.False(t, isTruthy(nil))
	assert.False(t, isTruthy(false))
	assert.False(t, isTruthy(""))
	assert.False(t, isTruthy(float64(0)))
	assert.False(t, isTruthy(0))
	assert.True(t, isTruthy(true))
	assert.True(t, isTruthy("yes"))
	assert.True(t, isTruthy(float64(1)))
	assert.True(t, isTruthy(map[string]interface{}{}))
}
