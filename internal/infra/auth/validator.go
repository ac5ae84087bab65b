package auth

/*
Проверка токенов защищенного периметра API. Подпись асимметричная (RS256):
приватный ключ есть только у выдающей стороны (service.AuthService),
валидатору достаточно публичного. Скоупы принципала едут внутри claims
и дальше раскладываются в контекст запроса middleware'ом.
*/

import (
	"crypto/rsa"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/xela07ax/compliance-ledger/internal/domain"
)

// RS256Validator проверяет подпись и срок действия токенов доступа.
type RS256Validator struct {
	publicKey *rsa.PublicKey
}

func NewRS256Validator(pubKey *rsa.PublicKey) *RS256Validator {
	return &RS256Validator{publicKey: pubKey}
}

// VerifyToken принимает значение заголовка Authorization (с "Bearer " или без)
// и возвращает claims валидного токена. Алгоритм зажат на семейство RSA:
// подмена на HS256 с публичным ключом в роли секрета не пройдет.
func (v *RS256Validator) VerifyToken(tokenStr string) (*domain.CustomClaims, error) {
	tokenStr = strings.TrimSpace(strings.TrimPrefix(tokenStr, "Bearer "))

	token, err := jwt.ParseWithClaims(tokenStr, &domain.CustomClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.publicKey, nil
	})
	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(*domain.CustomClaims)
	if !ok {
		return nil, fmt.Errorf("invalid claims")
	}
	return claims, nil
}

// ParseRSAPublicKey читает PEM публичного ключа (сторона проверки).
func ParseRSAPublicKey(data []byte) (*rsa.PublicKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("public key data is empty")
	}
	key, err := jwt.ParseRSAPublicKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse public key: %w", err)
	}
	return key, nil
}

// ParseRSAPrivateKey читает PEM приватного ключа (сторона выдачи токенов).
func ParseRSAPrivateKey(data []byte) (*rsa.PrivateKey, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("private key data is empty")
	}
	key, err := jwt.ParseRSAPrivateKeyFromPEM(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}
	return key, nil
}
