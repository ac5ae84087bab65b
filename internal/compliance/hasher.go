package compliance

import (
	"crypto/sha256"
	"encoding/hex"
)

// HashContent возвращает lowercase hex SHA-256 дайджест UTF-8 представления контента.
// Чистая функция, используется как ключ дедупликации (content_hash).
//
// Для пустой строки возвращается пустая строка-сентинел, а НЕ SHA-256 от "" —
// вызывающий обязан отсечь пустой контент валидацией до хеширования,
// иначе возникает неоднозначность ключа.
func HashContent(content string) string {
	if content == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(content))
	return hex.EncodeToString(sum[:])
}
