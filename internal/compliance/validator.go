package compliance

import "github.com/xela07ax/compliance-ledger/internal/domain"

// requiredFields — закрытая схема обязательных ключей метаданных на тип контента.
// Значения не типизируются, проверяется только присутствие ключа.
var requiredFields = map[domain.ContentType][]string{
	domain.ContentPost:        {"title", "board_slug"},
	domain.ContentMessage:     {"thread_id", "parent_id"},
	domain.ContentBoard:       {"name", "description"},
	domain.ContentUser:        {"username", "display_name"},
	domain.ContentTransaction: {"tx_hash", "amount", "token"},
	domain.ContentInteraction: {"action", "target_id"},
}

// ValidateMetadata проверяет схему метаданных для типа контента.
// Неизвестные типы проходят безусловно (permissive default).
// Никогда не паникует наружу: любой внутренний сбой трактуется как невалидность.
func ValidateMetadata(contentType domain.ContentType, metadata map[string]interface{}) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()

	if metadata == nil {
		return false
	}

	fields, known := requiredFields[contentType]
	if !known {
		return true
	}

	for _, f := range fields {
		if _, present := metadata[f]; !present {
			return false
		}
	}
	return true
}
