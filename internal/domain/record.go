package domain

import "time"

// ContentType определяет тип пользовательского контента, о котором пишется метазапись.
// Набор закрыт: диспетчеризация по типам идет через мапы, а не через open-ended if/else.
type ContentType string

const (
	ContentPost        ContentType = "post"
	ContentMessage     ContentType = "message"
	ContentBoard       ContentType = "board"
	ContentUser        ContentType = "user"
	ContentTransaction ContentType = "transaction"
	ContentInteraction ContentType = "interaction"
)

// KnownContentTypes — закрытое перечисление для проверок и отчетов.
var KnownContentTypes = []ContentType{
	ContentPost, ContentMessage, ContentBoard,
	ContentUser, ContentTransaction, ContentInteraction,
}

// MetadataRecord — один долговременный факт о куске пользовательского контента.
// Запись создается ровно один раз и никогда не обновляется: только чтение
// или удаление Ретеншн-свипером.
type MetadataRecord struct {
	ID          string      `json:"id"` // UUID
	ContentHash string      `json:"content_hash"` // SHA-256 hex, уникален глобально
	ContentType ContentType `json:"content_type"`
	Timestamp   time.Time   `json:"timestamp"` // Проставляется один раз при вставке

	// Происхождение запроса
	UserAddress string `json:"user_address"` // Кошелек пользователя
	IPAddress   string `json:"ip_address"`   // Пустая строка = "unknown" (не loopback!)
	UserAgent   string `json:"user_agent"`

	// Открытый payload, схема зависит от ContentType
	Metadata map[string]interface{} `json:"metadata"`

	// Маркер шифрования. Сами данные шифрует vault (AES-GCM),
	// здесь только флаг и индирекция на ключ.
	IsEncrypted     bool   `json:"is_encrypted"`
	EncryptionKeyID string `json:"encryption_key_id,omitempty"`
}

// RecordFilter — фильтры листинга для админки.
type RecordFilter struct {
	ContentType ContentType
	UserAddress string // Подстрочный поиск, как в оригинальной админке
}

// RecordPage — страница выдачи листинга.
type RecordPage struct {
	Results     []*MetadataRecord `json:"results"`
	Page        int               `json:"page"`
	PageSize    int               `json:"page_size"`
	TotalCount  int64             `json:"total_count"`
	HasNext     bool              `json:"has_next"`
	HasPrevious bool              `json:"has_previous"`
}
