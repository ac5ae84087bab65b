package vault

/*
Файл vault.go — граница шифрования метаданных.
Оригинальный no-op заглушечный encrypt/decrypt заменен на реальный
AES-256-GCM с индирекцией через key_id: запись несет только идентификатор
ключа, сами ключи живут в конфиге (keyring). Внешний контракт сохранен:
is_encrypted и encryption_key_id путешествуют вместе с записью.
*/

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/xela07ax/compliance-ledger/internal/infra"
)

// envelopeField — единственный ключ зашифрованного payload в metadata_json.
const envelopeField = "ciphertext"

type Vault struct {
	keys        map[string][]byte // key_id -> 32-байтный ключ
	activeKeyID string
}

// New собирает keyring из конфига. Пустой keyring допустим:
// сервис тогда хранит метаданные открыто (is_encrypted=false).
func New(cfg infra.VaultConfig) (*Vault, error) {
	v := &Vault{keys: make(map[string][]byte), activeKeyID: cfg.ActiveKeyID}

	for id, hexKey := range cfg.Keys {
		key, err := hex.DecodeString(hexKey)
		if err != nil {
			return nil, fmt.Errorf("vault: key %s is not valid hex: %w", id, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("vault: key %s must be 32 bytes, got %d", id, len(key))
		}
		v.keys[id] = key
	}

	if v.activeKeyID != "" {
		if _, ok := v.keys[v.activeKeyID]; !ok {
			return nil, fmt.Errorf("vault: active key %s not present in keyring", v.activeKeyID)
		}
	}
	return v, nil
}

// Enabled — true, когда настроен активный ключ и записи надо шифровать.
func (v *Vault) Enabled() bool {
	return v.activeKeyID != ""
}

func (v *Vault) ActiveKeyID() string {
	return v.activeKeyID
}

// EncryptMetadata упаковывает метаданные в конверт {"ciphertext": base64(nonce||ct)}.
// Возвращает конверт и key_id, которым он зашифрован.
func (v *Vault) EncryptMetadata(metadata map[string]interface{}) (map[string]interface{}, string, error) {
	if !v.Enabled() {
		return nil, "", fmt.Errorf("vault: no active key configured")
	}

	plaintext, err := json.Marshal(metadata)
	if err != nil {
		return nil, "", fmt.Errorf("vault: failed to encode metadata: %w", err)
	}

	aead, err := v.aeadFor(v.activeKeyID)
	if err != nil {
		return nil, "", err
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, "", fmt.Errorf("vault: failed to generate nonce: %w", err)
	}

	// nonce подклеивается спереди: расшифровка самодостаточна по конверту
	sealed := aead.Seal(nonce, nonce, plaintext, nil)
	envelope := map[string]interface{}{
		envelopeField: base64.StdEncoding.EncodeToString(sealed),
	}
	return envelope, v.activeKeyID, nil
}

// DecryptMetadata разворачивает конверт ключом keyID.
func (v *Vault) DecryptMetadata(envelope map[string]interface{}, keyID string) (map[string]interface{}, error) {
	raw, ok := envelope[envelopeField].(string)
	if !ok {
		return nil, fmt.Errorf("vault: envelope has no %s field", envelopeField)
	}

	sealed, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("vault: corrupted envelope: %w", err)
	}

	aead, err := v.aeadFor(keyID)
	if err != nil {
		return nil, err
	}
	if len(sealed) < aead.NonceSize() {
		return nil, fmt.Errorf("vault: envelope too short")
	}

	nonce, ct := sealed[:aead.NonceSize()], sealed[aead.NonceSize():]
	plaintext, err := aead.Open(nil, nonce, ct, nil)
	if err != nil {
		return nil, fmt.Errorf("vault: decryption failed: %w", err)
	}

	var metadata map[string]interface{}
	if err := json.Unmarshal(plaintext, &metadata); err != nil {
		return nil, fmt.Errorf("vault: corrupted plaintext: %w", err)
	}
	return metadata, nil
}

func (v *Vault) aeadFor(keyID string) (cipher.AEAD, error) {
	key, ok := v.keys[keyID]
	if !ok {
		return nil, fmt.Errorf("vault: unknown key id %q", keyID)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("vault: cipher init failed: %w", err)
	}
	return cipher.NewGCM(block)
}
