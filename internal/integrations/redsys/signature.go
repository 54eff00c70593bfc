package redsys

import (
	"crypto/cipher"
	"crypto/des"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strings"
)

// Verifier проверяет подпись уведомлений шлюза
// Чистая функция над секретом терминала, безопасна для конкурентного использования
type Verifier struct {
	secret []byte
}

// NewVerifier создает верификатор из секретного ключа терминала (base64, 24 байта после декодирования)
func NewVerifier(base64Secret string) (*Verifier, error) {
	secret, err := base64.StdEncoding.DecodeString(strings.TrimSpace(base64Secret))
	if err != nil {
		return nil, fmt.Errorf("%w: decode: %v", ErrInvalidSecret, err)
	}
	if len(secret) != 24 {
		return nil, fmt.Errorf("%w: expected 24 bytes, got %d", ErrInvalidSecret, len(secret))
	}
	return &Verifier{secret: secret}, nil
}

// Sign вычисляет подпись параметров для заказа order (base64 std)
func (v *Verifier) Sign(order, merchantParameters string) (string, error) {
	mac, err := v.mac(order, merchantParameters)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(mac), nil
}

// Verify проверяет подпись уведомления
// order берётся из уже декодированных параметров: ключ HMAC выводится из номера заказа
func (v *Verifier) Verify(version, merchantParameters, signature, order string) error {
	if strings.TrimSpace(version) != SignatureVersionV1 {
		return fmt.Errorf("%w: %q", ErrUnsupportedSignatureVersion, version)
	}
	if signature == "" {
		return fmt.Errorf("%w: empty signature", ErrInvalidSignature)
	}

	mac, err := v.mac(order, merchantParameters)
	if err != nil {
		return err
	}

	// Шлюз присылает подпись в base64url. Сравниваем строки в нормализованном виде:
	// при сравнении байтов нестрогий декодер base64 пропустил бы изменения в битах заполнения
	expected := normalizeSignature(base64.StdEncoding.EncodeToString(mac))
	if !hmac.Equal([]byte(expected), []byte(normalizeSignature(signature))) {
		return ErrInvalidSignature
	}

	return nil
}

// mac HMAC-SHA256 над строкой параметров ключом, выведенным из номера заказа
func (v *Verifier) mac(order, merchantParameters string) ([]byte, error) {
	key, err := v.deriveKey(order)
	if err != nil {
		return nil, err
	}
	h := hmac.New(sha256.New, key)
	h.Write([]byte(merchantParameters))
	return h.Sum(nil), nil
}

// deriveKey 3DES-CBC (нулевой IV) номера заказа, дополненного нулями до кратности 8
func (v *Verifier) deriveKey(order string) ([]byte, error) {
	block, err := des.NewTripleDESCipher(v.secret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSecret, err)
	}

	size := (len(order) + des.BlockSize - 1) / des.BlockSize * des.BlockSize
	padded := make([]byte, size)
	copy(padded, order)

	key := make([]byte, size)
	iv := make([]byte, des.BlockSize)
	cipher.NewCBCEncrypter(block, iv).CryptBlocks(key, padded)

	return key, nil
}

func normalizeSignature(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer("+", "-", "/", "_").Replace(s)
	return strings.TrimRight(s, "=")
}
