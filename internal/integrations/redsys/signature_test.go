package redsys

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Публичный тестовый ключ песочницы шлюза
const testSecret = "sq7HjrUOBfKmC576ILgskD5srU870gJ7"

func newTestVerifier(t *testing.T) *Verifier {
	t.Helper()
	v, err := NewVerifier(testSecret)
	require.NoError(t, err)
	return v
}

func encodeTestParams(t *testing.T, order, response string) string {
	t.Helper()
	encoded, err := EncodeParameters(map[string]string{
		"Ds_Order":             order,
		"Ds_Response":          response,
		"Ds_Amount":            "14500",
		"Ds_Currency":          "978",
		"Ds_AuthorisationCode": "123456",
	})
	require.NoError(t, err)
	return encoded
}

func TestNewVerifier_RejectsBadSecret(t *testing.T) {
	_, err := NewVerifier("not base64 !!!")
	assert.ErrorIs(t, err, ErrInvalidSecret)

	_, err = NewVerifier("c2hvcnQ=") // 5 байт
	assert.ErrorIs(t, err, ErrInvalidSecret)
}

func TestVerifier_AcceptsOwnSignature(t *testing.T) {
	v := newTestVerifier(t)

	for _, order := range []string{"0001RB123", "12345678", "A", "000000000001234"} {
		params := encodeTestParams(t, order, "0000")
		sig, err := v.Sign(order, params)
		require.NoError(t, err)

		assert.NoError(t, v.Verify(SignatureVersionV1, params, sig, order), "order %s", order)
	}
}

func TestVerifier_AcceptsURLSafeSignature(t *testing.T) {
	v := newTestVerifier(t)
	params := encodeTestParams(t, "0001RB123", "0000")

	sig, err := v.Sign("0001RB123", params)
	require.NoError(t, err)

	urlSafe := normalizeSignature(sig)
	assert.NoError(t, v.Verify(SignatureVersionV1, params, urlSafe, "0001RB123"))
}

func TestVerifier_RejectsWrongVersion(t *testing.T) {
	v := newTestVerifier(t)
	params := encodeTestParams(t, "0001RB123", "0000")
	sig, err := v.Sign("0001RB123", params)
	require.NoError(t, err)

	err = v.Verify("HMAC_SHA512_V2", params, sig, "0001RB123")
	assert.ErrorIs(t, err, ErrUnsupportedSignatureVersion)
}

func TestVerifier_RejectsEmptySignature(t *testing.T) {
	v := newTestVerifier(t)
	params := encodeTestParams(t, "0001RB123", "0000")

	assert.ErrorIs(t, v.Verify(SignatureVersionV1, params, "", "0001RB123"), ErrInvalidSignature)
}

func TestVerifier_RejectsSignatureForOtherOrder(t *testing.T) {
	v := newTestVerifier(t)
	params := encodeTestParams(t, "0001RB123", "0000")
	sig, err := v.Sign("0001RB123", params)
	require.NoError(t, err)

	assert.ErrorIs(t, v.Verify(SignatureVersionV1, params, sig, "0001RB124"), ErrInvalidSignature)
}

func TestVerifier_RejectsEverySingleBitMutationOfPayload(t *testing.T) {
	v := newTestVerifier(t)
	order := "0001RB123"
	params := encodeTestParams(t, order, "0000")
	sig, err := v.Sign(order, params)
	require.NoError(t, err)

	raw := []byte(params)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit

			err := v.Verify(SignatureVersionV1, string(mutated), sig, order)
			require.ErrorIs(t, err, ErrInvalidSignature, "byte %d bit %d", i, bit)
		}
	}
}

func TestVerifier_RejectsEverySingleBitMutationOfSignature(t *testing.T) {
	v := newTestVerifier(t)
	order := "0001RB123"
	params := encodeTestParams(t, order, "0000")
	sig, err := v.Sign(order, params)
	require.NoError(t, err)

	raw := []byte(sig)
	for i := range raw {
		for bit := 0; bit < 8; bit++ {
			mutated := make([]byte, len(raw))
			copy(mutated, raw)
			mutated[i] ^= 1 << bit

			err := v.Verify(SignatureVersionV1, params, string(mutated), order)
			require.ErrorIs(t, err, ErrInvalidSignature, "byte %d bit %d", i, bit)
		}
	}
}

func TestDeriveKey_PadsToBlockSize(t *testing.T) {
	v := newTestVerifier(t)

	key, err := v.deriveKey("123")
	require.NoError(t, err)
	assert.Len(t, key, 8)

	key, err = v.deriveKey("12345678")
	require.NoError(t, err)
	assert.Len(t, key, 8)

	key, err = v.deriveKey("123456789")
	require.NoError(t, err)
	assert.Len(t, key, 16)
}
