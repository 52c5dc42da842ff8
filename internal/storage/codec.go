package storage

import (
	"encoding/base64"
	"errors"
)

// Codec reversibly transforms serialized records before they reach the
// backend.
type Codec interface {
	Encode(plain []byte) (string, error)
	Decode(stored string) ([]byte, error)
}

// DefaultSecret keys XORCodec when no secret is configured.
const DefaultSecret = "focusflow-local-store"

// XORCodec XORs the payload with a repeating key and base64-encodes it.
//
// This only keeps casual readers and hand edits out of the stored records.
// It is not encryption: anyone holding the binary or a single known
// plaintext can recover the key, so it gives no confidentiality.
type XORCodec struct {
	key []byte
}

// NewXORCodec returns a codec keyed by secret, or DefaultSecret if empty.
func NewXORCodec(secret string) XORCodec {
	if secret == "" {
		secret = DefaultSecret
	}
	return XORCodec{key: []byte(secret)}
}

func (codec XORCodec) Encode(plain []byte) (string, error) {
	if len(codec.key) == 0 {
		return "", errors.New("xor codec: empty key")
	}
	return base64.StdEncoding.EncodeToString(codec.xor(plain)), nil
}

func (codec XORCodec) Decode(stored string) ([]byte, error) {
	if len(codec.key) == 0 {
		return nil, errors.New("xor codec: empty key")
	}
	raw, err := base64.StdEncoding.DecodeString(stored)
	if err != nil {
		return nil, err
	}
	return codec.xor(raw), nil
}

func (codec XORCodec) xor(data []byte) []byte {
	out := make([]byte, len(data))
	for i, b := range data {
		out[i] = b ^ codec.key[i%len(codec.key)]
	}
	return out
}
