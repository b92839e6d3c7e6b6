package encryption

import (
	"bytes"
	"fmt"

	"buylog/internal/credential"
)

// testHeader is prepended by TestSealer so sealed output differs from the
// plaintext while staying deterministic.
var testHeader = []byte("BLSEAL\x00\x00")

// TestSealer is a deterministic, reversible Sealer for tests. It does no
// cryptography.
type TestSealer struct{}

var _ credential.Sealer = (*TestSealer)(nil)

// NewTestSealer creates a new TestSealer.
func NewTestSealer() *TestSealer {
	return &TestSealer{}
}

func (TestSealer) Seal(plaintext []byte) ([]byte, error) {
	out := make([]byte, 0, len(testHeader)+len(plaintext))
	out = append(out, testHeader...)
	return append(out, plaintext...), nil
}

func (TestSealer) Open(ciphertext []byte) ([]byte, error) {
	if !bytes.HasPrefix(ciphertext, testHeader) {
		return nil, fmt.Errorf("invalid test seal header")
	}
	return bytes.Clone(ciphertext[len(testHeader):]), nil
}
