package api

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestVerifySignature(t *testing.T) {
	secret := []byte("s3cret")
	body := []byte(`{"action":"opened"}`)
	valid := Sign(secret, body)

	assert.Equal(t, "sha1=", valid[:5])
	assert.Len(t, valid, len("sha1=")+40)

	tests := []struct {
		name   string
		header string
		ok     bool
	}{
		{"valid", valid, true},
		{"missing", "", false},
		{"no prefix", valid[5:], false},
		{"sha256 prefix", "sha256=" + valid[5:], false},
		{"uppercase hex", "sha1=" + upper(valid[5:]), false},
		{"other secret", Sign([]byte("other"), body), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(secret, body, tt.header)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrSignatureMismatch)
			}
		})
	}
}

func TestVerifySignature_UsesRawBytes(t *testing.T) {
	secret := []byte("s3cret")
	compact := []byte(`{"a":1,"b":2}`)
	spaced := []byte(`{ "a": 1, "b": 2 }`)

	assert.NoError(t, VerifySignature(secret, spaced, Sign(secret, spaced)))
	assert.ErrorIs(t, VerifySignature(secret, spaced, Sign(secret, compact)), ErrSignatureMismatch)
}

func upper(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'a' && c <= 'f' {
			b[i] = c - 'a' + 'A'
		}
	}
	return string(b)
}
