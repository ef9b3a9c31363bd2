package crypto

import (
	"crypto/aes"
	"encoding/binary"
	"errors"
	"fmt"
)

// RFC 3394, 2.2.3.1.
var keyWrapIV = [8]byte{0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6, 0xa6}

// ErrKeyUnwrap is returned when the integrity check of a wrapped key
// blob fails, which usually means the KEK is wrong or the data was
// tampered with.
var ErrKeyUnwrap = errors.New("crypto: key unwrap integrity check failed")

// KeyWrap encrypts plaintext with the AES Key Wrap algorithm of
// RFC 3394 using kek. plaintext must be a multiple of 8 bytes and at
// least 16 bytes long.
func KeyWrap(kek, plaintext []byte) ([]byte, error) {
	if len(plaintext) < 16 || len(plaintext)%8 != 0 {
		return nil, fmt.Errorf("crypto: key wrap requires a multiple of 8 bytes, at least 16, got %d", len(plaintext))
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(plaintext) / 8
	r := make([]byte, 8+len(plaintext))
	copy(r[:8], keyWrapIV[:])
	copy(r[8:], plaintext)

	var buf [16]byte
	for j := 0; j <= 5; j++ {
		for i := 1; i <= n; i++ {
			copy(buf[:8], r[:8])
			copy(buf[8:], r[i*8:i*8+8])
			block.Encrypt(buf[:], buf[:])
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(r[:8], binary.BigEndian.Uint64(buf[:8])^t)
			copy(r[i*8:i*8+8], buf[8:])
		}
	}
	return r, nil
}

// KeyUnwrap decrypts ciphertext produced by KeyWrap and verifies its
// integrity value.
func KeyUnwrap(kek, ciphertext []byte) ([]byte, error) {
	if len(ciphertext) < 24 || len(ciphertext)%8 != 0 {
		return nil, fmt.Errorf("crypto: key unwrap requires a multiple of 8 bytes, at least 24, got %d", len(ciphertext))
	}
	block, err := aes.NewCipher(kek)
	if err != nil {
		return nil, err
	}

	n := len(ciphertext)/8 - 1
	r := make([]byte, len(ciphertext))
	copy(r, ciphertext)

	var buf [16]byte
	for j := 5; j >= 0; j-- {
		for i := n; i >= 1; i-- {
			t := uint64(n*j + i)
			binary.BigEndian.PutUint64(buf[:8], binary.BigEndian.Uint64(r[:8])^t)
			copy(buf[8:], r[i*8:i*8+8])
			block.Decrypt(buf[:], buf[:])
			copy(r[:8], buf[:8])
			copy(r[i*8:i*8+8], buf[8:])
		}
	}
	for i := range keyWrapIV {
		if r[i] != keyWrapIV[i] {
			return nil, ErrKeyUnwrap
		}
	}
	return r[8:], nil
}
