package crypto

import (
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/big"
	"time"
)

const nonceLen = 32

// A NonceReader produces the unpredictable 256 bit nonces used in key
// exchanges, following the recommendation of IEEE Std 802.11-2016,
// 12.7.5: a counter seeded from a random key, the station address and
// the current time.
type NonceReader struct {
	counter *big.Int
}

// NewNonceReader seeds a nonce counter for the station with the given
// address. random is the entropy source and defaults to crypto/rand.
func NewNonceReader(addr [6]byte, random io.Reader) (*NonceReader, error) {
	if random == nil {
		random = rand.Reader
	}
	key := make([]byte, nonceLen)
	if _, err := io.ReadFull(random, key); err != nil {
		return nil, fmt.Errorf("crypto: reading nonce seed: %w", err)
	}

	data := make([]byte, 6+8)
	copy(data, addr[:])
	binary.BigEndian.PutUint64(data[6:], uint64(time.Now().UnixNano()))
	init, err := Prf(key, "Init Counter", data, nonceLen*8)
	if err != nil {
		return nil, err
	}
	return &NonceReader{counter: new(big.Int).SetBytes(init)}, nil
}

// nonceMod caps the counter at 2^256 so it always fits a nonce.
var nonceMod = new(big.Int).Lsh(big.NewInt(1), nonceLen*8)

// Next returns the next nonce and advances the counter.
func (r *NonceReader) Next() [32]byte {
	var nonce [32]byte
	r.counter.Add(r.counter, big.NewInt(1))
	r.counter.Mod(r.counter, nonceMod)
	r.counter.FillBytes(nonce[:])
	return nonce
}
