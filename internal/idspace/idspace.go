package idspace

import (
	"crypto/sha256"
	"errors"
	"math/big"
	"strconv"
)

// DefaultSize is the modulus used when no other size is configured.
const DefaultSize uint64 = 100_000_000

// HashName names the digest used by Derive.
const HashName = "sha256"

// ErrInvalidSize is returned for a zero-sized identifier space.
var ErrInvalidSize = errors.New("identifier space size must be positive")

// ID is a position in the identifier space.
type ID uint64

// String returns the decimal form of the identifier.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Space is an identifier space of a fixed size.
type Space struct {
	size uint64
}

// New creates a space with the given modulus.
func New(size uint64) (Space, error) {
	if size == 0 {
		return Space{}, ErrInvalidSize
	}
	return Space{size: size}, nil
}

// Default returns a space of DefaultSize.
func Default() Space {
	return Space{size: DefaultSize}
}

// Size returns the modulus of the space.
func (s Space) Size() uint64 {
	if s.size == 0 {
		return DefaultSize
	}
	return s.size
}

// Derive hashes key with SHA-256 and reduces the full 256-bit digest
// modulo the space size.
func (s Space) Derive(key string) ID {
	sum := sha256.Sum256([]byte(key))
	n := new(big.Int).SetBytes(sum[:])
	n.Mod(n, new(big.Int).SetUint64(s.Size()))
	return ID(n.Uint64())
}

// AddressKey builds the string a node address is hashed from.
func AddressKey(ip string, port int) string {
	return ip + ":" + strconv.Itoa(port)
}
