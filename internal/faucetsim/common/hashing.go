package common

import (
	"hash"
	"sync"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/crypto/sha3"
)

var hasherPool = sync.Pool{
	New: func() interface{} { return sha3.NewLegacyKeccak256() },
}

// Keccak256 calculates the legacy Keccak-256 hash of the input data.
// Method selectors and event topics are derived with it.
func Keccak256(data ...[]byte) []byte {
	d := hasherPool.Get().(hash.Hash)
	defer hasherPool.Put(d)
	d.Reset()
	for _, b := range data {
		d.Write(b)
	}
	return d.Sum(nil)
}

// Keccak256Hash calculates and returns the Keccak-256 hash of the input data,
// converting it to an internal Hash data structure.
func Keccak256Hash(data ...[]byte) (h Hash) {
	copy(h[:], Keccak256(data...))
	return h
}

// BlakeHash is the chain hash: blake2b-256 over the concatenated input.
// Addresses, transaction and block hashes use it.
func BlakeHash(data ...[]byte) (h Hash) {
	d, _ := blake2b.New256(nil)
	for _, b := range data {
		d.Write(b)
	}
	copy(h[:], d.Sum(nil))
	return h
}
