package solana

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
)

const hardenedOffset = 0x80000000

// deriveEd25519 walks a SLIP-10 ed25519 derivation path. Every step is
// hardened; the curve has no public parent derivation, so indices below the
// hardened offset are forced into it.
func deriveEd25519(seed []byte, path []uint32) []byte {
	mac := hmac.New(sha512.New, []byte("ed25519 seed"))
	mac.Write(seed)
	sum := mac.Sum(nil)

	key := sum[:32]
	chainCode := sum[32:]

	for _, index := range path {
		if index < hardenedOffset {
			index += hardenedOffset
		}

		data := make([]byte, 0, 37)
		data = append(data, 0x00)
		data = append(data, key...)
		var ser [4]byte
		binary.BigEndian.PutUint32(ser[:], index)
		data = append(data, ser[:]...)

		mac = hmac.New(sha512.New, chainCode)
		mac.Write(data)
		sum = mac.Sum(nil)

		key = sum[:32]
		chainCode = sum[32:]
	}
	return key
}
