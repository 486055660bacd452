package hdwallet

import (
	"crypto/hmac"
	"crypto/sha512"
	"encoding/binary"
)

const hardenedOffset uint32 = 0x80000000

var ed25519Curve = []byte("ed25519 seed")

// node is a SLIP-0010 ed25519 extended private key.
type node struct {
	key       []byte
	chainCode []byte
}

func masterNode(seed []byte) node {
	mac := hmac.New(sha512.New, ed25519Curve)
	mac.Write(seed)
	sum := mac.Sum(nil)
	return node{key: sum[:32], chainCode: sum[32:]}
}

// child derives a hardened child. ed25519 has no public derivation, so the
// index is always hardened.
func (n node) child(index uint32) node {
	data := make([]byte, 0, 1+32+4)
	data = append(data, 0x00)
	data = append(data, n.key...)
	data = binary.BigEndian.AppendUint32(data, index|hardenedOffset)

	mac := hmac.New(sha512.New, n.chainCode)
	mac.Write(data)
	sum := mac.Sum(nil)
	return node{key: sum[:32], chainCode: sum[32:]}
}

func derivePath(seed []byte, path ...uint32) node {
	n := masterNode(seed)
	for _, idx := range path {
		n = n.child(idx)
	}
	return n
}
