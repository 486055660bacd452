package hdwallet

import (
	"encoding/base32"
	"encoding/binary"
	"errors"
)

type versionByte byte

const (
	versionAccountID versionByte = 6 << 3  // "G..."
	versionSeed      versionByte = 18 << 3 // "S..."
)

var (
	ErrInvalidStrKey = errors.New("invalid strkey")

	b32 = base32.StdEncoding.WithPadding(base32.NoPadding)
)

func crc16XModem(data []byte) uint16 {
	var crc uint16
	for _, b := range data {
		crc ^= uint16(b) << 8
		for range 8 {
			if crc&0x8000 != 0 {
				crc = crc<<1 ^ 0x1021
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}

func encodeStrKey(v versionByte, payload []byte) string {
	raw := make([]byte, 0, 1+len(payload)+2)
	raw = append(raw, byte(v))
	raw = append(raw, payload...)
	raw = binary.LittleEndian.AppendUint16(raw, crc16XModem(raw))
	return b32.EncodeToString(raw)
}

func decodeStrKey(v versionByte, s string) ([]byte, error) {
	raw, err := b32.DecodeString(s)
	if err != nil || len(raw) != 1+32+2 {
		return nil, ErrInvalidStrKey
	}
	if versionByte(raw[0]) != v {
		return nil, ErrInvalidStrKey
	}
	body, sum := raw[:len(raw)-2], raw[len(raw)-2:]
	if binary.LittleEndian.Uint16(sum) != crc16XModem(body) {
		return nil, ErrInvalidStrKey
	}
	out := make([]byte, 32)
	copy(out, body[1:])
	return out, nil
}

// EncodePublicKey renders a raw ed25519 public key as a "G..." address.
func EncodePublicKey(pub []byte) string {
	return encodeStrKey(versionAccountID, pub)
}

// EncodeSeed renders a raw ed25519 seed as an "S..." secret.
func EncodeSeed(seed []byte) string {
	return encodeStrKey(versionSeed, seed)
}

func DecodePublicKey(s string) ([]byte, error) {
	return decodeStrKey(versionAccountID, s)
}

func DecodeSeed(s string) ([]byte, error) {
	return decodeStrKey(versionSeed, s)
}
