package hdwallet

import (
	"crypto/ed25519"
	"fmt"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/dmitrijs2005/gophwallet/internal/wallet/models"
	"github.com/tyler-smith/go-bip39"
)

const (
	purpose  uint32 = 44
	coinType uint32 = 148
)

// DeriveKeyPair returns the Stellar key pair at m/44'/148'/index' for the
// given mnemonic. The BIP-39 passphrase is always empty.
func DeriveKeyPair(mnemonic string, index uint32) (models.KeyPair, error) {
	seed, err := bip39.NewSeedWithErrorChecking(NormalizeMnemonic(mnemonic), "")
	if err != nil {
		return models.KeyPair{}, fmt.Errorf("%w: %w", common.ErrInvalidMnemonic, err)
	}
	defer common.WipeByteArray(seed)

	n := derivePath(seed, purpose, coinType, index)
	defer common.WipeByteArray(n.key)
	defer common.WipeByteArray(n.chainCode)

	priv := ed25519.NewKeyFromSeed(n.key)
	defer common.WipeByteArray(priv)

	return models.KeyPair{
		PublicKey:  EncodePublicKey(priv.Public().(ed25519.PublicKey)),
		PrivateKey: EncodeSeed(n.key),
	}, nil
}

// KeyPairFromSecret rebuilds the key pair for an "S..." secret seed.
func KeyPairFromSecret(secret string) (models.KeyPair, error) {
	seed, err := DecodeSeed(secret)
	if err != nil {
		return models.KeyPair{}, fmt.Errorf("%w: %w", common.ErrInvalidSecretKey, err)
	}
	defer common.WipeByteArray(seed)

	priv := ed25519.NewKeyFromSeed(seed)
	defer common.WipeByteArray(priv)

	return models.KeyPair{
		PublicKey:  EncodePublicKey(priv.Public().(ed25519.PublicKey)),
		PrivateKey: secret,
	}, nil
}

// FindIndex returns the key pair at the first index below limit whose
// public key is publicKey.
func FindIndex(mnemonic, publicKey string, limit uint32) (models.KeyPair, uint32, bool, error) {
	for i := range limit {
		kp, err := DeriveKeyPair(mnemonic, i)
		if err != nil {
			return models.KeyPair{}, 0, false, err
		}
		if kp.PublicKey == publicKey {
			return kp, i, true, nil
		}
	}
	return models.KeyPair{}, 0, false, nil
}

// Sign signs msg with the account whose "S..." secret is given.
func Sign(secret string, msg []byte) ([]byte, error) {
	seed, err := DecodeSeed(secret)
	if err != nil {
		return nil, err
	}
	defer common.WipeByteArray(seed)

	priv := ed25519.NewKeyFromSeed(seed)
	defer common.WipeByteArray(priv)
	return ed25519.Sign(priv, msg), nil
}

// Verify checks sig against the "G..." address.
func Verify(address string, msg, sig []byte) bool {
	pub, err := DecodePublicKey(address)
	if err != nil {
		return false
	}
	return ed25519.Verify(ed25519.PublicKey(pub), msg, sig)
}
