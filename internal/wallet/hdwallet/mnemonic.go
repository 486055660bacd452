package hdwallet

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophwallet/internal/common"
	"github.com/tyler-smith/go-bip39"
)

// MnemonicEntropyBits yields a 12-word phrase.
const MnemonicEntropyBits = 128

func NewMnemonic() (string, error) {
	entropy, err := bip39.NewEntropy(MnemonicEntropyBits)
	if err != nil {
		return "", fmt.Errorf("failed to generate entropy: %w", err)
	}
	defer common.WipeByteArray(entropy)
	return bip39.NewMnemonic(entropy)
}

// NormalizeMnemonic lowercases the phrase and collapses whitespace.
func NormalizeMnemonic(mnemonic string) string {
	return strings.Join(strings.Fields(strings.ToLower(mnemonic)), " ")
}

// ValidateMnemonic checks the word list and checksum.
func ValidateMnemonic(mnemonic string) error {
	if !bip39.IsMnemonicValid(NormalizeMnemonic(mnemonic)) {
		return common.ErrInvalidMnemonic
	}
	return nil
}
