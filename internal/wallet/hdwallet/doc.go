// Package hdwallet derives Stellar ed25519 key pairs from BIP-39 mnemonics
// along the SLIP-0010 path m/44'/148'/index' and encodes them as strkeys.
// Everything here is pure: no storage, no logging.
package hdwallet
