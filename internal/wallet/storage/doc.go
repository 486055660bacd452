// Package storage provides the plain and secure key/value backends used by
// the session layer.
//
// Plain values live in the SQLite "kv" table. Secure values either live in
// the "secure_kv" table sealed under a per-device key (see Sealed) or in AWS
// SSM Parameter Store as SecureString parameters (see SSMStorage).
//
// Every backend wraps its failures with common.ErrStorageIO.
package storage
