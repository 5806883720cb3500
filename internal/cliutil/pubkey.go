// Package cliutil holds small validation helpers shared by the command
// entrypoints.
package cliutil

import "github.com/mr-tron/base58"

// IsValidPubkeyString reports whether address decodes to a 32-byte
// Solana public key, without requiring a full solana.PublicKey parse.
// Used to give flag-parsing errors a clearer message than the decode
// error solana.PublicKeyFromBase58 would otherwise surface.
func IsValidPubkeyString(address string) bool {
	if len(address) < 32 || len(address) > 44 {
		return false
	}
	decoded, err := base58.Decode(address)
	if err != nil {
		return false
	}
	return len(decoded) == 32
}
