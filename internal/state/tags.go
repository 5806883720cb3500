package state

import "crypto/sha256"

// Instruction tags are derived with the anchor-style global discriminator:
// the first 8 bytes of sha256("global:<instruction_name>"). This is
// documented here precisely so an off-chain decoder can reproduce the tags
// without reading the program's source,
func instructionTag(name string) [TagSize]byte {
	sum := sha256.Sum256([]byte("global:" + name))
	var tag [TagSize]byte
	copy(tag[:], sum[:TagSize])
	return tag
}

var (
	// TagInitialize is the 8-byte discriminator for the initialize instruction.
	TagInitialize = instructionTag("initialize")
	// TagBatchSetPrices is the 8-byte discriminator for batch_set_prices.
	TagBatchSetPrices = instructionTag("batch_set_prices")
	// TagCloseState is the 8-byte discriminator for close_state.
	TagCloseState = instructionTag("close_state")
)

// AccountTag is the account-type discriminator stored at offset 0 of the
// state account. It is opaque to the program except for equality and
// reuses the same derivation scheme as instruction tags.
var AccountTag = instructionTag("account:price_oracle_state")
