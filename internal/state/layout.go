// Package state implements the bit-exact on-chain account layout shared by
// the program (internal/program) and the dashboard reader (internal/reader).
package state

import "fmt"

// TagSize is the width of the account-type discriminator at offset 0.
const TagSize = 8

// PubkeySize is the width of a Solana public key in bytes.
const PubkeySize = 32

// Int64Size is the width of a little-endian signed 64-bit slot value.
const Int64Size = 8

// Layout describes the fixed byte offsets of a state account for a given
// asset count (A) and updater slot count (N). All math here must be
// reproduced identically by an off-chain decoder
type Layout struct {
	AssetCount int
	SlotCount  int
}

// TripletSize is the per-asset block size: N prices + N timestamps, 8 bytes each.
func (l Layout) TripletSize() int {
	return 2 * Int64Size * l.SlotCount
}

// TotalSize is the full account size: tag + authority + A*tripletSize + decimals + bump.
func (l Layout) TotalSize() int {
	return TagSize + PubkeySize + l.AssetCount*l.TripletSize() + 2
}

// AuthorityOffset is the byte offset of the 32-byte update_authority field.
func (l Layout) AuthorityOffset() int {
	return TagSize
}

// AssetsOffset is the byte offset where the asset triplet blocks begin.
func (l Layout) AssetsOffset() int {
	return TagSize + PubkeySize
}

// PriceOffset returns the byte offset of price_slots[slot] for asset index a.
func (l Layout) PriceOffset(a, slot int) int {
	return l.AssetsOffset() + a*l.TripletSize() + slot*Int64Size
}

// TimestampOffset returns the byte offset of ts_slots[slot] for asset index a.
func (l Layout) TimestampOffset(a, slot int) int {
	return l.AssetsOffset() + a*l.TripletSize() + l.SlotCount*Int64Size + slot*Int64Size
}

// DecimalsOffset is the byte offset of the single decimals byte.
func (l Layout) DecimalsOffset() int {
	return l.AssetsOffset() + l.AssetCount*l.TripletSize()
}

// BumpOffset is the byte offset of the single PDA bump byte.
func (l Layout) BumpOffset() int {
	return l.DecimalsOffset() + 1
}

// Validate checks that a buffer is large enough for this layout, returning
// a descriptive error rather than panicking — callers (program and reader)
// must reject undersized accounts instead of indexing out of bounds.
func (l Layout) Validate(data []byte) error {
	want := l.TotalSize()
	if len(data) < want {
		return fmt.Errorf("state too small: got %d bytes, want %d (assets=%d slots=%d)", len(data), want, l.AssetCount, l.SlotCount)
	}
	return nil
}
