package state

import (
	"encoding/binary"
	"fmt"

	"github.com/mr-tron/base58"
)

// Account is the decoded, in-memory view of a state account. Fields mirror
// exactly; Prices/Timestamps are indexed [asset][slot].
type Account struct {
	Tag              [TagSize]byte
	UpdateAuthority  [PubkeySize]byte
	Prices           [][]int64 // [assetIndex][slotIndex]
	Timestamps       [][]int64 // [assetIndex][slotIndex]
	Decimals         uint8
	Bump             uint8
}

// UpdateAuthorityBase58 renders the authority pubkey the way every pubkey
// in this codebase is logged and compared.
func (a Account) UpdateAuthorityBase58() string {
	return base58.Encode(a.UpdateAuthority[:])
}

// NewEmptyAccount allocates the zero-valued decoded form for a layout.
func NewEmptyAccount(l Layout) Account {
	acc := Account{
		Prices:     make([][]int64, l.AssetCount),
		Timestamps: make([][]int64, l.AssetCount),
	}
	for a := 0; a < l.AssetCount; a++ {
		acc.Prices[a] = make([]int64, l.SlotCount)
		acc.Timestamps[a] = make([]int64, l.SlotCount)
	}
	return acc
}

// Decode parses a raw account buffer into an Account using the fixed offsets
// from Layout. Rejects undersized buffers rather than panicking.
func Decode(l Layout, data []byte) (Account, error) {
	if err := l.Validate(data); err != nil {
		return Account{}, err
	}

	acc := NewEmptyAccount(l)
	copy(acc.Tag[:], data[0:TagSize])
	copy(acc.UpdateAuthority[:], data[l.AuthorityOffset():l.AuthorityOffset()+PubkeySize])

	for assetIdx := 0; assetIdx < l.AssetCount; assetIdx++ {
		for slot := 0; slot < l.SlotCount; slot++ {
			po := l.PriceOffset(assetIdx, slot)
			to := l.TimestampOffset(assetIdx, slot)
			acc.Prices[assetIdx][slot] = int64(binary.LittleEndian.Uint64(data[po : po+Int64Size]))
			acc.Timestamps[assetIdx][slot] = int64(binary.LittleEndian.Uint64(data[to : to+Int64Size]))
		}
	}

	acc.Decimals = data[l.DecimalsOffset()]
	acc.Bump = data[l.BumpOffset()]
	return acc, nil
}

// Encode serializes an Account back into a freshly allocated buffer sized by
// Layout.TotalSize(). Used by the program implementation and by tests that
// want to construct fixture accounts.
func Encode(l Layout, acc Account) ([]byte, error) {
	if len(acc.Prices) != l.AssetCount || len(acc.Timestamps) != l.AssetCount {
		return nil, fmt.Errorf("account asset count %d/%d does not match layout asset count %d", len(acc.Prices), len(acc.Timestamps), l.AssetCount)
	}

	buf := make([]byte, l.TotalSize())
	copy(buf[0:TagSize], acc.Tag[:])
	copy(buf[l.AuthorityOffset():l.AuthorityOffset()+PubkeySize], acc.UpdateAuthority[:])

	for assetIdx := 0; assetIdx < l.AssetCount; assetIdx++ {
		if len(acc.Prices[assetIdx]) != l.SlotCount || len(acc.Timestamps[assetIdx]) != l.SlotCount {
			return nil, fmt.Errorf("asset %d slot count does not match layout slot count %d", assetIdx, l.SlotCount)
		}
		for slot := 0; slot < l.SlotCount; slot++ {
			po := l.PriceOffset(assetIdx, slot)
			to := l.TimestampOffset(assetIdx, slot)
			binary.LittleEndian.PutUint64(buf[po:po+Int64Size], uint64(acc.Prices[assetIdx][slot]))
			binary.LittleEndian.PutUint64(buf[to:to+Int64Size], uint64(acc.Timestamps[assetIdx][slot]))
		}
	}

	buf[l.DecimalsOffset()] = acc.Decimals
	buf[l.BumpOffset()] = acc.Bump
	return buf, nil
}

// WriteSlot atomically updates price_slots[slot] and ts_slots[slot] for one
// asset directly in a raw buffer, without a full decode/encode round trip —
// this is the shape the program uses for batch_set_prices.
func WriteSlot(l Layout, data []byte, assetIdx, slot int, price, timestampMs int64) error {
	if err := l.Validate(data); err != nil {
		return err
	}
	if assetIdx < 0 || assetIdx >= l.AssetCount {
		return fmt.Errorf("asset index %d out of range [0,%d)", assetIdx, l.AssetCount)
	}
	if slot < 0 || slot >= l.SlotCount {
		return fmt.Errorf("slot index %d out of range [0,%d)", slot, l.SlotCount)
	}
	po := l.PriceOffset(assetIdx, slot)
	to := l.TimestampOffset(assetIdx, slot)
	binary.LittleEndian.PutUint64(data[po:po+Int64Size], uint64(price))
	binary.LittleEndian.PutUint64(data[to:to+Int64Size], uint64(timestampMs))
	return nil
}

// ReadSlot reads a single (price, timestamp) pair directly from a raw buffer.
func ReadSlot(l Layout, data []byte, assetIdx, slot int) (price, timestampMs int64, err error) {
	if err := l.Validate(data); err != nil {
		return 0, 0, err
	}
	if assetIdx < 0 || assetIdx >= l.AssetCount {
		return 0, 0, fmt.Errorf("asset index %d out of range [0,%d)", assetIdx, l.AssetCount)
	}
	if slot < 0 || slot >= l.SlotCount {
		return 0, 0, fmt.Errorf("slot index %d out of range [0,%d)", slot, l.SlotCount)
	}
	po := l.PriceOffset(assetIdx, slot)
	to := l.TimestampOffset(assetIdx, slot)
	price = int64(binary.LittleEndian.Uint64(data[po : po+Int64Size]))
	timestampMs = int64(binary.LittleEndian.Uint64(data[to : to+Int64Size]))
	return price, timestampMs, nil
}
