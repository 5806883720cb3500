package state

import (
	"encoding/binary"
	"fmt"
)

// InitializeArgs is the decoded payload of the initialize instruction.
type InitializeArgs struct {
	UpdateAuthority [PubkeySize]byte
	Decimals        uint8
}

// EncodeInitialize builds the wire format: 8-byte tag, 32-byte authority,
// 1-byte decimals.
func EncodeInitialize(args InitializeArgs) []byte {
	buf := make([]byte, TagSize+PubkeySize+1)
	copy(buf[0:TagSize], TagInitialize[:])
	copy(buf[TagSize:TagSize+PubkeySize], args.UpdateAuthority[:])
	buf[TagSize+PubkeySize] = args.Decimals
	return buf
}

// DecodeInitialize parses the initialize instruction payload.
func DecodeInitialize(data []byte) (InitializeArgs, error) {
	want := TagSize + PubkeySize + 1
	if len(data) != want {
		return InitializeArgs{}, fmt.Errorf("initialize payload wrong size: got %d want %d", len(data), want)
	}
	if !tagEquals(data[0:TagSize], TagInitialize) {
		return InitializeArgs{}, fmt.Errorf("initialize payload has wrong instruction tag")
	}
	var args InitializeArgs
	copy(args.UpdateAuthority[:], data[TagSize:TagSize+PubkeySize])
	args.Decimals = data[TagSize+PubkeySize]
	return args, nil
}

// BatchSetPricesArgs is the decoded payload of batch_set_prices.
type BatchSetPricesArgs struct {
	UpdaterIndex uint8
	Prices       []int64 // length A, compile-time asset order
	ClientTsMs   int64
}

// EncodeBatchSetPrices builds the wire format: 8-byte tag, 1-byte
// updater_index, A*8 bytes signed prices, 8 bytes client_ts_ms.
func EncodeBatchSetPrices(args BatchSetPricesArgs) []byte {
	n := len(args.Prices)
	buf := make([]byte, TagSize+1+n*Int64Size+Int64Size)
	copy(buf[0:TagSize], TagBatchSetPrices[:])
	buf[TagSize] = args.UpdaterIndex
	off := TagSize + 1
	for _, p := range args.Prices {
		binary.LittleEndian.PutUint64(buf[off:off+Int64Size], uint64(p))
		off += Int64Size
	}
	binary.LittleEndian.PutUint64(buf[off:off+Int64Size], uint64(args.ClientTsMs))
	return buf
}

// DecodeBatchSetPrices parses a batch_set_prices payload for a known asset count.
func DecodeBatchSetPrices(data []byte, assetCount int) (BatchSetPricesArgs, error) {
	want := TagSize + 1 + assetCount*Int64Size + Int64Size
	if len(data) != want {
		return BatchSetPricesArgs{}, fmt.Errorf("batch_set_prices payload wrong size: got %d want %d", len(data), want)
	}
	if !tagEquals(data[0:TagSize], TagBatchSetPrices) {
		return BatchSetPricesArgs{}, fmt.Errorf("batch_set_prices payload has wrong instruction tag")
	}
	args := BatchSetPricesArgs{
		UpdaterIndex: data[TagSize],
		Prices:       make([]int64, assetCount),
	}
	off := TagSize + 1
	for i := 0; i < assetCount; i++ {
		args.Prices[i] = int64(binary.LittleEndian.Uint64(data[off : off+Int64Size]))
		off += Int64Size
	}
	args.ClientTsMs = int64(binary.LittleEndian.Uint64(data[off : off+Int64Size]))
	return args, nil
}

// EncodeCloseState builds the wire format: 8-byte tag only.
func EncodeCloseState() []byte {
	buf := make([]byte, TagSize)
	copy(buf, TagCloseState[:])
	return buf
}

// DecodeCloseState validates a close_state payload and returns nothing else,
// since the instruction carries no arguments.
func DecodeCloseState(data []byte) error {
	if len(data) != TagSize {
		return fmt.Errorf("close_state payload wrong size: got %d want %d", len(data), TagSize)
	}
	if !tagEquals(data[0:TagSize], TagCloseState) {
		return fmt.Errorf("close_state payload has wrong instruction tag")
	}
	return nil
}

func tagEquals(got []byte, want [TagSize]byte) bool {
	if len(got) != TagSize {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
