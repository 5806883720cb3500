package state

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	l := Layout{AssetCount: 3, SlotCount: 4}
	acc := NewEmptyAccount(l)
	acc.Tag = AccountTag
	acc.UpdateAuthority[0] = 0xAB
	acc.Decimals = 8
	acc.Bump = 255
	acc.Prices[0][0] = 5012345000000
	acc.Timestamps[0][0] = 1700000000000

	buf, err := Encode(l, acc)
	require.NoError(t, err)
	require.Len(t, buf, l.TotalSize())

	decoded, err := Decode(l, buf)
	require.NoError(t, err)
	require.Equal(t, acc, decoded)
}

func TestWriteSlotAtomicPair(t *testing.T) {
	l := Layout{AssetCount: 3, SlotCount: 4}
	buf := make([]byte, l.TotalSize())

	require.NoError(t, WriteSlot(l, buf, 1, 2, 999, 123456))
	price, ts, err := ReadSlot(l, buf, 1, 2)
	require.NoError(t, err)
	require.Equal(t, int64(999), price)
	require.Equal(t, int64(123456), ts)

	// untouched slots remain zero
	price0, ts0, err := ReadSlot(l, buf, 0, 0)
	require.NoError(t, err)
	require.Zero(t, price0)
	require.Zero(t, ts0)
}

func TestWriteSlotRejectsOutOfRange(t *testing.T) {
	l := Layout{AssetCount: 3, SlotCount: 4}
	buf := make([]byte, l.TotalSize())
	require.Error(t, WriteSlot(l, buf, 3, 0, 1, 1))
	require.Error(t, WriteSlot(l, buf, 0, 4, 1, 1))
}

func TestInstructionTagsAreDistinctAndDeterministic(t *testing.T) {
	require.NotEqual(t, TagInitialize, TagBatchSetPrices)
	require.NotEqual(t, TagInitialize, TagCloseState)
	require.NotEqual(t, TagBatchSetPrices, TagCloseState)
	require.Equal(t, instructionTag("initialize"), TagInitialize)
}

func TestEncodeDecodeInitialize(t *testing.T) {
	var authority [PubkeySize]byte
	authority[5] = 7
	args := InitializeArgs{UpdateAuthority: authority, Decimals: 6}
	buf := EncodeInitialize(args)
	decoded, err := DecodeInitialize(buf)
	require.NoError(t, err)
	require.Equal(t, args, decoded)
}

func TestEncodeDecodeBatchSetPrices(t *testing.T) {
	args := BatchSetPricesArgs{
		UpdaterIndex: 2,
		Prices:       []int64{5012345000000, 299900000000, 10050000000},
		ClientTsMs:   1700000000123,
	}
	buf := EncodeBatchSetPrices(args)
	decoded, err := DecodeBatchSetPrices(buf, 3)
	require.NoError(t, err)
	require.Equal(t, args, decoded)
}

func TestEncodeDecodeCloseState(t *testing.T) {
	buf := EncodeCloseState()
	require.NoError(t, DecodeCloseState(buf))

	bad := make([]byte, TagSize)
	copy(bad, TagInitialize[:])
	require.Error(t, DecodeCloseState(bad))
}
