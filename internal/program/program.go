// Package program models the on-chain instruction handlers described in
// as a deterministic state transition over a fixed-size byte
// buffer. It is the reference implementation of the account's transition
// rules, exercised by this package's tests (the controller only builds the
// instruction bytes, through internal/state, and does not call it); a real
// deployment compiles an equivalent Rust/Anchor program against the same
// offsets (internal/state) and tag derivation.
package program

import (
	"errors"
	"fmt"

	"github.com/svmoracle/oracle/internal/state"
)

// Clock supplies the server-side wall clock the program writes into
// ts_slots — never the client-supplied client_ts_ms.
type Clock interface {
	NowUnixMs() int64
}

// ErrBadIndex is returned when updater_index is outside [1, N].
var ErrBadIndex = errors.New("BadIndex")

// ErrUnauthorizedSigner is returned when the signer does not match the
// compile-time allow-list entry for the given updater index.
var ErrUnauthorizedSigner = errors.New("UnauthorizedSigner")

// ErrStateSizeMismatch is returned when the account buffer does not match
// the expected fixed size for the compiled-in asset/slot counts.
var ErrStateSizeMismatch = errors.New("StateSizeMismatch")

// ErrOverflow is returned when the instruction's price slice length does
// not match the layout's asset count, or when a slot write falls outside
// the account buffer.
var ErrOverflow = errors.New("Overflow")

// ErrAlreadyInitialized is returned by Initialize when the account already
// carries the program's tag.
var ErrAlreadyInitialized = errors.New("account already initialized")

// ErrUnauthorizedClose is returned by Close when the signer is not the
// account's update_authority.
var ErrUnauthorizedClose = errors.New("unauthorized close: signer is not update_authority")

// AllowList maps updater index (1-based) to the compile-time signer pubkey
// bytes: entry i holds the key for updater_index i+1, so len(AllowList) == N.
type AllowList [][state.PubkeySize]byte

// Program binds a fixed asset/slot layout and a compile-time signer
// allow-list to instruction handlers.
type Program struct {
	Layout    state.Layout
	Signers   AllowList // Signers[i] is the key for updater_index i+1
	Clock     Clock
}

// New constructs a Program. signers must have exactly N entries, matching
// the compile-time updater slot count.
func New(layout state.Layout, signers AllowList, clock Clock) *Program {
	return &Program{Layout: layout, Signers: signers, Clock: clock}
}

// Initialize creates the account data for a brand-new state account.
// Rejects re-initialization of an already-tagged buffer.
func (p *Program) Initialize(data []byte, args state.InitializeArgs, bump uint8) ([]byte, error) {
	if len(data) != 0 {
		if len(data) >= state.TagSize {
			var existing [state.TagSize]byte
			copy(existing[:], data[:state.TagSize])
			if existing == state.AccountTag {
				return nil, ErrAlreadyInitialized
			}
		}
	}

	acc := state.NewEmptyAccount(p.Layout)
	acc.Tag = state.AccountTag
	acc.UpdateAuthority = args.UpdateAuthority
	acc.Decimals = args.Decimals
	acc.Bump = bump

	return state.Encode(p.Layout, acc)
}

// BatchSetPrices applies the batch_set_prices instruction in place, writing
// the server clock into every touched ts_slot and enforcing the allow-list
//.
func (p *Program) BatchSetPrices(data []byte, signer [state.PubkeySize]byte, args state.BatchSetPricesArgs) error {
	if err := p.Layout.Validate(data); err != nil {
		return fmt.Errorf("%w: %v", ErrStateSizeMismatch, err)
	}
	n := p.slotCount()
	if args.UpdaterIndex < 1 || int(args.UpdaterIndex) > n {
		return ErrBadIndex
	}
	expected, err := p.signerFor(args.UpdaterIndex)
	if err != nil {
		return err
	}
	if expected != signer {
		return ErrUnauthorizedSigner
	}
	if len(args.Prices) != p.Layout.AssetCount {
		return fmt.Errorf("%w: price slice length %d does not match asset count %d", ErrOverflow, len(args.Prices), p.Layout.AssetCount)
	}

	now := p.Clock.NowUnixMs()
	slotIdx := int(args.UpdaterIndex) - 1
	for assetIdx, price := range args.Prices {
		if err := state.WriteSlot(p.Layout, data, assetIdx, slotIdx, price, now); err != nil {
			return fmt.Errorf("%w: %v", ErrOverflow, err)
		}
	}
	return nil
}

// Close zero-fills the account data after verifying the signer is the
// update_authority, modeling the lamport transfer + data wipe of
// close_state. Only the data wipe is modeled; the lamport transfer to
// recipient is out of scope for this in-memory model.
func (p *Program) Close(data []byte, signer [state.PubkeySize]byte) error {
	acc, err := state.Decode(p.Layout, data)
	if err != nil {
		return err
	}
	if acc.UpdateAuthority != signer {
		return ErrUnauthorizedClose
	}
	for i := range data {
		data[i] = 0
	}
	return nil
}

func (p *Program) slotCount() int {
	return p.Layout.SlotCount
}

func (p *Program) signerFor(updaterIndex uint8) ([state.PubkeySize]byte, error) {
	idx := int(updaterIndex) - 1
	if idx < 0 || idx >= len(p.Signers) {
		return [state.PubkeySize]byte{}, ErrBadIndex
	}
	return p.Signers[idx], nil
}
