package txbuilder

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/svmoracle/oracle/internal/rpcclient"
	"github.com/svmoracle/oracle/internal/state"
)

// ComputeUnitLimit is prepended to every submitted transaction as a
// compute-budget instruction, bounding worst-case execution cost the way
// requires ("a compute-unit-limit prelude").
const ComputeUnitLimit = 40_000

const computeBudgetProgramID = "ComputeBudget111111111111111111111111111111"

const systemProgramID = "11111111111111111111111111111111"

// Builder assembles, signs and submits batch_set_prices transactions.
type Builder struct {
	client    rpcclient.Client
	blockhash *BlockhashCache
	programID solana.PublicKey
	statePDA  solana.PublicKey
}

func NewBuilder(client rpcclient.Client, programID, statePDA solana.PublicKey) *Builder {
	return &Builder{client: client, blockhash: NewBlockhashCache(client), programID: programID, statePDA: statePDA}
}

// SubmitBatch constructs and submits one batch_set_prices transaction
// carrying every asset's quantized price in compile-time order.
// client_ts_ms is carried for observability only — the program never
// stores it.
func (b *Builder) SubmitBatch(ctx context.Context, signer solana.PrivateKey, updaterIndex uint8, pricesByAsset []int64, clientTsMs int64) (solana.Signature, error) {
	data := state.EncodeBatchSetPrices(state.BatchSetPricesArgs{
		UpdaterIndex: updaterIndex,
		Prices:       pricesByAsset,
		ClientTsMs:   clientTsMs,
	})

	ix := solana.NewInstruction(b.programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(b.statePDA, true, false),
		solana.NewAccountMeta(signer.PublicKey(), false, true),
	}, data)

	bh, err := b.blockhash.Ensure(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := solana.NewTransaction([]solana.Instruction{computeBudgetInstruction(), ix}, bh, solana.TransactionPayer(signer.PublicKey()))
	if err != nil {
		return solana.Signature{}, &PermanentError{Kind: KindDecode, Err: fmt.Errorf("build transaction: %w", err)}
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(signer.PublicKey()) {
			return &signer
		}
		return nil
	}); err != nil {
		return solana.Signature{}, &PermanentError{Kind: KindDecode, Err: fmt.Errorf("sign transaction: %w", err)}
	}

	sig, err := b.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return solana.Signature{}, Classify(err)
	}
	return sig, nil
}

// SubmitInitialize constructs and submits the initialize instruction that
// creates the state account. The state PDA can only be created by the
// program itself (via a signed CPI into the system program using its own
// seeds), so the transaction passes the system program in as a plain
// account reference on the initialize instruction rather than submitting
// a separate client-built create-account instruction.
func (b *Builder) SubmitInitialize(ctx context.Context, authority solana.PrivateKey, decimals uint8) (solana.Signature, error) {
	authorityPK := authority.PublicKey()
	var authorityBytes [state.PubkeySize]byte
	copy(authorityBytes[:], authorityPK[:])

	data := state.EncodeInitialize(state.InitializeArgs{
		UpdateAuthority: authorityBytes,
		Decimals:        decimals,
	})

	systemProgram := solana.MustPublicKeyFromBase58(systemProgramID)
	ix := solana.NewInstruction(b.programID, solana.AccountMetaSlice{
		solana.NewAccountMeta(b.statePDA, true, false),
		solana.NewAccountMeta(authorityPK, true, true),
		solana.NewAccountMeta(systemProgram, false, false),
	}, data)

	bh, err := b.blockhash.Ensure(ctx)
	if err != nil {
		return solana.Signature{}, err
	}

	tx, err := solana.NewTransaction([]solana.Instruction{computeBudgetInstruction(), ix}, bh, solana.TransactionPayer(authorityPK))
	if err != nil {
		return solana.Signature{}, &PermanentError{Kind: KindDecode, Err: fmt.Errorf("build transaction: %w", err)}
	}

	if _, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(authorityPK) {
			return &authority
		}
		return nil
	}); err != nil {
		return solana.Signature{}, &PermanentError{Kind: KindDecode, Err: fmt.Errorf("sign transaction: %w", err)}
	}

	sig, err := b.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		SkipPreflight:       false,
		PreflightCommitment: rpc.CommitmentProcessed,
	})
	if err != nil {
		return solana.Signature{}, Classify(err)
	}
	return sig, nil
}

// computeBudgetInstruction builds a minimal compute-unit-limit
// instruction. Data layout: tag byte 2 (SetComputeUnitLimit) + u32 units.
func computeBudgetInstruction() solana.Instruction {
	programID := solana.MustPublicKeyFromBase58(computeBudgetProgramID)
	data := make([]byte, 5)
	data[0] = 2
	data[1] = byte(ComputeUnitLimit)
	data[2] = byte(ComputeUnitLimit >> 8)
	data[3] = byte(ComputeUnitLimit >> 16)
	data[4] = byte(ComputeUnitLimit >> 24)
	return solana.NewInstruction(programID, solana.AccountMetaSlice{}, data)
}
