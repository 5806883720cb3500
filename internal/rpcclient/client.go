// Package rpcclient defines the thin RPC surface the transaction builder
// and controller need (account info fetch, blockhash fetch, raw
// transaction submission), narrowed down so it is trivial to fake in
// tests.
package rpcclient

import (
	"context"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
)

// Client is satisfied by *rpc.Client (the real SVM RPC client) and by test
// doubles.
type Client interface {
	GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error)
	GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error)
	SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error)
}

// New wraps an RPC endpoint URL in the real gagliardetto/solana-go client.
func New(endpoint string) Client {
	return rpc.New(endpoint)
}
