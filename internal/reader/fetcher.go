package reader

import (
	"context"
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/svmoracle/oracle/internal/rpcclient"
)

// RPCFetcher is the live AccountFetcher, backed by the SVM RPC client.
type RPCFetcher struct {
	client rpcclient.Client
	pda    solana.PublicKey
}

func NewRPCFetcher(client rpcclient.Client, pda solana.PublicKey) *RPCFetcher {
	return &RPCFetcher{client: client, pda: pda}
}

// FetchAccount fetches the state account at processed commitment. A
// not-found account is reported as zero-length data rather than an
// error, so the caller can render exists:false instead of failing the
// whole snapshot.
func (f *RPCFetcher) FetchAccount(ctx context.Context) ([]byte, uint64, error) {
	res, err := f.client.GetAccountInfo(ctx, f.pda)
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("reader: get account info: %w", err)
	}
	if res == nil || res.Value == nil {
		return nil, 0, nil
	}
	return res.Value.Data.GetBinary(), res.Context.Slot, nil
}
