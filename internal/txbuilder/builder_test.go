package txbuilder

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/require"
)

type fakeRPC struct {
	blockhash    solana.Hash
	sendErr      error
	sendCalls    int
	blockhashErr error
}

func (f *fakeRPC) GetLatestBlockhash(ctx context.Context, commitment rpc.CommitmentType) (*rpc.GetLatestBlockhashResult, error) {
	if f.blockhashErr != nil {
		return nil, f.blockhashErr
	}
	return &rpc.GetLatestBlockhashResult{Value: &rpc.LatestBlockhashResult{Blockhash: f.blockhash}}, nil
}

func (f *fakeRPC) GetAccountInfo(ctx context.Context, account solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeRPC) SendTransactionWithOpts(ctx context.Context, tx *solana.Transaction, opts rpc.TransactionOpts) (solana.Signature, error) {
	f.sendCalls++
	if f.sendErr != nil {
		return solana.Signature{}, f.sendErr
	}
	return solana.Signature{1, 2, 3}, nil
}

func TestSubmitBatchSignsAndSends(t *testing.T) {
	fake := &fakeRPC{blockhash: solana.Hash{9, 9, 9}}
	programID := solana.NewWallet().PublicKey()
	statePDA := solana.NewWallet().PublicKey()
	b := NewBuilder(fake, programID, statePDA)

	signer := solana.NewWallet().PrivateKey
	sig, err := b.SubmitBatch(context.Background(), signer, 1, []int64{100, 200}, time.Now().UnixMilli())
	require.NoError(t, err)
	require.NotEqual(t, solana.Signature{}, sig)
	require.Equal(t, 1, fake.sendCalls)
}

func TestSubmitBatchClassifiesBlockhashNotFound(t *testing.T) {
	fake := &fakeRPC{sendErr: errors.New("Blockhash not found")}
	programID := solana.NewWallet().PublicKey()
	statePDA := solana.NewWallet().PublicKey()
	b := NewBuilder(fake, programID, statePDA)

	signer := solana.NewWallet().PrivateKey
	_, err := b.SubmitBatch(context.Background(), signer, 1, []int64{100}, 0)
	require.Error(t, err)
	require.True(t, IsTransient(err))
}

func TestSubmitInitializeSignsAndSends(t *testing.T) {
	fake := &fakeRPC{blockhash: solana.Hash{4, 4, 4}}
	programID := solana.NewWallet().PublicKey()
	statePDA := solana.NewWallet().PublicKey()
	b := NewBuilder(fake, programID, statePDA)

	authority := solana.NewWallet().PrivateKey
	sig, err := b.SubmitInitialize(context.Background(), authority, 8)
	require.NoError(t, err)
	require.NotEqual(t, solana.Signature{}, sig)
	require.Equal(t, 1, fake.sendCalls)
}

func TestBlockhashCacheReusesWithinMaxAge(t *testing.T) {
	fake := &fakeRPC{blockhash: solana.Hash{1}}
	cache := NewBlockhashCache(fake)
	cache.MaxAge = time.Minute

	bh1, err := cache.Ensure(context.Background())
	require.NoError(t, err)
	bh2, err := cache.Ensure(context.Background())
	require.NoError(t, err)
	require.Equal(t, bh1, bh2)
}
