package txbuilder

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/svmoracle/oracle/internal/rpcclient"
)

// BlockhashCache implements ensure_blockhash_fresh: it
// returns a cached recent blockhash, only refetching when the cached one
// is older than MaxAge.
type BlockhashCache struct {
	client rpcclient.Client
	MaxAge time.Duration

	mu        sync.Mutex
	blockhash solana.Hash
	fetchedAt time.Time
}

func NewBlockhashCache(client rpcclient.Client) *BlockhashCache {
	return &BlockhashCache{client: client, MaxAge: 2 * time.Second}
}

// Ensure returns a recent blockhash, fetching a new one only if the
// cached value is older than MaxAge.
func (c *BlockhashCache) Ensure(ctx context.Context) (solana.Hash, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if time.Since(c.fetchedAt) <= c.MaxAge && c.blockhash != (solana.Hash{}) {
		return c.blockhash, nil
	}

	res, err := c.client.GetLatestBlockhash(ctx, rpc.CommitmentProcessed)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("txbuilder: fetch blockhash: %w", Classify(err))
	}

	c.blockhash = res.Value.Blockhash
	c.fetchedAt = time.Now()
	return c.blockhash, nil
}
