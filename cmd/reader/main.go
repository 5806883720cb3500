// Command oracle-reader polls the on-chain state account, decodes it,
// and serves the aggregation dashboard over HTTP and SSE.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/cliutil"
	"github.com/svmoracle/oracle/internal/config"
	"github.com/svmoracle/oracle/internal/logging"
	"github.com/svmoracle/oracle/internal/reader"
	"github.com/svmoracle/oracle/internal/rpcclient"
	"github.com/svmoracle/oracle/internal/state"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to a .env file (optional)")
	verbose := pflag.Bool("verbose", false, "enable debug logging")
	rpcURL := pflag.String("rpc-url", "https://api.mainnet-beta.solana.com", "SVM RPC endpoint")
	programIDStr := pflag.String("program-id", "", "base58 program id (required)")
	assetCount := pflag.Int("asset-count", 10, "number of assets in the compile-time registry")
	slotCount := pflag.Int("slot-count", 4, "number of updater slots (N)")
	decimals := pflag.Uint8("decimals", 8, "expected decimals; mismatch with on-chain decimals is a config error unless --decimals-override is set")
	decimalsOverride := pflag.Bool("decimals-override", false, "force the expected decimals value instead of treating a mismatch as a config error")
	pollMs := pflag.Int64("poll-ms", 250, "poll cadence, default 250ms")
	listenAddr := pflag.String("listen", ":8080", "HTTP listen address")
	pflag.Parse()

	config.Load(*envFile)
	log, err := logging.New("reader", *verbose)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *programIDStr == "" {
		log.Fatal("missing required flag: --program-id")
	}
	if !cliutil.IsValidPubkeyString(*programIDStr) {
		log.Fatal("--program-id is not a valid base58 public key", zap.String("program_id", *programIDStr))
	}

	programID, err := solana.PublicKeyFromBase58(*programIDStr)
	if err != nil {
		log.Fatal("invalid --program-id", zap.Error(err))
	}
	statePDA, _, err := state.DerivePDA(programID)
	if err != nil {
		log.Fatal("failed to derive state PDA", zap.Error(err))
	}

	client := rpcclient.New(*rpcURL)
	fetcher := reader.NewRPCFetcher(client, statePDA)
	layout := state.Layout{AssetCount: *assetCount, SlotCount: *slotCount}

	srv := reader.NewServer(log, fetcher, layout, statePDA.String(), uint8(*decimals), *decimalsOverride, time.Duration(*pollMs)*time.Millisecond)

	httpServer := &http.Server{Addr: *listenAddr, Handler: srv.Router()}

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		cancel()
		_ = httpServer.Shutdown(context.Background())
	}()

	log.Info("reader listening", zap.String("addr", *listenAddr), zap.String("pda", statePDA.String()))
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error("http server exited with error", zap.Error(err))
	}
	<-ctx.Done()
}
