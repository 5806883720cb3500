// Command oracle-controller owns the signing key, supervises the relay
// subprocess, and runs the submit loop. The raw key material is read
// once from the environment and used to construct a solana.PrivateKey;
// the environment variable is then unset and the local string dropped.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/cliutil"
	"github.com/svmoracle/oracle/internal/config"
	"github.com/svmoracle/oracle/internal/controller"
	"github.com/svmoracle/oracle/internal/ipc"
	"github.com/svmoracle/oracle/internal/logging"
	"github.com/svmoracle/oracle/internal/rpcclient"
	"github.com/svmoracle/oracle/internal/state"
	"github.com/svmoracle/oracle/internal/txbuilder"
)

func main() {
	envFile := pflag.String("env-file", ".env", "path to a .env file (optional)")
	verbose := pflag.Bool("verbose", false, "enable debug logging")
	rpcURL := pflag.String("rpc-url", "https://api.mainnet-beta.solana.com", "SVM RPC endpoint")
	programIDStr := pflag.String("program-id", "", "base58 program id (required)")
	updaterIndex := pflag.Uint8("updater-index", 0, "this updater's 1-based slot index (required)")
	assetCount := pflag.Int("asset-count", 10, "number of assets in the compile-time registry")
	slotCount := pflag.Int("slot-count", 4, "number of updater slots (N)")
	decimals := pflag.Uint8("decimals", 8, "fixed-point decimals")
	tickMs := pflag.Int64("tick-ms", 750, "submit loop tick interval, default 750ms")
	lockPath := pflag.String("lock-file", "/tmp/oracle-controller.lock", "single-instance lock file path")
	relayCmd := pflag.StringArray("relay-cmd", nil, "argv used to spawn the relay subprocess (required)")
	pflag.Parse()

	config.Load(*envFile)
	log, err := logging.New("controller", *verbose)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if *programIDStr == "" || *updaterIndex == 0 || len(*relayCmd) == 0 {
		log.Fatal("missing required flags: --program-id, --updater-index, --relay-cmd")
	}
	if !cliutil.IsValidPubkeyString(*programIDStr) {
		log.Fatal("--program-id is not a valid base58 public key", zap.String("program_id", *programIDStr))
	}

	lock := controller.NewLockfile(*lockPath)
	if err := lock.Acquire(); err != nil {
		log.Fatal("failed to acquire single-instance lock", zap.Error(err))
	}
	defer lock.Release()

	signer, err := loadSigner()
	if err != nil {
		log.Fatal("failed to load signing key", zap.Error(err))
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
	builder := txbuilder.NewBuilder(client, programID, statePDA)

	if err := ensureInitialized(context.Background(), builder, client, statePDA, signer, state.Layout{AssetCount: *assetCount, SlotCount: *slotCount}, *decimals, log); err != nil {
		log.Fatal("initialization check failed", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		log.Info("signal received, shutting down")
		cancel()
	}()

	loop := controller.NewSubmitLoop(log, signer, *updaterIndex, builder, controller.DefaultValidator(), *decimals)

	relayMessages := make(chan ipc.Message, 256)
	sup := controller.NewSupervisor(controller.DefaultSupervisorConfig(*relayCmd), log)
	go func() {
		if err := sup.Run(ctx, relayMessages); err != nil {
			log.Error("relay supervision ended fatally", zap.Error(err))
			cancel()
		}
	}()

	go consumeRelayMessages(ctx, loop, relayMessages, log)

	runSubmitLoop(ctx, loop, time.Duration(*tickMs)*time.Millisecond, log)
}

func consumeRelayMessages(ctx context.Context, loop *controller.SubmitLoop, in <-chan ipc.Message, log *zap.Logger) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-in:
			switch msg.Kind {
			case ipc.KindPriceUpdate:
				if msg.Price != nil {
					loop.Merge(*msg.Price)
				}
			case ipc.KindHeartbeat:
				// liveness is tracked by the supervisor's readLoop touch,
				// nothing further to do here.
			}
		}
	}
}

func runSubmitLoop(ctx context.Context, loop *controller.SubmitLoop, interval time.Duration, log *zap.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			loop.Tick(ctx)
		}
	}
}

// loadSigner reads the updater's private key from exactly one source
// (env var here; interactive/stdin are left as deployment-time choices).
// After parsing, whether or not it succeeded, the local string is set to
// "" and the env var is unset before returning; the bytes of the original
// Go string are not overwritten.
func loadSigner() (solana.PrivateKey, error) {
	raw := os.Getenv("ORACLE_UPDATER_PRIVATE_KEY")
	if raw == "" {
		return nil, fmt.Errorf("ORACLE_UPDATER_PRIVATE_KEY is not set")
	}
	defer os.Unsetenv("ORACLE_UPDATER_PRIVATE_KEY")

	key, err := solana.PrivateKeyFromBase58(raw)
	raw = ""
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	return key, nil
}

// ensureInitialized checks for the state account on startup and submits
// initialize when it's absent. Deployments where the updater's key is
// not the update authority must configure a separate init step out of
// band; here the updater key IS assumed to be the authority, the
// simplest deployment this binary supports.
func ensureInitialized(ctx context.Context, builder *txbuilder.Builder, client rpcclient.Client, pda solana.PublicKey, signer solana.PrivateKey, layout state.Layout, decimals uint8, log *zap.Logger) error {
	info, err := client.GetAccountInfo(ctx, pda)
	if err == nil && info != nil && info.Value != nil {
		if got := len(info.Value.Data.GetBinary()); got < layout.TotalSize() {
			return fmt.Errorf("state account exists but is too small: got %d bytes, want at least %d", got, layout.TotalSize())
		}
		log.Info("state account already initialized")
		return nil
	}

	log.Info("state account absent, submitting initialize", zap.String("authority", signer.PublicKey().String()))
	sig, err := builder.SubmitInitialize(ctx, signer, decimals)
	if err != nil {
		return fmt.Errorf("submit initialize: %w", err)
	}
	log.Info("initialize submitted", zap.String("signature", sig.String()))
	return nil
}
