// Package controller owns the signing key, spawns and monitors the
// relay subprocess, validates incoming snapshots and runs the submit
// loop. The relay is restarted after a fixed RestartBackoff delay; unlike
// the venue sockets' reconnect loop, the delay does not grow between
// attempts.
package controller

import (
	"context"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/svmoracle/oracle/internal/ipc"
)

// SupervisorConfig configures relay liveness monitoring and restart policy.
type SupervisorConfig struct {
	RelayCommand      []string // argv, e.g. []string{"oracle-relay", "--env-file", path}
	HeartbeatTimeout  time.Duration //: 30s
	MonitorInterval   time.Duration //: 10s
	RestartBackoff    time.Duration //: 2s
	MaxRestartFailures int          //: 5
}

func DefaultSupervisorConfig(cmd []string) SupervisorConfig {
	return SupervisorConfig{
		RelayCommand:       cmd,
		HeartbeatTimeout:   30 * time.Second,
		MonitorInterval:    10 * time.Second,
		RestartBackoff:     2 * time.Second,
		MaxRestartFailures: 5,
	}
}

// ErrFatal is returned by Supervisor.Run when the restart budget is
// exhausted; the caller (cmd/controller) should exit non-zero.
var ErrFatal = fmt.Errorf("controller: relay exceeded consecutive restart failures")

// Supervisor spawns the relay subprocess, reads its ipc.Messages from
// stdout, and restarts it when it dies or goes quiet.
type Supervisor struct {
	cfg SupervisorConfig
	log *zap.Logger

	mu              sync.Mutex
	consecutiveFail int
	lastActivity    time.Time
}

func NewSupervisor(cfg SupervisorConfig, log *zap.Logger) *Supervisor {
	return &Supervisor{cfg: cfg, log: log, lastActivity: time.Now()}
}

// Run spawns and supervises the relay until ctx is cancelled, delivering
// every ipc.Message it emits to out. It returns ErrFatal if the relay
// exceeds its consecutive-restart-failure budget, nil if ctx is cancelled
// cleanly.
func (s *Supervisor) Run(ctx context.Context, out chan<- ipc.Message) error {
	for {
		if ctx.Err() != nil {
			return nil
		}

		runErr := s.runOnce(ctx, out)
		if ctx.Err() != nil {
			return nil
		}

		s.mu.Lock()
		if runErr != nil {
			s.consecutiveFail++
		} else {
			s.consecutiveFail = 0
		}
		fails := s.consecutiveFail
		s.mu.Unlock()

		s.log.Warn("relay exited, restarting", zap.Error(runErr), zap.Int("consecutive_failures", fails))
		if fails >= s.cfg.MaxRestartFailures {
			return ErrFatal
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.cfg.RestartBackoff):
		}
	}
}

func (s *Supervisor) runOnce(ctx context.Context, out chan<- ipc.Message) error {
	if len(s.cfg.RelayCommand) == 0 {
		return fmt.Errorf("controller: no relay command configured")
	}

	cmd := exec.CommandContext(ctx, s.cfg.RelayCommand[0], s.cfg.RelayCommand[1:]...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("controller: stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("controller: start relay: %w", err)
	}

	s.touch()
	readErrCh := make(chan error, 1)
	go func() {
		readErrCh <- s.readLoop(ctx, stdout, out)
	}()

	monitorCtx, cancelMonitor := context.WithCancel(ctx)
	defer cancelMonitor()
	deadCh := make(chan struct{})
	go func() {
		s.monitorLiveness(monitorCtx, cmd)
		close(deadCh)
	}()

	waitErr := cmd.Wait()
	cancelMonitor()
	<-readErrCh
	<-deadCh
	return waitErr
}

// readLoop decodes newline-delimited JSON ipc.Messages from the relay's
// stdout and forwards them, bumping the liveness clock on every message.
func (s *Supervisor) readLoop(ctx context.Context, stdout io.Reader, out chan<- ipc.Message) error {
	r := ipc.NewReader(stdout)
	for {
		msg, err := r.Next()
		if err != nil {
			return err
		}
		s.touch()
		select {
		case out <- msg:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (s *Supervisor) touch() {
	s.mu.Lock()
	s.lastActivity = time.Now()
	s.mu.Unlock()
}

// monitorLiveness kills the relay process if no heartbeat/message has been
// observed within HeartbeatTimeout, (30s timeout, 10s poll).
func (s *Supervisor) monitorLiveness(ctx context.Context, cmd *exec.Cmd) {
	ticker := time.NewTicker(s.cfg.MonitorInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.mu.Lock()
			quiet := time.Since(s.lastActivity)
			s.mu.Unlock()
			if quiet > s.cfg.HeartbeatTimeout {
				s.log.Warn("relay heartbeat timeout, killing", zap.Duration("quiet_for", quiet))
				if cmd.Process != nil {
					_ = cmd.Process.Kill()
				}
				return
			}
		}
	}
}
