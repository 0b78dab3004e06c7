// Package deploy pulls new code and restarts the process. The bot only ever
// talks to it through the Redeployer and Restarter interfaces.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"
)

// ErrInProgress is returned when a redeploy is already running.
var ErrInProgress = errors.New("redeploy already in progress")

// System abstracts OS operations for testability.
type System interface {
	RunCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	Exit(code int)
}

// RealSystem implements System with real OS calls.
type RealSystem struct{}

func (RealSystem) RunCommand(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

func (RealSystem) Exit(code int) { os.Exit(code) }

// Redeployer fetches new code and schedules a restart.
type Redeployer interface {
	Redeploy(ctx context.Context) (output string, err error)
}

// Restarter ends the process so a supervisor can start it again.
type Restarter interface {
	Restart(ctx context.Context, reason string)
}

// ProcessRestarter exits with status 0 after a delay, giving pending replies
// time to flush. Only the first Restart call has an effect.
type ProcessRestarter struct {
	sys        System
	delay      time.Duration
	logger     *slog.Logger
	beforeExit func()
	after      func(time.Duration) <-chan time.Time
	once       sync.Once
}

// NewProcessRestarter creates a ProcessRestarter. beforeExit, when set, runs
// right before the process exits.
func NewProcessRestarter(sys System, delay time.Duration, logger *slog.Logger, beforeExit func()) *ProcessRestarter {
	return &ProcessRestarter{
		sys:        sys,
		delay:      delay,
		logger:     logger,
		beforeExit: beforeExit,
		after:      time.After,
	}
}

// Restart returns immediately; the exit happens in the background.
func (r *ProcessRestarter) Restart(ctx context.Context, reason string) {
	r.once.Do(func() {
		r.logger.InfoContext(ctx, "restart scheduled", "reason", reason, "delay", r.delay)
		go func() {
			<-r.after(r.delay)
			if r.beforeExit != nil {
				r.beforeExit()
			}
			r.logger.Info("exiting for restart", "reason", reason)
			r.sys.Exit(0)
		}()
	})
}

// GitRedeployer runs the deploy command (normally git pull) and restarts.
type GitRedeployer struct {
	sys       System
	name      string
	args      []string
	dir       string
	restarter Restarter
	logger    *slog.Logger
	mu        sync.Mutex
}

// NewGitRedeployer creates a GitRedeployer running command in dir. An empty
// dir means the working directory.
func NewGitRedeployer(sys System, command, dir string, restarter Restarter, logger *slog.Logger) (*GitRedeployer, error) {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return nil, errors.New("deploy command is empty")
	}
	return &GitRedeployer{
		sys:       sys,
		name:      fields[0],
		args:      fields[1:],
		dir:       dir,
		restarter: restarter,
		logger:    logger,
	}, nil
}

// Redeploy runs the deploy command and returns its combined output. The
// restart is only requested when the command succeeds.
func (g *GitRedeployer) Redeploy(ctx context.Context) (string, error) {
	if !g.mu.TryLock() {
		return "", ErrInProgress
	}
	defer g.mu.Unlock()

	g.logger.InfoContext(ctx, "running deploy command", "command", g.name, "args", g.args)
	out, err := g.sys.RunCommand(ctx, g.dir, g.name, g.args...)
	if err != nil {
		return string(out), fmt.Errorf("running %s: %w", g.name, err)
	}
	g.restarter.Restart(ctx, "redeploy")
	return string(out), nil
}
