package mpv

import (
	"context"
	"crypto/rand"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	socketPollInterval = 50 * time.Millisecond
	quitTimeout        = 3 * time.Second
)

// process is a running mpv child.
type process struct {
	cmd        *exec.Cmd
	exited     chan struct{}
	socket     string
	ownsSocket bool
}

// socketPath returns configured, or a fresh path in the temp dir.
func socketPath(configured string) (string, bool, error) {
	if configured != "" {
		return configured, false, nil
	}
	random := make([]byte, 4)
	if _, err := rand.Read(random); err != nil {
		return "", false, fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(os.TempDir(), fmt.Sprintf("mpvbridge-%x.sock", random)), true, nil
}

// startProcess launches mpv with args and waits for its IPC socket.
func startProcess(ctx context.Context, logger *slog.Logger, binary, socket string, ownsSocket bool, args []string) (*process, net.Conn, error) {
	argv := append([]string{
		"--no-terminal",
		"--really-quiet",
		"--input-ipc-server=" + socket,
	}, args...)

	cmd := exec.Command(binary, argv...)
	cmd.SysProcAttr = sysProcAttr()
	cmd.Stdin, cmd.Stdout, cmd.Stderr = nil, nil, nil

	if err := cmd.Start(); err != nil {
		return nil, nil, fmt.Errorf("start %s: %w", binary, err)
	}

	p := &process{cmd: cmd, exited: make(chan struct{}), socket: socket, ownsSocket: ownsSocket}
	go func() {
		_ = cmd.Wait()
		close(p.exited)
	}()

	conn, err := p.waitForSocket(ctx)
	if err != nil {
		logger.Warn("killing mpv: ipc socket never became ready", slog.String("socket", socket))
		p.kill()
		return nil, nil, err
	}

	logger.Info("mpv started", slog.Int("pid", cmd.Process.Pid), slog.String("socket", socket))
	return p, conn, nil
}

// waitForSocket polls until the socket accepts a connection.
func (p *process) waitForSocket(ctx context.Context) (net.Conn, error) {
	var d net.Dialer
	ticker := time.NewTicker(socketPollInterval)
	defer ticker.Stop()

	for {
		conn, err := d.DialContext(ctx, "unix", p.socket)
		if err == nil {
			return conn, nil
		}

		select {
		case <-p.exited:
			return nil, fmt.Errorf("mpv exited before socket %s was ready", p.socket)
		case <-ctx.Done():
			return nil, fmt.Errorf("socket %s not ready: %w", p.socket, ctx.Err())
		case <-ticker.C:
		}
	}
}

// wait blocks until the process exits or timeout passes, then kills it.
func (p *process) wait(timeout time.Duration) {
	select {
	case <-p.exited:
	case <-time.After(timeout):
		p.kill()
	}
	if p.ownsSocket {
		_ = os.Remove(p.socket)
	}
}

func (p *process) kill() {
	_ = killProcess(p.cmd)
	<-p.exited
}
