// Package it runs the chordsim binary as a separate process and drives it
// over gRPC.
package it

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"chordsim/internal/service"
)

// Server is a chordsim process in serve mode.
type Server struct {
	Addr    string
	Port    int
	cmd     *exec.Cmd
	logFile *os.File
	client  *service.Client
}

// StartServer launches binaryPath in serve mode on port and waits until it
// answers Info. Extra flags are passed through unchanged.
func StartServer(ctx context.Context, binaryPath string, port int, flags ...string) (*Server, error) {
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("binary not found at %s, build it first with 'go build -o chordsim ./cmd/chordsim'", binaryPath)
	}

	logDir := filepath.Join(".local", "it-logs")
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(filepath.Join(logDir, fmt.Sprintf("chordsim-%d.log", port)))
	if err != nil {
		return nil, fmt.Errorf("failed to create log file: %w", err)
	}

	addr := fmt.Sprintf("127.0.0.1:%d", port)
	args := append([]string{"--mode", "serve", "--listen", addr}, flags...)
	cmd := exec.CommandContext(ctx, binaryPath, args...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		logFile.Close()
		return nil, fmt.Errorf("failed to start server on %s: %w", addr, err)
	}

	client, err := service.Dial(addr)
	if err != nil {
		cmd.Process.Kill()
		logFile.Close()
		return nil, err
	}

	s := &Server{
		Addr:    addr,
		Port:    port,
		cmd:     cmd,
		logFile: logFile,
		client:  client,
	}

	if err := s.waitForReady(ctx, 10*time.Second); err != nil {
		s.Stop()
		return nil, fmt.Errorf("server on %s failed to become ready: %w", addr, err)
	}
	return s, nil
}

// waitForReady polls Info until it succeeds or timeout elapses.
func (s *Server) waitForReady(ctx context.Context, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	ticker := time.NewTicker(200 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if time.Now().After(deadline) {
				return fmt.Errorf("timeout waiting for %s", s.Addr)
			}

			infoCtx, cancel := context.WithTimeout(ctx, time.Second)
			_, err := s.client.Info(infoCtx)
			cancel()

			if err == nil {
				return nil
			}
		}
	}
}

// Client returns the gRPC client connected to the server.
func (s *Server) Client() *service.Client {
	return s.client
}

// Stop kills the process and releases its resources.
func (s *Server) Stop() {
	if s.client != nil {
		s.client.Close()
	}
	if s.cmd != nil && s.cmd.Process != nil {
		s.cmd.Process.Kill()
		s.cmd.Wait()
	}
	if s.logFile != nil {
		s.logFile.Close()
	}
}
