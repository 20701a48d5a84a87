package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

// Run modes.
const (
	ModeShell = "shell"
	ModeServe = "serve"
)

// Config holds the simulator configuration.
type Config struct {
	Mode       string
	ListenAddr string
	RemoteAddr string // shell mode: drive a running server instead of a local ring
	SpaceSize  uint64
	BaseIP     string
	BasePort   int
	Seeds      []ring.Address
}

// Default returns the configuration used when no flags are given.
func Default() Config {
	return Config{
		Mode:       ModeShell,
		ListenAddr: "127.0.0.1:50051",
		SpaceSize:  idspace.DefaultSize,
		BaseIP:     "127.0.0.1",
		BasePort:   8000,
	}
}

// ParseAddress parses a single "ip:port" address.
func ParseAddress(s string) (ring.Address, error) {
	host, portStr, err := net.SplitHostPort(strings.TrimSpace(s))
	if err != nil {
		return ring.Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	if host == "" {
		return ring.Address{}, fmt.Errorf("invalid address %q: empty host", s)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return ring.Address{}, fmt.Errorf("invalid port in %q: %w", s, err)
	}
	if err := validPort(port); err != nil {
		return ring.Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return ring.Address{IP: host, Port: port}, nil
}

// ParseSeeds parses a comma-separated list of addresses in the format:
// "ip1:port1,ip2:port2"
func ParseSeeds(seedsStr string) ([]ring.Address, error) {
	if strings.TrimSpace(seedsStr) == "" {
		return []ring.Address{}, nil
	}

	parts := strings.Split(seedsStr, ",")
	seeds := make([]ring.Address, 0, len(parts))

	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		addr, err := ParseAddress(part)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, addr)
	}

	return seeds, nil
}

// Validate checks the configuration for values the simulator cannot run with.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeShell, ModeServe:
	default:
		return fmt.Errorf("unknown mode %q (expected %s or %s)", c.Mode, ModeShell, ModeServe)
	}
	if c.SpaceSize == 0 {
		return idspace.ErrInvalidSize
	}
	if c.BaseIP == "" {
		return errors.New("base IP cannot be empty")
	}
	if err := validPort(c.BasePort); err != nil {
		return fmt.Errorf("base port: %w", err)
	}
	if c.Mode == ModeServe && c.ListenAddr == "" {
		return errors.New("listen address cannot be empty in serve mode")
	}
	return nil
}

// Space builds the identifier space described by the configuration.
func (c *Config) Space() (idspace.Space, error) {
	return idspace.New(c.SpaceSize)
}

func validPort(port int) error {
	if port < 0 || port > 65535 {
		return fmt.Errorf("port %d out of range", port)
	}
	return nil
}
