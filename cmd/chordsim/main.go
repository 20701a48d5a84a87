package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"chordsim/internal/cluster"
	"chordsim/internal/config"
	"chordsim/internal/ring"
	"chordsim/internal/service"
	"chordsim/internal/shell"
)

var _ shell.Backend = (*service.Client)(nil)

func main() {
	cfg := config.Default()
	var (
		seeds string
		mount int
	)

	flag.StringVar(&cfg.Mode, "mode", cfg.Mode, "run mode: shell or serve")
	flag.StringVar(&cfg.ListenAddr, "listen", cfg.ListenAddr, "gRPC listen address (serve mode)")
	flag.StringVar(&cfg.RemoteAddr, "remote", "", "drive the ring service at this address instead of a local ring (shell mode)")
	flag.Uint64Var(&cfg.SpaceSize, "space", cfg.SpaceSize, "identifier space size")
	flag.StringVar(&cfg.BaseIP, "base-ip", cfg.BaseIP, "IP used for generated node addresses")
	flag.IntVar(&cfg.BasePort, "base-port", cfg.BasePort, "first port used for generated node addresses")
	flag.StringVar(&seeds, "seeds", "", "comma-separated ip:port addresses to join at startup")
	flag.IntVar(&mount, "mount", 0, "number of generated nodes to join at startup")
	flag.Parse()

	var err error
	if cfg.Seeds, err = config.ParseSeeds(seeds); err != nil {
		log.Fatalf("Invalid --seeds: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Mode == config.ModeShell && cfg.RemoteAddr != "" {
		if err := runRemoteShell(ctx, cfg.RemoteAddr); err != nil {
			log.Fatal(err)
		}
		return
	}

	c, err := buildCluster(cfg, mount)
	if err != nil {
		log.Fatal(err)
	}

	switch cfg.Mode {
	case config.ModeServe:
		err = serve(ctx, cfg, c)
	default:
		err = shell.New(shell.Local(c), os.Stdout).Run(ctx, os.Stdin)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func buildCluster(cfg config.Config, mount int) (*cluster.Cluster, error) {
	space, err := cfg.Space()
	if err != nil {
		return nil, err
	}
	c := cluster.New(ring.New(space), cfg.BaseIP, cfg.BasePort)

	for _, addr := range cfg.Seeds {
		node, err := c.Join(addr)
		if err != nil {
			return nil, fmt.Errorf("failed to join seed %s: %w", addr, err)
		}
		log.Printf("[chordsim] Joined seed %s as %s", addr, node.ID)
	}
	if mount > 0 {
		nodes, err := c.Mount(mount)
		if err != nil {
			return nil, fmt.Errorf("failed to mount %d nodes: %w", mount, err)
		}
		log.Printf("[chordsim] Mounted %d nodes", len(nodes))
	}
	return c, nil
}

func serve(ctx context.Context, cfg config.Config, c *cluster.Cluster) error {
	svc := service.New("chordsim", cfg.ListenAddr, c)

	errCh := make(chan error, 1)
	go func() {
		errCh <- svc.Start()
	}()

	select {
	case <-ctx.Done():
		svc.Stop()
		return <-errCh
	case err := <-errCh:
		return err
	}
}

func runRemoteShell(ctx context.Context, addr string) error {
	client, err := service.Dial(addr)
	if err != nil {
		return err
	}
	defer client.Close()

	info, err := client.Info(ctx)
	if err != nil {
		return fmt.Errorf("failed to reach %s: %w", addr, err)
	}
	fmt.Printf("connected to %s (%s, space %d, %d members)\n", addr, info.Hash, info.SpaceSize, info.MemberCount)

	return shell.New(client, os.Stdout).Run(ctx, os.Stdin)
}
