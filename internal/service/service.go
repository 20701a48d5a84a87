package service

import (
	"fmt"
	"log"
	"net"
	"sync"

	"google.golang.org/grpc"

	"chordsim/internal/api"
	"chordsim/internal/cluster"
)

// Service owns the gRPC server for one cluster.
type Service struct {
	name       string
	listenAddr string
	cluster    *cluster.Cluster

	mu         sync.Mutex
	grpcServer *grpc.Server
	stopped    bool
}

// New creates a service for c that will listen on listenAddr.
func New(name, listenAddr string, c *cluster.Cluster) *Service {
	return &Service{
		name:       name,
		listenAddr: listenAddr,
		cluster:    c,
	}
}

// Start listens on the configured address and serves until Stop is called.
func (s *Service) Start() error {
	lis, err := net.Listen("tcp", s.listenAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.listenAddr, err)
	}
	return s.Serve(lis)
}

// Serve serves on lis until Stop is called.
func (s *Service) Serve(lis net.Listener) error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return lis.Close()
	}
	s.grpcServer = grpc.NewServer()
	api.RegisterRingServer(s.grpcServer, NewServer(s.name, s.cluster))
	srv := s.grpcServer
	s.mu.Unlock()

	log.Printf("[%s] Starting ring service on %s", s.name, lis.Addr())

	if err := srv.Serve(lis); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}

	return nil
}

// Stop gracefully stops the service.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopped = true
	if s.grpcServer != nil {
		log.Printf("[%s] Stopping ring service", s.name)
		s.grpcServer.GracefulStop()
	}
}
