package it

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chordsim/internal/idspace"
	"chordsim/internal/ring"
)

const binaryPath = "./chordsim"

func startOrSkip(t *testing.T, ctx context.Context, port int, flags ...string) *Server {
	t.Helper()
	if _, err := os.Stat(binaryPath); os.IsNotExist(err) {
		t.Skip("Binary not found, skipping integration test. Build with: go build -o chordsim ./cmd/chordsim")
	}

	srv, err := StartServer(ctx, binaryPath, port, flags...)
	require.NoError(t, err)
	t.Cleanup(srv.Stop)
	return srv
}

func TestSmoke_InsertSearchDeactivate(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	srv := startOrSkip(t, ctx, 50061, "--mount", "3")
	client := srv.Client()

	nodes, err := client.Nodes(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	owner, err := client.Insert(ctx, "alpha")
	require.NoError(t, err)

	res, err := client.Search(ctx, "alpha")
	require.NoError(t, err)
	assert.True(t, res.Found)

	members, err := client.Members(ctx)
	require.NoError(t, err)
	for _, m := range members {
		if m.ID == owner.ID {
			_, err := client.Deactivate(ctx, m.Slot)
			require.NoError(t, err)
		}
	}

	res, err = client.Search(ctx, "alpha")
	require.NoError(t, err)
	assert.False(t, res.Found)
}

func TestSmoke_EmptyRingAndSpaceSize(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	srv := startOrSkip(t, ctx, 50062, "--space", "1000")
	client := srv.Client()

	info, err := client.Info(ctx)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), info.SpaceSize)
	assert.Equal(t, idspace.HashName, info.Hash)

	_, err = client.Insert(ctx, "x")
	assert.ErrorIs(t, err, ring.ErrEmptyRing)
}
