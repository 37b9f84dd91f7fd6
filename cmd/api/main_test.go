package main

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gitagpt/gitagpt/internal/config"
	chatstore "github.com/gitagpt/gitagpt/internal/service/chat"
)

func TestRunServerStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	srv := &http.Server{Addr: "127.0.0.1:0", Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- runServer(ctx, srv) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}

func TestOpenStore(t *testing.T) {
	store, err := openStore(config.StoreConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, &chatstore.MemoryStore{}, store)

	store, err = openStore(config.StoreConfig{DatabasePath: filepath.Join(t.TempDir(), "gita.db")}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()
	assert.NoError(t, store.Ping(context.Background()))
}

func TestBuildGeneratorsWithoutCredentials(t *testing.T) {
	generators, chatModel := buildGenerators(context.Background(), config.AIConfig{}, zap.NewNop())
	assert.Empty(t, generators)
	assert.Nil(t, chatModel)
}
