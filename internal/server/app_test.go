package server

import (
	"context"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/dmitrijs2005/barangayconnect/internal/logging"
	"github.com/dmitrijs2005/barangayconnect/internal/server/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func freeAddr(t *testing.T) string {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())
	return addr
}

func TestNewApp_UnknownPhotoStorage(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.PhotoStorage = "ftp"

	_, err := newApp(context.Background(), c, logging.NewNop())

	require.Error(t, err)
	assert.Contains(t, err.Error(), `unknown photo storage "ftp"`)
}

func TestApp_ServesUntilCancelled(t *testing.T) {
	c := &config.Config{}
	c.LoadDefaults()
	c.EndpointAddr = freeAddr(t)

	app, err := newApp(context.Background(), c, logging.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		app.Run(ctx)
		close(done)
	}()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + c.EndpointAddr + "/ping")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()

	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("app did not stop after cancel")
	}
}
