package acquire

import (
	"context"
	"testing"
	"time"

	"github.com/go-rod/rod"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBrowserStrategy_BreakerOpensAfterConnectFailures(t *testing.T) {
	s := NewBrowserStrategy(time.Second)
	s.connect = func() (*rod.Browser, error) {
		return nil, eris.New("browser: connect refused")
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		require.True(t, s.Supports("https://acme.example"))
		_, err := s.Fetch(ctx, "https://acme.example")
		require.Error(t, err)
	}

	// Three consecutive failures open the circuit; the chain skips the
	// browser until the reset timeout elapses.
	assert.False(t, s.Supports("https://acme.example"))
}

func TestBrowserStrategy_CloseWithoutConnect(t *testing.T) {
	s := NewBrowserStrategy(0)
	assert.NoError(t, s.Close())
}
