package config_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VGLoic/mpc-exploration/internal/config"
)

func TestParseValid(t *testing.T) {
	t.Setenv("PORT", "4000")
	t.Setenv("SERVER_PEER_ID", "1")
	t.Setenv("PEER_URLS", "http://node-2:3000, http://node-3:3000")
	t.Setenv("PEER_IDS", "2, 3")

	cfg, err := config.Parse()
	require.NoError(t, err)
	assert.EqualValues(t, 4000, cfg.Port)
	assert.EqualValues(t, 1, cfg.ServerPeerID)
	require.Len(t, cfg.Peers, 2)
	assert.Equal(t, uint8(2), cfg.Peers[0].ID)
	assert.Equal(t, "http://node-2:3000", cfg.Peers[0].URL)
}

func TestParseDefaultsPort(t *testing.T) {
	t.Setenv("SERVER_PEER_ID", "0")
	t.Setenv("PEER_URLS", "http://node-2:3000")
	t.Setenv("PEER_IDS", "2")

	cfg, err := config.Parse()
	require.NoError(t, err)
	assert.EqualValues(t, 3000, cfg.Port)
}

func TestParseRejectsMismatchedPeerCounts(t *testing.T) {
	t.Setenv("SERVER_PEER_ID", "0")
	t.Setenv("PEER_URLS", "http://node-2:3000,http://node-3:3000")
	t.Setenv("PEER_IDS", "2")

	_, err := config.Parse()
	require.Error(t, err)
}

func TestParseRejectsDuplicatePeerIDs(t *testing.T) {
	t.Setenv("SERVER_PEER_ID", "0")
	t.Setenv("PEER_URLS", "http://node-2:3000,http://node-3:3000")
	t.Setenv("PEER_IDS", "2,2")

	_, err := config.Parse()
	require.Error(t, err)
}

func TestParseRequiresServerPeerID(t *testing.T) {
	t.Setenv("PEER_URLS", "http://node-2:3000")
	t.Setenv("PEER_IDS", "2")

	_, err := config.Parse()
	require.Error(t, err)
}
