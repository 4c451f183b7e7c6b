package tlsutil

import (
	"crypto/tls"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig(t *testing.T) {
	cfg := Config()
	assert.Equal(t, uint16(tls.VersionTLS12), cfg.MinVersion)
	require.NotEmpty(t, cfg.CipherSuites)

	insecure := map[uint16]bool{}
	for _, s := range tls.InsecureCipherSuites() {
		insecure[s.ID] = true
	}
	for _, id := range cfg.CipherSuites {
		assert.False(t, insecure[id], "insecure suite %s", tls.CipherSuiteName(id))
	}
}

func TestConfig_ReturnsIndependentCopies(t *testing.T) {
	a := Config()
	a.CipherSuites[0] = 0
	b := Config()
	assert.NotEqual(t, uint16(0), b.CipherSuites[0])
}

func TestHTTPClient(t *testing.T) {
	c := HTTPClient(7 * time.Second)
	assert.Equal(t, 7*time.Second, c.Timeout)

	tr := Transport()
	require.NotNil(t, tr.TLSClientConfig)
	assert.Equal(t, uint16(tls.VersionTLS12), tr.TLSClientConfig.MinVersion)
	assert.True(t, tr.ForceAttemptHTTP2)
}
