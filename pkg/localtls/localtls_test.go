package localtls

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func selfSigned(t *testing.T) (certPEM, keyPEM []byte) {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: "*.local-ip.sh"},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	require.NoError(t, err)
	keyDER, err := x509.MarshalECPrivateKey(key)
	require.NoError(t, err)

	return pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: der}),
		pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: keyDER})
}

func TestHostname(t *testing.T) {
	assert.Equal(t, "192-168-1-20.local-ip.sh", Hostname("192.168.1.20"))
}

func TestSetupDownloadsAndCaches(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		switch r.URL.Path {
		case "/server.pem":
			_, _ = w.Write(certPEM)
		case "/server.key":
			_, _ = w.Write(keyPEM)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	c := New(Options{CacheDir: dir, BaseURL: srv.URL, Client: srv.Client(), LocalIP: "10.0.0.5"})

	require.NoError(t, c.Setup(context.Background()))
	assert.Equal(t, "10-0-0-5.local-ip.sh", c.Hostname())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	info, err := os.Stat(filepath.Join(dir, keyFile))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	cfg, err := c.TLSConfig()
	require.NoError(t, err)
	assert.Len(t, cfg.Certificates, 1)

	// a fresh pair on disk is reused
	require.NoError(t, New(Options{CacheDir: dir, BaseURL: srv.URL, Client: srv.Client(), LocalIP: "10.0.0.5"}).Setup(context.Background()))
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestSetupFailsOnMissingFiles(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	c := New(Options{CacheDir: t.TempDir(), BaseURL: srv.URL, Client: srv.Client(), LocalIP: "10.0.0.5"})
	assert.Error(t, c.Setup(context.Background()))
}

func TestStaleCertificateIsRefreshed(t *testing.T) {
	certPEM, keyPEM := selfSigned(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, certFile), certPEM, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, keyFile), keyPEM, 0o600))
	old := time.Now().Add(-2 * maxAge)
	require.NoError(t, os.Chtimes(filepath.Join(dir, certFile), old, old))

	c := New(Options{CacheDir: dir})
	assert.False(t, c.fresh())
}
