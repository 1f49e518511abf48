// Package localtls fetches the wildcard certificate published by local-ip.sh
// so the addon can be installed over HTTPS from another device on the LAN.
package localtls

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"

	"github.com/amaumene/streamhub/pkg/httputil"
	"github.com/amaumene/streamhub/pkg/logger"
)

const (
	defaultBaseURL = "https://local-ip.sh"
	certFile       = "server.pem"
	keyFile        = "server.key"
	maxAge         = 30 * 24 * time.Hour
	probeAddr      = "8.8.8.8:80"
)

// Options configures a Certificate. Zero values select the defaults.
type Options struct {
	CacheDir string
	BaseURL  string
	Client   *http.Client
	Logger   logger.Logger
	// LocalIP overrides address detection.
	LocalIP  string
}

// Certificate is a cached local-ip.sh key pair.
type Certificate struct {
	cacheDir string
	baseURL  string
	client   *http.Client
	logger   logger.Logger
	localIP  string
	hostname string
}

// New creates a Certificate. Nothing is downloaded until Setup.
func New(opts Options) *Certificate {
	if opts.CacheDir == "" {
		opts.CacheDir = filepath.Join(os.TempDir(), "streamhub-tls")
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultBaseURL
	}
	if opts.Client == nil {
		opts.Client = httputil.NewHTTPClient(30 * time.Second)
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Certificate{
		cacheDir: opts.CacheDir,
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		client:   opts.Client,
		logger:   opts.Logger,
		localIP:  opts.LocalIP,
	}
}

// Setup resolves the LAN hostname and makes sure a fresh key pair is on disk.
func (c *Certificate) Setup(ctx context.Context) error {
	ip := c.localIP
	if ip == "" {
		detected, err := detectLocalIP()
		if err != nil {
			return fmt.Errorf("failed to detect local IP: %w", err)
		}
		ip = detected
	}
	c.hostname = Hostname(ip)
	c.logger.Infof("[TLS] using hostname %s", c.hostname)

	if c.fresh() {
		c.logger.Debugf("[TLS] reusing cached certificate in %s", c.cacheDir)
		return nil
	}

	if err := os.MkdirAll(c.cacheDir, 0o755); err != nil {
		return fmt.Errorf("failed to create certificate directory: %w", err)
	}
	for _, name := range []string{certFile, keyFile} {
		if err := c.download(ctx, name); err != nil {
			return fmt.Errorf("failed to download %s: %w", name, err)
		}
	}
	if err := os.Chmod(c.path(keyFile), 0o600); err != nil {
		return fmt.Errorf("failed to restrict key permissions: %w", err)
	}

	c.logger.Infof("[TLS] certificate downloaded")
	return nil
}

// Hostname maps an IPv4 address to its local-ip.sh name.
func Hostname(ip string) string {
	return strings.ReplaceAll(ip, ".", "-") + ".local-ip.sh"
}

// Hostname returns the name resolved by Setup.
func (c *Certificate) Hostname() string {
	return c.hostname
}

// TLSConfig loads the cached key pair.
func (c *Certificate) TLSConfig() (*tls.Config, error) {
	pair, err := tls.LoadX509KeyPair(c.path(certFile), c.path(keyFile))
	if err != nil {
		return nil, fmt.Errorf("failed to load certificate: %w", err)
	}
	return &tls.Config{
		Certificates: []tls.Certificate{pair},
		MinVersion:   tls.VersionTLS12,
	}, nil
}

func (c *Certificate) path(name string) string {
	return filepath.Join(c.cacheDir, name)
}

// fresh reports whether both files exist and the certificate is younger
// than maxAge.
func (c *Certificate) fresh() bool {
	info, err := os.Stat(c.path(certFile))
	if err != nil {
		return false
	}
	if _, err := os.Stat(c.path(keyFile)); err != nil {
		return false
	}
	return time.Since(info.ModTime()) < maxAge
}

func (c *Certificate) download(ctx context.Context, name string) error {
	return retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+name, nil)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			resp, err := c.client.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return &httputil.StatusError{URL: req.URL.String(), StatusCode: resp.StatusCode}
			}

			tmp := c.path(name + ".tmp")
			out, err := os.Create(tmp)
			if err != nil {
				return retry.Unrecoverable(err)
			}
			if _, err := io.Copy(out, resp.Body); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			return os.Rename(tmp, c.path(name))
		},
		retry.Context(ctx),
		retry.Attempts(3),
		retry.Delay(500*time.Millisecond),
		retry.LastErrorOnly(true),
	)
}

// detectLocalIP returns the address of the interface that routes to the
// internet. No packet is sent.
func detectLocalIP() (string, error) {
	conn, err := net.Dial("udp", probeAddr)
	if err != nil {
		return "", err
	}
	defer conn.Close()

	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
