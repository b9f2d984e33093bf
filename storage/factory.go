package storage

import (
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"strings"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// SeedBackendFactory creates seed backends from location URIs.
type SeedBackendFactory struct {
	log *slog.Logger
}

// NewSeedBackendFactory creates a factory.
func NewSeedBackendFactory(logger *slog.Logger) *SeedBackendFactory {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SeedBackendFactory{log: logger}
}

// SeedBackendFor creates a seed backend from a location URI.
// The URI format is [scheme]://[auth@]host[:port][/path][?params]
//
// Supported schemes:
//   - file:// - local filesystem
//   - vault:// - HashiCorp Vault KV v2
//   - s3:// - Amazon S3 or compatible object storage
//   - ipfs:// - IPFS node
//
// Returns ErrInvalidLocationURI for unparseable or unsupported locations.
func (sf *SeedBackendFactory) SeedBackendFor(location interfaces.SeedBackendLocation) (interfaces.SeedBackend, error) {
	u, err := url.Parse(string(location))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrInvalidLocationURI, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "file":
		return sf.createFileBackend(u)
	case "vault":
		return sf.createVaultBackend(u)
	case "s3":
		return sf.createS3Backend(u)
	case "ipfs":
		return sf.createIPFSBackend(u)
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", interfaces.ErrInvalidLocationURI, u.Scheme)
	}
}

// createFileBackend handles file:///absolute/path and file://./relative.
func (sf *SeedBackendFactory) createFileBackend(u *url.URL) (interfaces.SeedBackend, error) {
	sf.log.Debug("Creating file seed backend", slog.String("uri", u.String()))

	path := u.Path
	if u.Host != "" {
		path = u.Host + "/" + strings.TrimPrefix(path, "/")
	}
	if path == "" {
		return nil, fmt.Errorf("%w: empty path in file URI", interfaces.ErrInvalidLocationURI)
	}

	return NewFileSeedBackend(path, sf.log)
}

// createVaultBackend handles vault://host:port/mount/path?token=...&scheme=https.
func (sf *SeedBackendFactory) createVaultBackend(u *url.URL) (interfaces.SeedBackend, error) {
	sf.log.Debug("Creating Vault seed backend", slog.String("uri", u.Redacted()))

	query := u.Query()
	scheme := query.Get("scheme")
	if scheme == "" {
		scheme = "https"
	}
	address := fmt.Sprintf("%s://%s", scheme, u.Host)

	parts := strings.SplitN(strings.Trim(u.Path, "/"), "/", 2)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return nil, fmt.Errorf("%w: vault URI needs /mount/path", interfaces.ErrInvalidLocationURI)
	}

	return NewVaultSeedBackend(address, query.Get("token"), parts[0], parts[1], sf.log)
}

// createS3Backend handles s3://[ACCESS:SECRET@]bucket/path?region=...&endpoint=...
func (sf *SeedBackendFactory) createS3Backend(u *url.URL) (interfaces.SeedBackend, error) {
	sf.log.Debug("Creating S3 seed backend", slog.String("uri", u.Redacted()))

	bucketName := u.Host
	if bucketName == "" {
		return nil, fmt.Errorf("%w: s3 URI needs a bucket", interfaces.ErrInvalidLocationURI)
	}
	prefix := strings.TrimPrefix(u.Path, "/")

	query := u.Query()
	region := query.Get("region")
	if region == "" {
		region = "us-east-1"
	}
	endpoint := query.Get("endpoint")

	var accessKey, secretKey string
	if u.User != nil {
		accessKey = u.User.Username()
		secretKey, _ = u.User.Password()
	} else {
		sf.log.Debug("No S3 credentials in URI, using the environment credential chain")
	}

	return NewS3SeedBackend(bucketName, prefix, region, endpoint, accessKey, secretKey, sf.log)
}

// createIPFSBackend handles ipfs://host:port/?cid=Qm...
func (sf *SeedBackendFactory) createIPFSBackend(u *url.URL) (interfaces.SeedBackend, error) {
	sf.log.Debug("Creating IPFS seed backend", slog.String("uri", u.String()))

	host := u.Hostname()
	port := u.Port()
	if port == "" {
		port = "5001"
	}

	return NewIPFSSeedBackend(host, port, u.Query().Get("cid"), sf.log)
}
