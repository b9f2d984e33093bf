package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"

	shell "github.com/ipfs/go-ipfs-api"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// IPFSSeedBackend stores the sealed seed on an IPFS node. IPFS is content
// addressed, so fetching needs the CID of a previously stored seed; the CID
// is carried in the location URI and a StoreSeed call logs the new CID for
// the operator to pin and record.
type IPFSSeedBackend struct {
	shell       *shell.Shell
	host        string
	port        string
	cid         string
	log         *slog.Logger
	locationURI string
}

// NewIPFSSeedBackend creates an IPFS backend against the node's API port.
// cid may be empty for a store-only backend.
func NewIPFSSeedBackend(host, port, cid string, log *slog.Logger) (*IPFSSeedBackend, error) {
	apiURL := fmt.Sprintf("%s:%s", host, port)

	uri := fmt.Sprintf("ipfs://%s/", apiURL)
	if cid != "" {
		uri = fmt.Sprintf("ipfs://%s/?cid=%s", apiURL, cid)
	}

	return &IPFSSeedBackend{
		shell:       shell.NewShell(apiURL),
		host:        host,
		port:        port,
		cid:         cid,
		log:         log,
		locationURI: uri,
	}, nil
}

// FetchSeed retrieves the sealed seed by the configured CID.
func (b *IPFSSeedBackend) FetchSeed(ctx context.Context) ([]byte, error) {
	if b.cid == "" {
		return nil, interfaces.ErrSeedNotFound
	}
	if !b.shell.IsUp() {
		b.log.Warn("IPFS node unavailable",
			slog.String("host", b.host),
			slog.String("port", b.port))
		return nil, interfaces.ErrBackendUnavailable
	}

	reader, err := b.shell.Cat(fmt.Sprintf("/ipfs/%s", b.cid))
	if err != nil {
		b.log.Error("Failed to fetch seed from IPFS",
			slog.String("cid", b.cid), "err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	defer reader.Close()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed from IPFS: %w", err)
	}

	b.log.Debug("Fetched sealed seed from IPFS",
		slog.String("cid", b.cid),
		slog.Int("size", len(data)))

	return data, nil
}

// StoreSeed adds the sealed seed to the node and remembers the CID. The
// operator must pin the CID and carry it in the next location URI.
func (b *IPFSSeedBackend) StoreSeed(ctx context.Context, sealed []byte) error {
	if !b.shell.IsUp() {
		return interfaces.ErrBackendUnavailable
	}

	cid, err := b.shell.Add(bytes.NewReader(sealed))
	if err != nil {
		return fmt.Errorf("failed to add seed to IPFS: %w", err)
	}

	b.cid = cid
	b.locationURI = fmt.Sprintf("ipfs://%s:%s/?cid=%s", b.host, b.port, cid)
	b.log.Info("Stored sealed seed in IPFS", slog.String("cid", cid))
	return nil
}

// Available checks if the IPFS node is accessible.
func (b *IPFSSeedBackend) Available(ctx context.Context) bool {
	return b.shell.IsUp()
}

// LocationURI returns the URI that identifies this backend, including the
// CID of the stored seed when known.
func (b *IPFSSeedBackend) LocationURI() string {
	return b.locationURI
}
