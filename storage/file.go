package storage

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

const seedFileName = "factory.seed"

// FileSeedBackend stores the sealed seed on the local filesystem. Outside
// real secure-storage hardware this is the development and test backend.
type FileSeedBackend struct {
	baseDir     string
	log         *slog.Logger
	locationURI string
}

// NewFileSeedBackend creates a file backend rooted at baseDir. The
// directory is created if missing, with owner-only permissions.
func NewFileSeedBackend(baseDir string, log *slog.Logger) (*FileSeedBackend, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create seed directory: %w", err)
	}

	return &FileSeedBackend{
		baseDir:     baseDir,
		log:         log,
		locationURI: fmt.Sprintf("file://%s", baseDir),
	}, nil
}

// FetchSeed reads the sealed seed blob. Returns ErrSeedNotFound if no seed
// has been provisioned yet.
func (b *FileSeedBackend) FetchSeed(ctx context.Context) ([]byte, error) {
	path := filepath.Join(b.baseDir, seedFileName)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, interfaces.ErrSeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	b.log.Debug("Fetched sealed seed from file",
		slog.String("path", path),
		slog.Int("size", len(data)))

	return data, nil
}

// StoreSeed writes the sealed seed blob with owner-only permissions.
func (b *FileSeedBackend) StoreSeed(ctx context.Context, sealed []byte) error {
	path := filepath.Join(b.baseDir, seedFileName)

	if err := os.WriteFile(path, sealed, 0600); err != nil {
		return fmt.Errorf("failed to write seed file: %w", err)
	}

	b.log.Debug("Stored sealed seed in file", slog.String("path", path))
	return nil
}

// Available checks that the seed directory exists.
func (b *FileSeedBackend) Available(ctx context.Context) bool {
	_, err := os.Stat(b.baseDir)
	if err != nil {
		b.log.Debug("File seed backend unavailable", "err", err)
		return false
	}
	return true
}

// LocationURI returns the URI that identifies this backend.
func (b *FileSeedBackend) LocationURI() string {
	return b.locationURI
}
