package storage

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/hashicorp/vault/api"

	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// VaultSeedBackend stores the sealed seed in HashiCorp Vault's KV v2 store.
type VaultSeedBackend struct {
	client      *api.Client
	mountPath   string
	dataPath    string
	log         *slog.Logger
	locationURI string
}

// NewVaultSeedBackend creates a Vault backend.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token; empty uses the environment's token
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "airaccount")
func NewVaultSeedBackend(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultSeedBackend, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	if token != "" {
		client.SetToken(token)
	}

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultSeedBackend{
		client:      client,
		mountPath:   mountPath,
		dataPath:    dataPath,
		log:         log,
		locationURI: fmt.Sprintf("vault://%s/%s/%s", address, mountPath, dataPath),
	}, nil
}

// FetchSeed reads the sealed seed from Vault.
func (b *VaultSeedBackend) FetchSeed(ctx context.Context) ([]byte, error) {
	start := time.Now()
	path := b.seedPath()

	secret, err := b.client.Logical().ReadWithContext(ctx, path)
	if err != nil {
		b.log.Error("Failed to read from Vault",
			slog.String("path", path), "err", err)
		return nil, fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, interfaces.ErrSeedNotFound
	}

	// KV v2 wraps the payload in a "data" map
	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("invalid data format in Vault response")
	}
	encoded, ok := data["seed"].(string)
	if !ok {
		return nil, interfaces.ErrSeedNotFound
	}

	sealed, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable seed payload", interfaces.ErrSeedCorrupted)
	}

	b.log.Info("Fetched sealed seed from Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))

	return sealed, nil
}

// StoreSeed writes the sealed seed to Vault.
func (b *VaultSeedBackend) StoreSeed(ctx context.Context, sealed []byte) error {
	start := time.Now()
	path := b.seedPath()

	payload := map[string]interface{}{
		"data": map[string]interface{}{
			"seed": base64.StdEncoding.EncodeToString(sealed),
		},
	}

	if _, err := b.client.Logical().WriteWithContext(ctx, path, payload); err != nil {
		b.log.Error("Failed to write to Vault",
			slog.String("path", path), "err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrBackendUnavailable, err)
	}

	b.log.Info("Stored sealed seed in Vault",
		slog.String("path", path),
		slog.Duration("duration", time.Since(start)))
	return nil
}

// Available checks that Vault is reachable, initialized and unsealed.
func (b *VaultSeedBackend) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := b.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		b.log.Debug("Vault health check failed", "err", err)
		return false
	}
	if !health.Initialized || health.Sealed {
		b.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}
	return true
}

// LocationURI returns the URI that identifies this backend.
func (b *VaultSeedBackend) LocationURI() string {
	return b.locationURI
}

func (b *VaultSeedBackend) seedPath() string {
	return fmt.Sprintf("%s/data/%s/factory-seed", b.mountPath, b.dataPath)
}
