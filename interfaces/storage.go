package interfaces

import "context"

// SeedBackendLocation is a URI describing where the sealed factory seed
// lives, e.g. file:///var/lib/airaccount/seed or vault://host:8200/secret/ta.
type SeedBackendLocation string

// SeedBackend stores and retrieves the sealed factory seed blob. Backends
// hold exactly one sealed blob; the trusted application fetches it once at
// creation and never writes through this interface at runtime.
type SeedBackend interface {
	// FetchSeed retrieves the sealed seed blob. Returns ErrSeedNotFound if
	// the backend holds no seed and ErrBackendUnavailable if the backend
	// cannot be reached.
	FetchSeed(ctx context.Context) ([]byte, error)

	// StoreSeed writes the sealed seed blob. Used only by provisioning
	// tooling, never by the trusted application itself.
	StoreSeed(ctx context.Context, sealed []byte) error

	// LocationURI returns the backend's identifying URI with credentials
	// redacted.
	LocationURI() string

	// Available checks whether the backend is reachable.
	Available(ctx context.Context) bool
}

// SeedBackendFactory creates seed backends from location URIs.
type SeedBackendFactory interface {
	SeedBackendFor(location SeedBackendLocation) (SeedBackend, error)
}
