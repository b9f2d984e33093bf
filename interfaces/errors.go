package interfaces

import "errors"

// Validation errors. Each variant is distinct so the caller (and the audit
// trail) can tell which contract rule an inbound request broke.
var (
	// ErrUnknownCommand reports a command id outside the protocol table.
	ErrUnknownCommand = errors.New("unknown command id")

	// ErrCommandDisabled reports a known command the active security
	// policy refuses to serve.
	ErrCommandDisabled = errors.New("command disabled by policy")

	// ErrParameterShape reports a parameter slot whose type does not match
	// the command's fixed shape.
	ErrParameterShape = errors.New("parameter shape mismatch")

	// ErrBufferTooLarge reports a memref buffer above the command's bound.
	ErrBufferTooLarge = errors.New("buffer exceeds maximum size")

	// ErrBufferTooSmall reports a memref buffer below the command's
	// minimum length.
	ErrBufferTooSmall = errors.New("buffer below minimum size")

	// ErrWalletNotFound reports a handle that does not refer to a live
	// wallet, either because it never existed or because the wallet was
	// removed.
	ErrWalletNotFound = errors.New("wallet handle does not refer to a live wallet")

	// ErrInvalidEntropyLength reports caller entropy outside the
	// [MinUserEntropy, MaxUserEntropy] range.
	ErrInvalidEntropyLength = errors.New("entropy length out of range")
)

// Resource errors.
var (
	// ErrWalletPoolExhausted reports that the fixed wallet arena is full.
	ErrWalletPoolExhausted = errors.New("wallet pool exhausted")

	// ErrAllocationFailed reports a secure memory allocation failure.
	ErrAllocationFailed = errors.New("secure allocation failed")
)

// Security errors. These are never downgraded and never fail open.
var (
	// ErrEntropyUnavailable reports that the hardware entropy source
	// failed or produced unusable output.
	ErrEntropyUnavailable = errors.New("secure entropy source unavailable")

	// ErrDerivationFailed reports that key derivation produced material
	// unusable on the curve.
	ErrDerivationFailed = errors.New("key derivation failed")

	// ErrSigningFailed reports a signing failure.
	ErrSigningFailed = errors.New("signing failed")

	// ErrSeedCorrupted reports that the sealed factory seed failed its
	// integrity check.
	ErrSeedCorrupted = errors.New("sealed factory seed failed integrity check")

	// ErrNotInitialized reports use of the derivation engine before the
	// factory seed was loaded.
	ErrNotInitialized = errors.New("derivation engine not initialized")
)

// Storage errors for the sealed-seed backends.
var (
	// ErrSeedNotFound reports that a backend holds no sealed seed.
	ErrSeedNotFound = errors.New("sealed seed not found")

	// ErrInvalidLocationURI reports an unparseable backend location.
	ErrInvalidLocationURI = errors.New("invalid storage location URI")

	// ErrBackendUnavailable reports that a seed backend cannot be reached.
	ErrBackendUnavailable = errors.New("seed storage backend unavailable")
)

// validationErrs enumerates every validation variant for kind resolution.
var validationErrs = []error{
	ErrUnknownCommand,
	ErrCommandDisabled,
	ErrParameterShape,
	ErrBufferTooLarge,
	ErrBufferTooSmall,
	ErrWalletNotFound,
	ErrInvalidEntropyLength,
}

var resourceErrs = []error{
	ErrWalletPoolExhausted,
	ErrAllocationFailed,
}

var securityErrs = []error{
	ErrEntropyUnavailable,
	ErrDerivationFailed,
	ErrSigningFailed,
	ErrSeedCorrupted,
	ErrNotInitialized,
}

// StatusOf resolves an error to the status code that crosses the boundary.
// Every error is mapped locally to exactly one of the four kinds; anything
// the taxonomy does not anticipate fails closed as an internal error.
func StatusOf(err error) Status {
	if err == nil {
		return StatusSuccess
	}
	for _, v := range validationErrs {
		if errors.Is(err, v) {
			return StatusValidationError
		}
	}
	for _, r := range resourceErrs {
		if errors.Is(err, r) {
			return StatusResourceError
		}
	}
	for _, s := range securityErrs {
		if errors.Is(err, s) {
			return StatusSecurityError
		}
	}
	return StatusInternalError
}

// SafeMessage returns the caller-visible message for an error. Validation,
// resource and security errors carry their sentinel text; everything else is
// reduced to a generic message so internal state never leaks.
func SafeMessage(err error) string {
	if err == nil {
		return ""
	}
	switch StatusOf(err) {
	case StatusInternalError:
		return "internal error"
	default:
		for _, known := range [][]error{validationErrs, resourceErrs, securityErrs} {
			for _, k := range known {
				if errors.Is(err, k) {
					return k.Error()
				}
			}
		}
		return "internal error"
	}
}
