// Package cryptoutils provides the security primitives the trusted
// application is built on: constant-time comparison and selection, secure
// scratch buffers with guaranteed zeroization, and a hardware entropy
// wrapper that fails closed.
//
// # Constant-Time Operations
//
// ConstantTimeEq and ConstantTimeSelect wrap crypto/subtle so that execution
// time does not depend on buffer contents. Length is the only early-out, and
// buffer lengths are not secret in this protocol.
//
// # Secure Buffers
//
// SecureBuffer holds key material and scratch data that must not outlive its
// use. Destroy overwrites the backing memory before releasing it, and every
// code path that allocates a buffer is responsible for destroying it on all
// exits, including error paths:
//
//	buf, err := cryptoutils.NewSecureBuffer(32)
//	if err != nil { ... }
//	defer buf.Destroy()
//
// # Entropy
//
// RNG wraps an EntropySource (the platform CSPRNG by default) and refuses to
// degrade: a short read, a source error, or an all-zero block surfaces as
// ErrEntropyUnavailable rather than falling back to anything weaker.
package cryptoutils
