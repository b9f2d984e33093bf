package kms

import (
	"errors"
	"fmt"

	"github.com/hashicorp/vault/shamir"
)

// SplitFactorySeed splits a factory seed into shares using Shamir's Secret
// Sharing. The seed itself is never written anywhere; the shares are handed
// to operators and the caller should scrub its copy after this returns.
// Reconstructing the seed requires at least threshold shares.
func SplitFactorySeed(seed []byte, totalShares, threshold int) ([][]byte, error) {
	if len(seed) < MinFactorySeedLen {
		return nil, fmt.Errorf("factory seed must be at least %d bytes", MinFactorySeedLen)
	}
	if threshold < 2 {
		return nil, errors.New("threshold must be at least 2")
	}
	if totalShares < threshold {
		return nil, errors.New("total shares must be at least equal to threshold")
	}

	shares, err := shamir.Split(seed, totalShares, threshold)
	if err != nil {
		return nil, fmt.Errorf("failed to split factory seed: %w", err)
	}
	return shares, nil
}

// RecoverFactorySeed combines operator shares back into the factory seed.
// The shares are zeroized after a successful combine.
func RecoverFactorySeed(shares [][]byte) ([]byte, error) {
	if len(shares) < 2 {
		return nil, errors.New("at least 2 shares are required")
	}

	seed, err := shamir.Combine(shares)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct factory seed: %w", err)
	}
	if len(seed) < MinFactorySeedLen {
		wipeBytes(seed)
		return nil, errors.New("reconstructed seed is too short")
	}

	for _, share := range shares {
		wipeBytes(share)
	}
	return seed, nil
}

func wipeBytes(data []byte) {
	for i := range data {
		data[i] = 0
	}
}
