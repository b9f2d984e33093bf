package kms

import (
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
)

// AttestationProvider produces platform attestation evidence binding the
// given report data to the running environment.
type AttestationProvider interface {
	Attest(reportData [64]byte) ([]byte, error)
}

// DummyAttestationProvider returns the report data as-is. Used outside real
// TEE hardware and in tests.
type DummyAttestationProvider struct{}

func (DummyAttestationProvider) Attest(reportData [64]byte) ([]byte, error) {
	return reportData[:], nil
}

// RemoteAttestationProvider fetches quotes from a local quote provider
// service, as exposed on platforms where quote generation goes through a
// host agent.
type RemoteAttestationProvider struct {
	Address string
}

func (p *RemoteAttestationProvider) Attest(reportData [64]byte) ([]byte, error) {
	reportDataHex := hex.EncodeToString(reportData[:])

	url := fmt.Sprintf("%s/attest/%s", p.Address, reportDataHex)
	resp, err := http.DefaultClient.Get(url)
	if err != nil {
		return nil, fmt.Errorf("calling remote quote provider: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("remote quote provider returned status %d: %s", resp.StatusCode, string(body))
	}

	rawQuote, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading quote from response: %w", err)
	}
	return rawQuote, nil
}
