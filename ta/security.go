package ta

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/cryptoutils"
)

// SecurityManager runs the in-place checks over the security primitives the
// rest of the application depends on. It produces the pass/fail report
// behind the security-test command and the state summary behind the
// security-state command.
type SecurityManager struct {
	rng      *cryptoutils.RNG
	auditLog *audit.Log
	log      *slog.Logger
}

// NewSecurityManager creates a manager over the given entropy source.
func NewSecurityManager(rng *cryptoutils.RNG, auditLog *audit.Log, logger *slog.Logger) *SecurityManager {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &SecurityManager{rng: rng, auditLog: auditLog, log: logger}
}

// RNG exposes the manager's entropy source.
func (m *SecurityManager) RNG() *cryptoutils.RNG {
	return m.rng
}

// SelfTest exercises secure memory, the entropy source, and the
// constant-time primitives, and returns a line-per-check report. A failed
// check is recorded as a security violation; the overall line is FAIL if
// any check failed.
func (m *SecurityManager) SelfTest() string {
	checks := []struct {
		name string
		run  func() error
	}{
		{"secure_memory", m.checkSecureMemory},
		{"rng", m.checkRNG},
		{"constant_time", m.checkConstantTime},
	}

	var report strings.Builder
	allPassed := true
	for _, c := range checks {
		err := c.run()
		if err != nil {
			allPassed = false
			m.auditLog.Record(audit.Event{
				Kind:      audit.SecurityViolation,
				Component: "security",
				Detail:    fmt.Sprintf("self-test %s: %v", c.name, err),
			})
			m.log.Error("self-test check failed",
				slog.String("check", c.name), slog.Any("error", err))
			fmt.Fprintf(&report, "%s:FAIL\n", c.name)
			continue
		}
		fmt.Fprintf(&report, "%s:PASS\n", c.name)
	}

	overall := "PASS"
	if !allPassed {
		overall = "FAIL"
	}
	fmt.Fprintf(&report, "overall:%s", overall)

	m.auditLog.Record(audit.Event{
		Kind:      audit.SecurityTest,
		Component: "security",
		Detail:    "overall:" + overall,
	})

	return report.String()
}

func (m *SecurityManager) checkSecureMemory() error {
	buf, err := cryptoutils.NewSecureBuffer(64)
	if err != nil {
		return fmt.Errorf("allocation: %w", err)
	}
	backing := buf.Bytes()
	for i := range backing {
		backing[i] = 0xA5
	}
	buf.Destroy()

	for i, b := range backing {
		if b != 0 {
			return fmt.Errorf("byte %d not zeroized after destroy", i)
		}
	}
	if !buf.Destroyed() {
		return fmt.Errorf("buffer not marked destroyed")
	}
	return nil
}

func (m *SecurityManager) checkRNG() error {
	if !m.rng.Healthy() {
		return fmt.Errorf("entropy source probe failed")
	}
	a, err := m.rng.Bytes(32)
	if err != nil {
		return err
	}
	b, err := m.rng.Bytes(32)
	if err != nil {
		return err
	}
	if bytes.Equal(a, b) {
		return fmt.Errorf("entropy source repeated a 32-byte block")
	}
	return nil
}

func (m *SecurityManager) checkConstantTime() error {
	a := []byte("constant-time-probe-block-a")
	b := []byte("constant-time-probe-block-b")
	if !cryptoutils.ConstantTimeEq(a, a) {
		return fmt.Errorf("equal inputs compared unequal")
	}
	if cryptoutils.ConstantTimeEq(a, b) {
		return fmt.Errorf("unequal inputs compared equal")
	}
	if cryptoutils.ConstantTimeEq(a, a[:len(a)-1]) {
		return fmt.Errorf("length mismatch compared equal")
	}
	return nil
}
