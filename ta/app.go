package ta

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
	"github.com/AAStarCommunity/AirAccount-sub001/registry"
)

// handlerFunc executes one validated command. The validator has already
// checked the shape, buffer bounds, and handle liveness; handlers only
// implement semantics.
type handlerFunc func(s *Session, cmd *interfaces.Command) (*interfaces.Response, error)

// Attester produces platform attestation evidence for the security-state
// report. The kms engine satisfies this.
type Attester interface {
	Attest(reportData [64]byte) ([]byte, error)
}

// TrustedApp is the command dispatcher. One instance serves all sessions;
// invocations are serialized by a single lock, matching the single-threaded
// execution model of the platform it targets.
type TrustedApp struct {
	mu sync.Mutex

	version   string
	validator *Validator
	wallets   *registry.WalletRegistry
	security  *SecurityManager
	attester  Attester
	auditLog  *audit.Log
	log       *slog.Logger

	sessions map[string]*Session
	routes   map[uint32]handlerFunc
}

// Config carries the dependencies of a TrustedApp.
type Config struct {
	Version  string
	Wallets  *registry.WalletRegistry
	Security *SecurityManager
	Attester Attester
	AuditLog *audit.Log
	Log      *slog.Logger
}

// New wires a TrustedApp over its registry, security manager, and audit
// log. The route table is built once here; an unrouted table entry or an
// untabled route is a programming error and fails construction.
func New(cfg Config) (*TrustedApp, error) {
	if cfg.Wallets == nil || cfg.Security == nil || cfg.AuditLog == nil {
		return nil, fmt.Errorf("wallets, security and audit log are required")
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	app := &TrustedApp{
		version:  cfg.Version,
		attester: cfg.Attester,
		wallets:  cfg.Wallets,
		security: cfg.Security,
		auditLog: cfg.AuditLog,
		log:      cfg.Log,
		sessions: make(map[string]*Session),
	}
	app.validator = NewValidator(interfaces.CommandTable, cfg.Wallets, cfg.AuditLog, cfg.Log)

	app.routes = map[uint32]handlerFunc{
		interfaces.CmdHello:               app.handleHello,
		interfaces.CmdEcho:                app.handleEcho,
		interfaces.CmdGetVersion:          app.handleGetVersion,
		interfaces.CmdCreateWallet:        app.handleCreateWallet,
		interfaces.CmdRemoveWallet:        app.handleRemoveWallet,
		interfaces.CmdDeriveAddress:       app.handleDeriveAddress,
		interfaces.CmdSignTransaction:     app.handleSignTransaction,
		interfaces.CmdGetWalletInfo:       app.handleGetWalletInfo,
		interfaces.CmdListWallets:         app.handleListWallets,
		interfaces.CmdSecurityTest:        app.handleSecurityTest,
		interfaces.CmdCreateHybridAccount: app.handleCreateHybridAccount,
		interfaces.CmdSignWithHybridKey:   app.handleSignWithHybridKey,
		interfaces.CmdVerifySecurityState: app.handleVerifySecurityState,
	}

	for id := range interfaces.CommandTable {
		if _, ok := app.routes[id]; !ok {
			return nil, fmt.Errorf("command %d has no handler", id)
		}
	}
	for id := range app.routes {
		if _, ok := interfaces.CommandTable[id]; !ok {
			return nil, fmt.Errorf("handler for command %d has no table entry", id)
		}
	}

	return app, nil
}

// OpenSession opens a client session and returns it.
func (a *TrustedApp) OpenSession() *Session {
	a.mu.Lock()
	defer a.mu.Unlock()

	s := newSession(a.log)
	a.sessions[s.id] = s

	a.auditLog.Record(audit.Event{
		Kind:      audit.TeeOperation,
		Component: "ta",
		Detail:    "session opened",
	})
	s.log.Info("session opened")
	return s
}

// CloseSession closes the session. Wallets are not tied to sessions; they
// survive until removed or the application is torn down.
func (a *TrustedApp) CloseSession(s *Session) {
	a.mu.Lock()
	defer a.mu.Unlock()

	delete(a.sessions, s.id)

	a.auditLog.Record(audit.Event{
		Kind:      audit.TeeOperation,
		Component: "ta",
		Detail:    "session closed",
	})
	s.log.Info("session closed",
		slog.Uint64("invocations", s.Invocations()),
		slog.Duration("age", s.Age()))
}

// SessionCount returns the number of open sessions.
func (a *TrustedApp) SessionCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// Invoke executes one command on behalf of the session. It never panics
// and never returns a Go error across the boundary: every outcome is a
// Response whose status encodes the error class and whose message carries
// only sanitized text.
func (a *TrustedApp) Invoke(s *Session, cmd *interfaces.Command) (resp *interfaces.Response) {
	if cmd == nil {
		a.auditLog.Record(audit.Event{
			Kind:      audit.SecurityViolation,
			Component: "ta",
			Detail:    "nil command",
		})
		a.log.Warn("nil command rejected")
		return &interfaces.Response{
			Status:  interfaces.StatusValidationError,
			Message: interfaces.ErrParameterShape.Error(),
		}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			a.auditLog.Record(audit.Event{
				Kind:      audit.SecurityViolation,
				Component: "ta",
				Command:   cmd.ID,
				Detail:    "handler panic contained",
			})
			a.log.Error("handler panicked",
				slog.Uint64("command", uint64(cmd.ID)), slog.Any("panic", r))
			resp = &interfaces.Response{
				Status:  interfaces.StatusInternalError,
				Message: "internal error",
			}
		}
	}()

	s.invocations.Inc()

	if err := a.validator.Validate(cmd); err != nil {
		// The validator has already audited the rejection.
		return a.failure(err)
	}

	handler := a.routes[cmd.ID]
	out, err := handler(s, cmd)
	if err != nil {
		a.auditFailure(cmd, err)
		return a.failure(err)
	}
	out.Status = interfaces.StatusSuccess
	return out
}

// failure builds the boundary response for an error: the status from the
// error class, the message from the sentinel chain only.
func (a *TrustedApp) failure(err error) *interfaces.Response {
	return &interfaces.Response{
		Status:  interfaces.StatusOf(err),
		Message: interfaces.SafeMessage(err),
	}
}

// auditFailure records a failed handler outcome so every error crossing the
// boundary leaves a trace. Validation and security failures are violations;
// resource and internal failures go in as operations.
func (a *TrustedApp) auditFailure(cmd *interfaces.Command, err error) {
	kind := audit.TeeOperation
	switch interfaces.StatusOf(err) {
	case interfaces.StatusValidationError, interfaces.StatusSecurityError:
		kind = audit.SecurityViolation
	}
	a.auditLog.Record(audit.Event{
		Kind:      kind,
		Component: "ta",
		Command:   cmd.ID,
		Detail:    err.Error(),
	})
	a.log.Warn("command failed",
		slog.Uint64("command", uint64(cmd.ID)),
		slog.String("error", err.Error()))
}

func (a *TrustedApp) handleHello(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	return &interfaces.Response{}, nil
}

func (a *TrustedApp) handleEcho(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	in := cmd.Params[0].Buffer
	if err := fitsOutput(cmd, 1, len(in)); err != nil {
		return nil, err
	}
	out := make([]byte, len(in))
	copy(out, in)
	return &interfaces.Response{Output: out}, nil
}

func (a *TrustedApp) handleGetVersion(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	v := []byte(a.version)
	if err := fitsOutput(cmd, 0, len(v)); err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: v}, nil
}

// handleCreateWallet provisions a wallet from TA-generated entropy. The
// value-in word selects how much entropy to draw, within the same bounds
// that apply to caller-supplied entropy.
func (a *TrustedApp) handleCreateWallet(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	n := int(cmd.Params[0].A)
	if n < interfaces.MinUserEntropy || n > interfaces.MaxUserEntropy {
		return nil, interfaces.ErrInvalidEntropyLength
	}

	entropy, err := a.security.RNG().SecureBytes(n)
	if err != nil {
		return nil, err
	}
	defer entropy.Destroy()

	h, err := a.wallets.Create(entropy.Bytes())
	if err != nil {
		return nil, err
	}

	s.log.Info("wallet created", slog.String("wallet", h.String()))
	return &interfaces.Response{Value: uint32(h)}, nil
}

func (a *TrustedApp) handleRemoveWallet(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	h := interfaces.WalletHandle(cmd.Params[0].A)
	if err := a.wallets.Remove(h); err != nil {
		return nil, err
	}
	s.log.Info("wallet removed", slog.String("wallet", h.String()))
	return &interfaces.Response{}, nil
}

func (a *TrustedApp) handleDeriveAddress(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	// Fixed-size output, checked before the registry ratchets anything.
	const outLen = len("address:") + 2*interfaces.AddressSize
	if err := fitsOutput(cmd, 1, outLen); err != nil {
		return nil, err
	}

	h := interfaces.WalletHandle(cmd.Params[0].A)
	index := cmd.Params[0].B

	addr, err := a.wallets.DeriveAddress(h, index)
	if err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: []byte(fmt.Sprintf("address:%x", addr))}, nil
}

func (a *TrustedApp) handleSignTransaction(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	if err := fitsOutput(cmd, 2, interfaces.SignatureSize); err != nil {
		return nil, err
	}

	h := interfaces.WalletHandle(cmd.Params[0].A)
	sig, err := a.wallets.Sign(h, cmd.Params[1].Buffer)
	if err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: sig}, nil
}

func (a *TrustedApp) handleGetWalletInfo(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	h := interfaces.WalletHandle(cmd.Params[0].A)
	md, err := a.wallets.Metadata(h)
	if err != nil {
		return nil, err
	}

	info := fmt.Sprintf("wallet_info:id=%d,derivations=%d,created=%d",
		uint32(md.Handle), md.Derivations, md.CreatedAt)
	if err := fitsOutput(cmd, 1, len(info)); err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: []byte(info)}, nil
}

func (a *TrustedApp) handleListWallets(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	list := a.wallets.List()

	var b strings.Builder
	fmt.Fprintf(&b, "wallets_count:%d", len(list))
	for _, md := range list {
		fmt.Fprintf(&b, ",id=%d", uint32(md.Handle))
	}

	out := b.String()
	if err := fitsOutput(cmd, 0, len(out)); err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: []byte(out)}, nil
}

func (a *TrustedApp) handleSecurityTest(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	report := a.security.SelfTest()
	if err := fitsOutput(cmd, 0, len(report)); err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: []byte(report)}, nil
}

func (a *TrustedApp) handleCreateHybridAccount(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	h, err := a.wallets.Create(cmd.Params[0].Buffer)
	if err != nil {
		return nil, err
	}
	s.log.Info("hybrid account created", slog.String("wallet", h.String()))
	return &interfaces.Response{Value: uint32(h)}, nil
}

func (a *TrustedApp) handleSignWithHybridKey(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	if err := fitsOutput(cmd, 2, interfaces.SignatureSize); err != nil {
		return nil, err
	}

	h := interfaces.WalletHandle(cmd.Params[0].A)
	sig, err := a.wallets.Sign(h, cmd.Params[1].Buffer)
	if err != nil {
		return nil, err
	}
	return &interfaces.Response{Output: sig}, nil
}

func (a *TrustedApp) handleVerifySecurityState(s *Session, cmd *interfaces.Command) (*interfaces.Response, error) {
	rngState := "ok"
	if !a.security.RNG().Healthy() {
		rngState = "degraded"
	}

	attState := "unavailable"
	if a.attester != nil {
		var report [64]byte
		copy(report[:], a.version)
		if quote, err := a.attester.Attest(report); err == nil {
			attState = fmt.Sprintf("%d_bytes", len(quote))
		}
	}

	state := fmt.Sprintf("security_state:wallets=%d/%d,sessions=%d,audit_seq=%d,audit_dropped=%d,rng=%s,attestation=%s",
		a.wallets.Count(), a.wallets.Capacity(), len(a.sessions),
		a.auditLog.Seq(), a.auditLog.Dropped(), rngState, attState)
	if err := fitsOutput(cmd, 0, len(state)); err != nil {
		return nil, err
	}

	a.auditLog.Record(audit.Event{
		Kind:      audit.TeeOperation,
		Component: "ta",
		Detail:    "security state verified",
	})
	return &interfaces.Response{Output: []byte(state)}, nil
}

// fitsOutput checks that the memref-out slot can hold n bytes. Checked
// before any handler side effect so a short buffer never leaves partial
// state behind.
func fitsOutput(cmd *interfaces.Command, slot, n int) error {
	if got := len(cmd.Params[slot].Buffer); got < n {
		return fmt.Errorf("%w: output needs %d bytes, capacity %d",
			interfaces.ErrBufferTooSmall, n, got)
	}
	return nil
}
