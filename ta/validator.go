package ta

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

// Validator checks raw invocations against the protocol table before any
// handler code sees them. Every rejection is recorded as a security
// violation exactly once, at the boundary.
type Validator struct {
	table    map[uint32]interfaces.CommandSpec
	handles  interfaces.HandleChecker
	auditLog *audit.Log
	log      *slog.Logger
}

// NewValidator creates a validator over the given protocol table. The
// handle checker decides whether a wallet handle refers to a live wallet.
func NewValidator(table map[uint32]interfaces.CommandSpec, handles interfaces.HandleChecker, auditLog *audit.Log, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Validator{
		table:    table,
		handles:  handles,
		auditLog: auditLog,
		log:      logger,
	}
}

// Validate checks the command id, the slot-by-slot parameter shape, the
// memref buffer bounds, and the liveness of any wallet handle the command
// carries. It returns nil only if the invocation is safe to dispatch.
func (v *Validator) Validate(cmd *interfaces.Command) error {
	spec, ok := v.table[cmd.ID]
	if !ok {
		return v.reject(cmd, fmt.Errorf("%w: command %d", interfaces.ErrUnknownCommand, cmd.ID))
	}

	for i := range cmd.Params {
		if cmd.Params[i].Type != spec.Shape[i] {
			return v.reject(cmd, fmt.Errorf("%w: %s slot %d got %s, want %s",
				interfaces.ErrParameterShape, spec.Name, i, cmd.Params[i].Type, spec.Shape[i]))
		}

		switch cmd.Params[i].Type {
		case interfaces.ParamMemrefIn:
			n := len(cmd.Params[i].Buffer)
			if n > interfaces.MaxBufferSize {
				return v.reject(cmd, fmt.Errorf("%w: %s slot %d is %d bytes",
					interfaces.ErrBufferTooLarge, spec.Name, i, n))
			}
			max := spec.MaxLen[i]
			if max == 0 {
				max = interfaces.MaxBufferSize
			}
			if n > max {
				return v.reject(cmd, fmt.Errorf("%w: %s slot %d is %d bytes, limit %d",
					interfaces.ErrBufferTooLarge, spec.Name, i, n, max))
			}
			if n < spec.MinLen[i] {
				return v.reject(cmd, fmt.Errorf("%w: %s slot %d is %d bytes, need %d",
					interfaces.ErrBufferTooSmall, spec.Name, i, n, spec.MinLen[i]))
			}
		case interfaces.ParamMemrefOut:
			if n := len(cmd.Params[i].Buffer); n > interfaces.MaxBufferSize {
				return v.reject(cmd, fmt.Errorf("%w: %s slot %d capacity %d",
					interfaces.ErrBufferTooLarge, spec.Name, i, n))
			}
		}
	}

	if spec.HandleSlot >= 0 {
		h := interfaces.WalletHandle(cmd.Params[spec.HandleSlot].A)
		if !v.handles.IsLive(h) {
			return v.reject(cmd, fmt.Errorf("%w: %s", interfaces.ErrWalletNotFound, h))
		}
	}

	return nil
}

// reject records the violation and returns the error unchanged. One audit
// event per rejected invocation, regardless of how many checks would have
// failed.
func (v *Validator) reject(cmd *interfaces.Command, err error) error {
	v.auditLog.Record(audit.Event{
		Kind:      audit.SecurityViolation,
		Component: "validator",
		Command:   cmd.ID,
		Detail:    err.Error(),
	})
	v.log.Warn("invocation rejected",
		slog.Uint64("command", uint64(cmd.ID)),
		slog.String("reason", err.Error()))
	return err
}
