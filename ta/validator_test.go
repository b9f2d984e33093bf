package ta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AAStarCommunity/AirAccount-sub001/audit"
	"github.com/AAStarCommunity/AirAccount-sub001/interfaces"
)

type liveSet map[interfaces.WalletHandle]bool

func (l liveSet) IsLive(h interfaces.WalletHandle) bool { return l[h] }

func newTestValidator(live liveSet) (*Validator, *audit.Log) {
	auditLog := audit.NewLog(0, nil)
	return NewValidator(interfaces.CommandTable, live, auditLog, nil), auditLog
}

func TestValidator_UnknownCommand(t *testing.T) {
	v, auditLog := newTestValidator(nil)

	err := v.Validate(command(999))
	assert.ErrorIs(t, err, interfaces.ErrUnknownCommand)
	assert.Equal(t, uint64(1), auditLog.Seq(), "Rejection recorded exactly once")
}

func TestValidator_ShapeMismatch(t *testing.T) {
	v, auditLog := newTestValidator(nil)

	// Echo expects memref-in in slot 0, not a value
	err := v.Validate(command(interfaces.CmdEcho, valueIn(1, 2), memrefOut(16)))
	assert.ErrorIs(t, err, interfaces.ErrParameterShape)
	assert.Equal(t, uint64(1), auditLog.Seq(), "Rejection recorded exactly once")

	// Extra populated slot beyond the declared shape
	err = v.Validate(command(interfaces.CmdHello, valueIn(0, 0)))
	assert.ErrorIs(t, err, interfaces.ErrParameterShape, "Surplus slots are a shape violation")
	assert.Equal(t, uint64(2), auditLog.Seq())

	// Missing slot
	err = v.Validate(command(interfaces.CmdEcho, memrefIn([]byte("x"))))
	assert.ErrorIs(t, err, interfaces.ErrParameterShape, "Missing slots are a shape violation")
}

func TestValidator_BufferBounds(t *testing.T) {
	v, _ := newTestValidator(nil)

	// Global cap
	err := v.Validate(command(interfaces.CmdEcho,
		memrefIn(make([]byte, interfaces.MaxBufferSize+1)), memrefOut(16)))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooLarge)

	// Output capacity cap
	err = v.Validate(command(interfaces.CmdEcho,
		memrefIn([]byte("x")), memrefOut(interfaces.MaxBufferSize+1)))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooLarge)

	// Per-command minimum: Echo rejects an empty input
	err = v.Validate(command(interfaces.CmdEcho, memrefIn(nil), memrefOut(16)))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooSmall)

	// Per-command exact length: the signing digest
	live := liveSet{interfaces.NewWalletHandle(0, 1): true}
	v2, _ := newTestValidator(live)
	h := uint32(interfaces.NewWalletHandle(0, 1))

	err = v2.Validate(command(interfaces.CmdSignTransaction,
		valueIn(h, 0), memrefIn(make([]byte, 16)), memrefOut(65)))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooSmall, "Short digest rejected")

	err = v2.Validate(command(interfaces.CmdSignTransaction,
		valueIn(h, 0), memrefIn(make([]byte, 48)), memrefOut(65)))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooLarge, "Long digest rejected")

	err = v2.Validate(command(interfaces.CmdSignTransaction,
		valueIn(h, 0), memrefIn(make([]byte, interfaces.DigestSize)), memrefOut(65)))
	assert.NoError(t, err, "Exact digest length accepted")
}

func TestValidator_HandleLiveness(t *testing.T) {
	h := interfaces.NewWalletHandle(2, 7)
	v, auditLog := newTestValidator(liveSet{h: true})

	err := v.Validate(command(interfaces.CmdRemoveWallet, valueIn(uint32(h), 0)))
	assert.NoError(t, err, "Live handle passes")

	stale := interfaces.NewWalletHandle(2, 6)
	err = v.Validate(command(interfaces.CmdRemoveWallet, valueIn(uint32(stale), 0)))
	assert.ErrorIs(t, err, interfaces.ErrWalletNotFound, "Stale generation rejected")

	require.Equal(t, uint64(1), auditLog.Seq(), "Only the rejection is recorded")
}

func TestValidator_EntropyBoundsInTable(t *testing.T) {
	v, _ := newTestValidator(nil)

	err := v.Validate(command(interfaces.CmdCreateHybridAccount,
		memrefIn(make([]byte, interfaces.MinUserEntropy-1)), valueOut()))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooSmall, "Short entropy rejected at the boundary")

	err = v.Validate(command(interfaces.CmdCreateHybridAccount,
		memrefIn(make([]byte, interfaces.MaxUserEntropy+1)), valueOut()))
	assert.ErrorIs(t, err, interfaces.ErrBufferTooLarge, "Long entropy rejected at the boundary")

	err = v.Validate(command(interfaces.CmdCreateHybridAccount,
		memrefIn(make([]byte, interfaces.MinUserEntropy)), valueOut()))
	assert.NoError(t, err, "In-range entropy accepted")
}
