package interfaces

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandTable_Consistency(t *testing.T) {
	require.NotEmpty(t, CommandTable, "Protocol table must not be empty")

	for id, spec := range CommandTable {
		assert.Equal(t, id, spec.ID, "Table key and spec ID must agree for %s", spec.Name)
		assert.NotEmpty(t, spec.Name, "Command %d needs a name", id)

		if spec.HandleSlot >= 0 {
			require.Less(t, spec.HandleSlot, MaxParams, "%s handle slot out of range", spec.Name)
			assert.Equal(t, ParamValueIn, spec.Shape[spec.HandleSlot],
				"%s handle slot must be a value-in slot", spec.Name)
		}

		for i := 0; i < MaxParams; i++ {
			if spec.Shape[i] != ParamMemrefIn {
				assert.Zero(t, spec.MinLen[i], "%s slot %d min length on a non-memref-in slot", spec.Name, i)
				assert.Zero(t, spec.MaxLen[i], "%s slot %d max length on a non-memref-in slot", spec.Name, i)
				continue
			}
			if spec.MaxLen[i] != 0 {
				assert.LessOrEqual(t, spec.MinLen[i], spec.MaxLen[i],
					"%s slot %d min exceeds max", spec.Name, i)
				assert.LessOrEqual(t, spec.MaxLen[i], MaxBufferSize,
					"%s slot %d max exceeds the global bound", spec.Name, i)
			}
		}
	}
}

func TestWalletHandle_Encoding(t *testing.T) {
	h := NewWalletHandle(7, 42)
	assert.Equal(t, uint16(7), h.Slot())
	assert.Equal(t, uint16(42), h.Generation())
	assert.NotEqual(t, h, NewWalletHandle(7, 43), "Generation must change the handle")
	assert.NotEqual(t, h, NewWalletHandle(8, 42), "Slot must change the handle")

	// Extremes round-trip
	h = NewWalletHandle(0xffff, 0xffff)
	assert.Equal(t, uint16(0xffff), h.Slot())
	assert.Equal(t, uint16(0xffff), h.Generation())
}

func TestStatusOf_Taxonomy(t *testing.T) {
	cases := []struct {
		err  error
		want Status
	}{
		{nil, StatusSuccess},
		{ErrParameterShape, StatusValidationError},
		{ErrWalletNotFound, StatusValidationError},
		{ErrWalletPoolExhausted, StatusResourceError},
		{ErrEntropyUnavailable, StatusSecurityError},
		{ErrDerivationFailed, StatusSecurityError},
		{ErrSeedNotFound, StatusInternalError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, StatusOf(tc.err), "StatusOf(%v)", tc.err)
	}
}

func TestSafeMessage_NeverLeaksInternals(t *testing.T) {
	assert.Equal(t, "wallet pool exhausted", SafeMessage(ErrWalletPoolExhausted))
	assert.Equal(t, "internal error", SafeMessage(assert.AnError),
		"Unclassified errors must be reduced to a generic message")
	assert.Empty(t, SafeMessage(nil))
}
