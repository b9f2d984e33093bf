package interfaces

// Command identifiers. The numbering is part of the boundary protocol and
// matches the trusted application's installed command table; ids must never
// be renumbered or reused.
const (
	CmdHello               uint32 = 0
	CmdEcho                uint32 = 1
	CmdGetVersion          uint32 = 2
	CmdCreateWallet        uint32 = 10
	CmdRemoveWallet        uint32 = 11
	CmdDeriveAddress       uint32 = 12
	CmdSignTransaction     uint32 = 13
	CmdGetWalletInfo       uint32 = 14
	CmdListWallets         uint32 = 15
	CmdSecurityTest        uint32 = 16
	CmdCreateHybridAccount uint32 = 20
	CmdSignWithHybridKey   uint32 = 21
	CmdVerifySecurityState uint32 = 22
)

// MaxBufferSize is the hard upper bound on any memref parameter crossing the
// boundary. Oversized buffers are rejected before any state is touched.
const MaxBufferSize = 8192

// MaxParams is the number of parameter slots per command invocation.
const MaxParams = 4

// ParamType describes the direction and kind of a single parameter slot.
type ParamType uint8

const (
	// ParamNone marks an unused slot.
	ParamNone ParamType = iota
	// ParamValueIn carries up to two 32-bit words from the caller.
	ParamValueIn
	// ParamValueOut returns a single 32-bit word to the caller.
	ParamValueOut
	// ParamMemrefIn carries an opaque byte buffer from the caller.
	ParamMemrefIn
	// ParamMemrefOut returns an opaque byte buffer to the caller. The
	// caller's Buffer length is the output capacity.
	ParamMemrefOut
)

// String returns the wire-contract name of the parameter type.
func (t ParamType) String() string {
	switch t {
	case ParamNone:
		return "none"
	case ParamValueIn:
		return "value-in"
	case ParamValueOut:
		return "value-out"
	case ParamMemrefIn:
		return "memref-in"
	case ParamMemrefOut:
		return "memref-out"
	default:
		return "invalid"
	}
}

// ParamShape is the fixed slot layout of a command. Slot order matters; a
// mismatch in any slot is a protocol violation, not a soft default.
type ParamShape [MaxParams]ParamType

// Param is one parameter slot of an inbound invocation.
type Param struct {
	Type ParamType

	// A and B hold the payload of a value-in slot.
	A uint32
	B uint32

	// Buffer holds the payload of a memref-in slot, or sizes the output
	// capacity of a memref-out slot.
	Buffer []byte
}

// Command is a single demarshalled invocation arriving from the untrusted
// side of the boundary.
type Command struct {
	ID     uint32
	Params [MaxParams]Param
}

// Shape returns the slot layout the caller actually supplied.
func (c *Command) Shape() ParamShape {
	var s ParamShape
	for i := range c.Params {
		s[i] = c.Params[i].Type
	}
	return s
}

// Status is the result code returned across the boundary. Anything but
// StatusSuccess means the operation did not happen; the caller receives no
// partial output.
type Status uint32

const (
	StatusSuccess Status = iota
	StatusValidationError
	StatusResourceError
	StatusSecurityError
	StatusInternalError
)

// String returns the status name for logs and reports.
func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusValidationError:
		return "validation_error"
	case StatusResourceError:
		return "resource_error"
	case StatusSecurityError:
		return "security_error"
	case StatusInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Response carries an invocation result back across the boundary: the status,
// the value-out word (if the command declares one), and the memref-out bytes
// (if the command declares one). On failure Message holds a safe,
// caller-displayable reason with no internal state.
type Response struct {
	Status  Status
	Value   uint32
	Output  []byte
	Message string
}

// CommandSpec is one row of the protocol table: the canonical shape of a
// command plus its per-slot buffer limits.
type CommandSpec struct {
	ID    uint32
	Name  string
	Shape ParamShape

	// MinLen and MaxLen bound memref-in slots. Zero MaxLen means the
	// global MaxBufferSize applies.
	MinLen [MaxParams]int
	MaxLen [MaxParams]int

	// HandleSlot is the index of the value-in slot whose A word is a
	// wallet handle that must refer to a live wallet, or -1.
	HandleSlot int
}

// CommandTable is the single source of truth for the boundary protocol.
// Both the input validator and the dispatcher key off this table, and the
// caller-side stubs are expected to be generated from (or checked against)
// the same data.
var CommandTable = map[uint32]CommandSpec{
	CmdHello: {
		ID: CmdHello, Name: "Hello",
		Shape:      ParamShape{ParamNone, ParamNone, ParamNone, ParamNone},
		HandleSlot: -1,
	},
	CmdEcho: {
		ID: CmdEcho, Name: "Echo",
		Shape:      ParamShape{ParamMemrefIn, ParamMemrefOut, ParamNone, ParamNone},
		MinLen:     [MaxParams]int{1, 0, 0, 0},
		HandleSlot: -1,
	},
	CmdGetVersion: {
		ID: CmdGetVersion, Name: "GetVersion",
		Shape:      ParamShape{ParamMemrefOut, ParamNone, ParamNone, ParamNone},
		HandleSlot: -1,
	},
	CmdCreateWallet: {
		ID: CmdCreateWallet, Name: "CreateWallet",
		Shape:      ParamShape{ParamValueIn, ParamValueOut, ParamNone, ParamNone},
		HandleSlot: -1,
	},
	CmdRemoveWallet: {
		ID: CmdRemoveWallet, Name: "RemoveWallet",
		Shape:      ParamShape{ParamValueIn, ParamNone, ParamNone, ParamNone},
		HandleSlot: 0,
	},
	CmdDeriveAddress: {
		ID: CmdDeriveAddress, Name: "DeriveAddress",
		Shape:      ParamShape{ParamValueIn, ParamMemrefOut, ParamNone, ParamNone},
		HandleSlot: 0,
	},
	CmdSignTransaction: {
		ID: CmdSignTransaction, Name: "SignTransaction",
		Shape:      ParamShape{ParamValueIn, ParamMemrefIn, ParamMemrefOut, ParamNone},
		MinLen:     [MaxParams]int{0, DigestSize, 0, 0},
		MaxLen:     [MaxParams]int{0, DigestSize, 0, 0},
		HandleSlot: 0,
	},
	CmdGetWalletInfo: {
		ID: CmdGetWalletInfo, Name: "GetWalletInfo",
		Shape:      ParamShape{ParamValueIn, ParamMemrefOut, ParamNone, ParamNone},
		HandleSlot: 0,
	},
	CmdListWallets: {
		ID: CmdListWallets, Name: "ListWallets",
		Shape:      ParamShape{ParamMemrefOut, ParamNone, ParamNone, ParamNone},
		HandleSlot: -1,
	},
	CmdSecurityTest: {
		ID: CmdSecurityTest, Name: "SecurityTest",
		Shape:      ParamShape{ParamMemrefOut, ParamNone, ParamNone, ParamNone},
		HandleSlot: -1,
	},
	CmdCreateHybridAccount: {
		ID: CmdCreateHybridAccount, Name: "CreateHybridAccount",
		Shape:      ParamShape{ParamMemrefIn, ParamValueOut, ParamNone, ParamNone},
		MinLen:     [MaxParams]int{MinUserEntropy, 0, 0, 0},
		MaxLen:     [MaxParams]int{MaxUserEntropy, 0, 0, 0},
		HandleSlot: -1,
	},
	CmdSignWithHybridKey: {
		ID: CmdSignWithHybridKey, Name: "SignWithHybridKey",
		Shape:      ParamShape{ParamValueIn, ParamMemrefIn, ParamMemrefOut, ParamNone},
		MinLen:     [MaxParams]int{0, DigestSize, 0, 0},
		MaxLen:     [MaxParams]int{0, DigestSize, 0, 0},
		HandleSlot: 0,
	},
	CmdVerifySecurityState: {
		ID: CmdVerifySecurityState, Name: "VerifySecurityState",
		Shape:      ParamShape{ParamMemrefOut, ParamNone, ParamNone, ParamNone},
		HandleSlot: -1,
	},
}

// Cryptographic sizing constants shared by both sides of the boundary.
const (
	// DigestSize is the exact length of a transaction digest to sign.
	DigestSize = 32

	// SignatureSize is the length of a secp256k1 signature in
	// [R || S || V] form.
	SignatureSize = 65

	// AddressSize is the length of a derived account address.
	AddressSize = 20

	// MinUserEntropy and MaxUserEntropy bound caller-supplied entropy for
	// hybrid account derivation.
	MinUserEntropy = 16
	MaxUserEntropy = 64
)
