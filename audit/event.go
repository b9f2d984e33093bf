package audit

import "github.com/AAStarCommunity/AirAccount-sub001/interfaces"

// Kind classifies an audit event.
type Kind uint8

const (
	// WalletCreated records a successful wallet allocation.
	WalletCreated Kind = iota
	// WalletRemoved records a wallet release and key destruction.
	WalletRemoved
	// AddressDerivation records an address derivation on a wallet.
	AddressDerivation
	// TransactionSigned records a signing operation.
	TransactionSigned
	// SecurityViolation records a rejected or failed security-relevant
	// operation: validation failures, derivation failures, RNG failures.
	SecurityViolation
	// TeeOperation records trusted-application lifecycle activity such as
	// create, destroy, and session handling.
	TeeOperation
	// SecurityTest records a run of the security self-test.
	SecurityTest
)

// String returns the event kind name used in logs and reports.
func (k Kind) String() string {
	switch k {
	case WalletCreated:
		return "wallet_created"
	case WalletRemoved:
		return "wallet_removed"
	case AddressDerivation:
		return "address_derivation"
	case TransactionSigned:
		return "transaction_signed"
	case SecurityViolation:
		return "security_violation"
	case TeeOperation:
		return "tee_operation"
	case SecurityTest:
		return "security_test"
	default:
		return "unknown"
	}
}

// Event is one immutable audit record. Payload fields hold identifiers and
// outcomes only; there is deliberately no field that could carry key bytes.
type Event struct {
	// Seq is assigned by the log at record time and is strictly
	// increasing across the session, including for dropped events.
	Seq uint64

	// Timestamp is coarse (seconds) by design; the audit trail orders by
	// Seq, not by clock.
	Timestamp int64

	Kind      Kind
	Component string

	// Wallet is the subject handle, when the event concerns a wallet.
	Wallet interfaces.WalletHandle

	// Index is the derivation index for AddressDerivation events.
	Index uint32

	// Command is the boundary command id for violation events.
	Command uint32

	// Detail is a short, fixed-vocabulary description of the outcome.
	Detail string
}
