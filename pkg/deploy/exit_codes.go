package deploy

import (
	"fmt"

	"github.com/xssnick/tonutils-go/tlb"
)

// ExitCode is the TVM result code of a transaction's compute phase.
// See https://docs.ton.org/v3/documentation/tvm/tvm-exit-codes for the
// authoritative list.
type ExitCode int32

const (
	ExitCodeSuccess ExitCode = 0
	// ExitCodeInvalidIncomingMessage is what a freshly deployed contract
	// returns when the deploy message carries an opcode it has no receiver
	// for; for a plain deployment that still means the account is live.
	ExitCodeInvalidIncomingMessage ExitCode = 130
)

func (c ExitCode) IsSuccess() bool { return c == ExitCodeSuccess }

// IsSuccessfulDeployment reports whether the code indicates the account was
// created even though the message body itself was not understood.
func (c ExitCode) IsSuccessfulDeployment() bool {
	return c == ExitCodeSuccess || c == ExitCodeInvalidIncomingMessage
}

var exitCodeDescriptions = map[ExitCode]string{
	2:   "Stack underflow",
	3:   "Stack overflow",
	4:   "Integer overflow",
	5:   "Integer out of expected range",
	6:   "Invalid opcode",
	7:   "Type check error",
	8:   "Cell overflow",
	9:   "Cell underflow",
	10:  "Dictionary error",
	11:  "'Unknown' error",
	12:  "Fatal error",
	13:  "Out of gas error",
	14:  "Virtualization error",
	32:  "Action list is invalid",
	33:  "Action list is too long",
	34:  "Action is invalid or not supported",
	35:  "Invalid source address in outbound message",
	36:  "Invalid destination address in outbound message",
	37:  "Not enough Toncoin",
	38:  "Not enough extra currencies",
	39:  "Outbound message does not fit into a cell after rewriting",
	40:  "Cannot process a message",
	41:  "Library reference is null",
	42:  "Library change action error",
	43:  "Exceeded maximum number of cells in the library or the maximum depth of the Merkle tree",
	50:  "Account state size exceeded limits",
	128: "Null reference exception",
	129: "Invalid serialization prefix",
	130: "Invalid incoming message",
	131: "Constraints error",
	132: "Access denied",
	133: "Contract stopped",
	134: "Invalid argument",
	135: "Code of a contract was not found",
	136: "Invalid standard address",
	138: "Not a basechain address",
}

// Describe renders the code with its human-readable meaning when known.
func (c ExitCode) Describe() string {
	if desc, ok := exitCodeDescriptions[c]; ok {
		return fmt.Sprintf("exit code %d: %s", int32(c), desc)
	}
	return fmt.Sprintf("exit code %d", int32(c))
}

// ComputeExitCode extracts the compute-phase exit code of a transaction.
// The second return is false when the transaction is not ordinary or its
// compute phase was skipped.
func ComputeExitCode(tx *tlb.Transaction) (ExitCode, bool) {
	dsc, ok := tx.Description.(tlb.TransactionDescriptionOrdinary)
	if !ok {
		return 0, false
	}
	vm, ok := dsc.ComputePhase.Phase.(tlb.ComputePhaseVM)
	if !ok {
		return 0, false
	}
	return ExitCode(vm.Details.ExitCode), true
}
