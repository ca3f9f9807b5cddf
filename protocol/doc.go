// Package protocol defines the wire-level types of the Shadow settlement
// protocol: the computation request submitted to the ledger program, the
// MPC result recovered from transaction logs, and the proof that gates
// acceptance of that result.
//
// # Settlement pipeline
//
// A settlement attempt flows through four stages:
//
//  1. Encrypted bids and the encrypted reserve are batched into an
//     MPCComputationRequest and encoded with EncodeComputationRequest.
//  2. The encoded request is submitted to the ledger program, which queues
//     the computation for the MPC cluster.
//  3. Once the transaction finalizes, ParseComputationResult extracts the
//     MPCResult from the transaction logs, tolerating the binary
//     return-data format and the legacy JSON event format.
//  4. VerifyComputationProof checks the result's proof (signature plus an
//     independently recomputed integrity hash) before any funds move.
//
// A result that has not passed VerifyComputationProof must never be acted
// upon; the settlement service enforces this, and callers embedding the
// parser directly must do the same.
package protocol
