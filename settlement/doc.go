// Package settlement drives an auction settlement attempt end to end:
// submit the encrypted computation request to the ledger, poll the
// transaction to finality, parse the MPC result out of the logs, and verify
// its proof. Callers act on a result only after verification; the package
// never hands back an unverified winner.
package settlement
