// Package services hosts the gateway: the HTTP front end that seals bids
// and reserve prices for an auction, tracks its Dutch price schedule, and
// drives settlement attempts through the MPC pipeline. Auction state lives
// in process memory; the ledger is the durable source of truth.
package services
