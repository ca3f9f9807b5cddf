// Package auction implements client-side bid preparation for Shadow protocol
// auctions: canonical amount encoding, sealed bid and reserve price
// envelopes, and the encryption service that produces them.
//
// Amounts are quoted in whole units and converted to a fixed-point integer
// representation (smallest unit, scale 1e9 by default) before encryption.
// Each envelope is encrypted under a fresh ephemeral key pair and a shared
// secret derived with the MPC cluster's public key; nothing about a bid
// leaves the client in the clear.
//
// The package also provides the Dutch auction price schedule and the bid
// commitment hash that binds a sealed bid to its auction on chain.
package auction
