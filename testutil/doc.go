// Package testutil provides test fixtures for the settlement pipeline: a
// scripted in-memory ledger, result log builders, and key helpers. It is
// intended for tests only and must not be imported by production code.
package testutil
