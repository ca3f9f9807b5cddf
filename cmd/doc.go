// Package cmd provides the shadow command binaries.
//
// # Commands
//
// gateway: HTTP front end for the auction pipeline. Seals bids and reserve
// prices, submits settlement computations and exposes attempt status.
//
//	go run ./cmd/gateway --config=gateway.yaml
//	go run ./cmd/gateway --rpc=http://localhost:8899 --cluster=<hex address>
//
// settle-cli: Direct-to-ledger CLI for sealing bids and running settlement
// attempts without a gateway.
//
//	go run ./cmd/settle-cli encrypt --cluster-key=<hex> --auction=1 --bidder=<hex> --amount=7.5
//	go run ./cmd/settle-cli settle --rpc=http://localhost:8899 --cluster=<hex> --auction=1 --reserve=1 --bid=<hex>:7.5
//
// # Configuration
//
// The gateway supports YAML configuration files via the --config flag;
// command-line flags override config file values.
package cmd
