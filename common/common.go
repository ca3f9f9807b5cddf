// Package common holds process-wide identity shared by the servers and CLIs.
package common

// PackageName identifies this module in metrics and logs.
const PackageName = "github.com/shadowlabs-sol/shadow"

// Version is overridden at build time via -ldflags.
var Version = "dev"
