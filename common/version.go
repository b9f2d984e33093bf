// Package common holds shared build metadata and logging setup.
package common

// PackageName identifies the project in logs and version strings.
const PackageName = "airaccount-ta"

// Version is set at build time via -ldflags.
var Version = "dev"
