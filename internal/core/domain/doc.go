// Package domain defines the core business entities for hh-autoupdate.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - TokenPair: The OAuth access/refresh token pair for the job platform
//   - CallResult: The tagged outcome of a remote résumé update
//   - ScheduledTask: A recurring background task and its run history
//   - AppSettings: Runtime configuration read at startup
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
