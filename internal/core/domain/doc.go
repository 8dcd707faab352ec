// Package domain defines the core business entities for specimen.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Sample: A content-addressed file record keyed by its sha256
//   - Project: An isolated dataset with its own repository and database
//   - Statement: One parsed unit of a command chain
//   - StatementResult / ChainResult: The aggregated output of a chain
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
