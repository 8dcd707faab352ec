// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
//   - Repository: Content-addressed sample file storage
//   - SampleDatabase: Sample, hash and tag indexing
//   - ProjectCatalog: Project directory discovery and creation
//   - WorkspaceOpener: Opens the repository and database of a project
//   - FileInspector: Computes digests and type information for a file
//   - ConfigStore: Application configuration
//
// # Plugin Interfaces
//
//   - Module: An analysis capability registered under a command token
//   - Scanner: The external rule scanner used by the eyara module. When the
//     binary is missing the module fails per statement, never at startup.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or module package
package driven
