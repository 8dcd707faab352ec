// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// The command dispatcher lives here together with the per-chain project
// and session contexts it threads through every builtin and module.
//
// Services are pure Go with no CGO or external dependencies.
package services
