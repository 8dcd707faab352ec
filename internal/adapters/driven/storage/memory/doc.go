// Package memory provides in-memory implementations of the storage ports.
// They back service tests and ephemeral runs; nothing survives the process.
package memory
