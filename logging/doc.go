// Package logging provides a minimal logging interface and adapters for
// NegoMesh.
//
// The Logger interface defines the standard logging methods (Debug, Info,
// Warn, Error) that the runner and engine use for observability. This
// package includes:
//
//   - Logger interface for dependency injection
//   - SlogAdapter wrapping Go's structured logging
//   - NoOpLogger for silent operation (testing, minimal setups)
//   - SimLogger with session/run context and simulation helpers
//
// Usage:
//
//	logger := logging.NewSimLogger(logging.LogLevelInfo, "json", false)
//	r := runner.New(gen, runner.WithLogger(logger))
//
// The design intentionally keeps the interface minimal to avoid vendor
// lock-in while supporting structured logging where available.
package logging
