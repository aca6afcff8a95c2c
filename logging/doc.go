// Package logging defines the minimal Logger interface used across the mesh
// plus slog-backed implementations.
package logging
