// Package mpv provides memory-safe Go bindings for the libmpv client API,
// loaded dynamically at runtime via purego (no cgo required).
//
// Key pieces include:
//   - Handle: lifecycle of one mpv client handle (create, initialize,
//     derived clients, destroy/terminate)
//   - Node: an owned, recursive tagged value mirroring mpv_node, with
//     conversion isolated at the ABI boundary
//   - Event: owned, structured notifications decoded from mpv_wait_event
//   - Error: the closed set of mpv status codes as Go errors
//
// # Native Library
//
// The bindings load libmpv at first use. Set MPV_LIBRARY_PATH to an explicit
// shared-object path to override the default search locations.
//
// # Ownership
//
// Values crossing the ABI are copied into Go memory on read and the foreign
// allocations are released exactly once, including on conversion failure.
// Values written to the engine are allocated in C memory and released through
// this package's own free path once the call returns.
//
// # Concurrency
//
// Only one goroutine may call WaitEvent on a given Handle at a time; the
// engine exposes the event record as a single-slot buffer that the next poll
// invalidates. This is a documented precondition, not something the package
// detects. All other Handle operations are safe to call concurrently, with
// each other and with WaitEvent, because the engine synchronizes internally;
// the package deliberately adds no locking of its own.
package mpv
