// Package r2 manages the radare2 analysis engine as a subprocess.
//
// The engine speaks radare2's pipe protocol: the process is spawned with
// -q0, commands are written to its stdin one per line, and each reply is
// read from its stdout up to a NUL terminator. One engine serves the whole
// process lifetime; files are opened and closed inside it rather than by
// respawning.
//
// The engine deliberately tracks nothing about what is open. Session-level
// state (which artifact the client has open) belongs to the caller; the
// engine only executes commands.
package r2
