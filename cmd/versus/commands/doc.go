// Package commands defines the versus CLI and wires dependencies for subcommands.
//
// Commands
//
//   - host      Listen for an opponent and play over a direct TCP connection
//   - join      Connect to a hosting opponent
//   - mailbox   Play through an HTTP mailbox relay
//   - params    Print the group parameters in effect
//
// # Implementation
//
// The root command loads the TOML config (if any), applies flag overrides
// and configures logging before any subcommand runs. The play commands then
// build a transport and session through internal/app, run the network loop
// in its own goroutine and drive a simple line-based render loop on the
// calling goroutine.
package commands
