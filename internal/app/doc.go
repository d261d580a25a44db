// Package app wires application dependencies for the CLI.
//
// It loads Config from TOML, configures logrus, and builds the transport
// and session for a given connection mode, exposing them via the Wire struct
// for commands to use.
package app
