// Package commands defines the statebox CLI and wires dependencies for subcommands.
//
// Commands
//
//   - keygen             Create the sealed state key
//   - key fingerprint    Print the key fingerprint
//   - key export         Print the raw key as base64
//   - put / get / rm     Store, read and delete JSON values
//   - ls / exists        Inspect stored keys
//   - session ...        Create, append to, list, show and remove chat sessions
//   - window ...         Save and show the window frame
//   - watch              Relay OS signals to the lifecycle bus until terminated
//
// # Implementation
//
// The root command loads configuration from STATEBOX_* variables and lets
// persistent flags override it. Commands that touch the store build the
// dependency graph lazily through appWire, and the root closes it after the
// command returns so in-flight writes finish before exit.
package commands
