// Package app wires application dependencies for the CLI.
//
// It loads Config from the environment, unseals the state key, and builds the
// encrypted store, the session and window services and the lifecycle bus,
// exposing them via the Wire struct for commands to use.
package app
