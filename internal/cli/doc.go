// Package cli implements the command-line interface for emu-alert.
//
// The root command takes exactly one positional argument, the message text,
// loads credentials from the environment, sends the message once, and maps the
// outcome to a single line on stdout and an exit code (0 delivered, 1 anything
// else).
package cli
