// Package cli implements the formrelay command line.
//
// The root command runs the HTTP relay. check-config validates the
// configuration and environment without starting a server.
package cli
