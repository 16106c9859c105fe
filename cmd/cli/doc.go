// Package cli assembles the surch command hierarchy, configuration loading,
// and structured logging.
package cli
