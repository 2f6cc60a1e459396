// Package output renders review results as text for humans or JSON for
// tooling.
package output
