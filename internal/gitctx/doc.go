// Package gitctx shells out to git for the staged diff and repository paths.
package gitctx
