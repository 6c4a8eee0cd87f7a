// Package entity defines the core domain types of the digest service:
// source material, chunks, partial summaries, detail levels and the
// creations that record what the service produced for each caller.
package entity
