// Package constants provides centralized configuration constants for the review-importer project.
//
// This package consolidates the hard-coded values, limits, ref namespaces and magic numbers
// used across the importer into a single source of truth.
//
// Organization:
//   - remote.go: source system constants (rate limits, paging, retries)
//   - refs.go: git ref namespaces used by the repository and replay stages
//   - storage.go: storage constants (buffer sizes, file permissions, data layout)
//   - validation.go: validation constraints (project names, S3 limits)
//   - output.go: CLI output formatting constants
//
// Modifying Constants:
// Most rate and paging constants mirror limits of the source review systems.
// Before modifying:
//  1. Check the documentation comment for rationale
//  2. Verify the source system documentation
//  3. Test thoroughly with the new value
package constants
