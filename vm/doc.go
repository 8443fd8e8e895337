// Package vm implements the table engine at the heart of the Fengari
// runtime.
//
// This package contains:
//   - Tagged value representation
//   - The Table container (map + array + record store in one)
//   - Key normalization and canonical hashing
//   - Dead-key ledgers for iteration across deletions
//   - The collector that releases reference-type dead keys
package vm
