// Package models defines the core domain models for Splitswipe.
//
// # Models
//
//   - Transaction: a normalized bank-statement row (the unit being categorized)
//   - Category: the user's three-way classification of a transaction
//   - Stage: the lifecycle stage of a categorization session
//   - Session: one upload-to-summary pass over a statement
//
// # Design Principles
//
//  1. **Single currency, two parties**: the user and their partner. No
//     accounts, no multi-party groups.
//  2. **Transactions are immutable**: the working set is filtered and sorted
//     once at parse time and never mutated afterwards.
//  3. **Decisions are sparse**: a session may have any subset of its
//     transactions decided; absence means "undecided".
//  4. **Persistence-friendly**: every field serializes directly to a SQLite
//     row, so a session survives a server restart mid-categorization.
package models
