// Package ir provides the value and operation types shared by every fastpath
// package.
//
// This package contains types and pure helpers only. All other internal
// packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - use int64 for numbers (determinism)
//   - State values are immutable once built; transitions return new values
//   - Equality is deep and structural (Equal), never pointer identity
//   - All JSON tags use snake_case
package ir
