// Package types contains the shared value types and collaborator contracts of
// the relay library.
//
// The root relay package re-exports the public names via type aliases, so most
// users never import this package directly. It exists as a leaf package so
// that internal packages and broker adapters can depend on the contracts
// without importing the root package.
package types
