// Package providers contains the built-in bank adapter implementations and
// the shared outbound client they build on.
package providers
