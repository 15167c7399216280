// Package domain defines the contracts shared between the webhook ingress,
// the token store tooling and their adapters.
//
// No implementation code beyond trivial null objects. Interfaces live here so
// adapters and the HTTP layer do not import each other.
package domain
