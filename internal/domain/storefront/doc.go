// Package storefront contains the Storefront bounded context.
// This context covers the remote commerce backend (accounts, orders, subscriptions,
// products) reached over the line protocol implemented in infrastructure/swell.
//
// Key concepts:
//   - Document: ordered JSON object used for request bodies and parsed responses
//   - Gateway: Port interface for issuing single requests and paginated bulk reads
//   - Error/Kind: Error taxonomy separating transport failures from domain negatives
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package storefront
