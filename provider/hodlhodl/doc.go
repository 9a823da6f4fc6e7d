// Package hodlhodl provides the HodlHodl P2P offer scraper.
//
// # Endpoints
//
// All endpoints share a single base URL (default https://hodlhodl.com/api/).
//
//	GET  frontend/currencies   supported currency codes
//	GET  frontend/offers       one page of offers per currency and side
//	POST v1/offers             downstream offer publishing
//
// # Offer collection
//
// For every currency, the buy side is processed before the sell side.
// Only the first page of up to 100 offers is fetched (offset 0).
//
// # Normalization
//
// Each raw offer is mapped into a types.Offer and a types.Seller:
//   - payment method name and slug are the type of the first payment method, or null
//   - the coin currency mirrors the currency code
//   - site name is "hodlhodl", margin percentage is 0 and the headline is empty
//   - a missing or zero trader rating yields a feedback score of 0
//
// Sellers are computed, but not sent downstream.
//
// # Publishing
//
// Offers are posted as {"offer": {...}}. The marketplace "Global" country
// sentinel is published as "GL". Publish failures are logged and skipped.
package hodlhodl
