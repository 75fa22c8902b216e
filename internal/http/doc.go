// Package http provides optional HTTP adapters for listing elements.
//
// Admin routes mount under /admin/api/listing:
//   - Elements: /elements, /elements/{id}
//   - Editor support: /elements/{id}/fields, /elements/{id}/schema,
//     /elements/schema, /template-files
//
// Public routes mount under /elements:
//   - /elements/{key} renders the element for the current request
//   - /elements/{key}/{action} drills into a relation target or a record
//
// Admin handlers check the listing.elements:* permission tokens when a checker
// is attached to the request context.
//
// Host applications can register handlers on their own mux/router as needed.
package http
