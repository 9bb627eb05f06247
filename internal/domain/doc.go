// Package domain defines the core business types for the loyalty engine.
//
// Types in this package are pure value objects with no behavior beyond small
// validation helpers, no database dependencies, and no HTTP concerns. They are
// the shared language between handlers, services, repositories, and the
// scoring/offer/churn heuristics.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - No *sql.DB, no http.Request, no context.Context in struct fields
//   - JSON/DB tags are allowed (they're metadata, not behavior)
//   - JSON field names match the persisted customer document exactly, since
//     the storefront UI reads the same shapes back
package domain
