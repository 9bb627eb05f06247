// Package loyalty implements the customer loyalty service.
//
// It ties the pure heuristics (scoring, offer, churn) to persisted customer
// records: it reads a record, builds a profile from it, scores it, asks for
// an offer and writes the results back. It also records the customer events
// that feed the score: purchases, feedback and engagement.
//
// The service depends on the Repository interface defined in repository.go.
// It never imports net/http or database/sql directly.
package loyalty
