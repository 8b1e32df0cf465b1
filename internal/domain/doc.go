// Package domain holds the core entities shared across services: leads,
// their pipeline and engagement statuses, and the outreach template model.
// It has no dependencies on storage or transport packages.
package domain
