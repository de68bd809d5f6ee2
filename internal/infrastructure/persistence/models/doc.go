// Package models contains GORM persistence models that map to database tables.
// These models are separate from domain entities so the domain layer stays
// free of ORM concerns; each model converts to and from its entity with
// ToDomain and a FromDomain constructor.
//
// Structure:
//   - base.go: shared columns (id, timestamps, version)
//   - producer.go: reference data (productores, parcelas, gestiones)
//   - inspection.go: the ficha root and one table per dependent section
package models
