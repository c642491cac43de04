// Package main provides the entry point of go-entity-admin, a command line administration tool for entity
// collections served by a REST backend. Every entity is described by an options document (schema and table
// columns); the tool lists, searches, filters, sorts, creates, updates, deletes and exports its records, and
// the start command runs a demo backend built on Fiber and gorm that serves such collections.
package main
