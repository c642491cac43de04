// Package api is the data-access collaborator of the entity controller: one Fetch entry point keyed by
// operation, backed by the entity REST backend over HTTP.
package api

import (
	"context"

	"github.com/GoPowerDNS-Admin/GoEntity-Admin/internal/entity"
)

// Operation names a data-access operation.
type Operation string

// Supported operations.
const (
	OpOptions Operation = "options"
	OpGet     Operation = "get"
	OpGetOne  Operation = "getOne"
	OpPost    Operation = "post"
	OpUpdate  Operation = "update"
	OpDelete  Operation = "delete"
	OpExport  Operation = "export"
)

// Client fetches entity data. The payload and result shapes depend on op:
//
//	options  nil                    → options document
//	get      Query                  → {items,total}, a bare array or a single row
//	getOne   id or {id}             → row
//	post     row                    → persisted row
//	update   row with id            → persisted row
//	delete   id or {id}             → true
//	export   Query                  → *Blob, or decoded JSON when the backend answers with JSON
type Client interface {
	Fetch(ctx context.Context, entityName string, op Operation, payload any) (any, error)
}

// ClientFunc adapts a function to Client.
type ClientFunc func(ctx context.Context, entityName string, op Operation, payload any) (any, error)

// Fetch implements Client.
func (f ClientFunc) Fetch(ctx context.Context, entityName string, op Operation, payload any) (any, error) {
	return f(ctx, entityName, op, payload)
}

// Query carries list and export parameters.
type Query map[string]any

// Blob is a binary export artifact.
type Blob struct {
	ContentType string
	Filename    string
	Data        []byte
}

// Size returns the artifact size in bytes.
func (b *Blob) Size() int {
	return len(b.Data)
}

// IDOf extracts the id from a getOne/delete payload: either a map carrying "id" or the id itself.
func IDOf(payload any) any {
	switch p := payload.(type) {
	case map[string]any:
		return p["id"]
	case Query:
		return p["id"]
	case entity.Row:
		return p["id"]
	}

	return payload
}
