// Package models holds the GORM row types backing the pipeline tables.
// Domain entities stay free of ORM tags; each model carries the column
// mappings and converts to and from its domain counterpart, so the
// repositories never leak GORM types upward.
//
// base.go defines the shared identity, timestamp and version columns;
// bulk.go defines the upload batch and validation record tables.
package models
