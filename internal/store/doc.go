// Package store persists decoded uploads in SQLite.
//
// Each row keeps the original filename, where the staged bytes live, the
// decoder that succeeded and the serialized document. Deleting an upload
// only marks its row inactive. Schema changes bump schemaVersion in
// schema.go; older databases must be recreated.
package store
