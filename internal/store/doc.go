// Package store persists Secret Santa state.
//
// Each draw instance is one document keyed by a storage key, holding the
// participant list, the assignment and the hasDrawn flag. The name of the
// participant currently logged in is stored separately under the same key.
// Documents are always read and written whole.
//
// Implementations:
//   - MemoryStore keeps everything in process memory
//   - FileStore writes JSON files into a directory
//   - SQLiteStore keeps documents in a SQLite database
package store
