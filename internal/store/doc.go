// Package store provides engine.Store backends.
//
// The sqlite backend (modernc.org/sqlite, pure Go) is the default and keeps
// records in a table with a unique (user_id, date) index. The file backend
// keeps everything in a single JSON document guarded by a lockfile and
// rewritten atomically; it suits small single-user installs and tests.
package store
