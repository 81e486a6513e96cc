// Package storage provides the key/value engines behind the storage.*
// bridge methods: Memory for a single process and Redis for a shared,
// persistent store.
package storage
