// Package server implements the HTTP server and handlers for the
// filevault backend: user registration and login with bcrypt-hashed
// credentials and JWT cookie issuance, and multipart file upload
// streamed to object storage. It wires the routes to their
// dependencies (database, storage client) and provides lifecycle
// helpers used by tests and the production binary.
package server
