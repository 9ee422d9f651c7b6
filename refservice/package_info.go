// Package refservice is a reference implementation of the users REST backend that the contract
// tests run against. It stores users in sqlite, authenticates with a session cookie, and
// exposes the test-data endpoints used to seed and inspect the datastore.
//
// It exists so that the test suite can be exercised without the real application; it is not
// meant to be a complete copy of that application.
package refservice
