// Package usertests contains the users API test suite, and the domain-specific test API that
// the tests are written with.
//
// Every test runs against a freshly seeded backend, in its own cookie session, already logged
// in as the first seeded user.
package usertests
