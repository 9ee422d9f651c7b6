// Package apitest provides the test scope used by API test suites. A *T behaves like Go's
// *testing.T closely enough to be passed to the testify assert and require packages, but it
// runs outside of "go test" so that a suite can be pointed at any running backend.
package apitest
