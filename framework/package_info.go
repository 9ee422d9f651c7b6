// Package framework contains the low-level implementation of test harness infrastructure
// that can be reused for different kinds of API tests. The base package contains shared
// types such as Logger; other components are in the subpackages harness and apitest.
//
// The general model is:
//
// 1. The test harness communicates with a running backend over HTTP. It waits for the
// backend to respond before any tests run, and gives each test its own HTTP session so
// that cookies set by one test never leak into another.
//
// 2. There is a general notion of a test scope which is similar to Go's testing.T,
// allowing pieces of test logic to be associated with a test identifier and to accumulate
// success/failure results.
//
// The domain-specific code that knows what is being tested is responsible for the requests
// it sends and for a domain-specific test API on top of the test scope.
package framework
