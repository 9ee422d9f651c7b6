// Package servicedef defines the JSON shapes of the users REST contract, as they appear on
// the wire between the test suite and the backend.
package servicedef
