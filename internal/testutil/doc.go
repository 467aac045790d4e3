// Package testutil contains helper agents and builders used across tests to
// reduce boilerplate when wiring graphs and constructing messages. They are
// not intended for production usage.
package testutil
