//go:build tools
// +build tools

// Package tools pins the code generators run by `go generate`
// (mockgen for the mocks package) as module dependencies.
package relay_chat

import (
	_ "go.uber.org/mock/mockgen"
)
