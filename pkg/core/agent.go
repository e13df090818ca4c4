// pkg/core/agent.go
package core

import "sort"

// AgentStatus mirrors the short sync response of the server.
type AgentStatus struct {
	Program  string
	Running  bool
	CanReset bool
}

// ParamHelp maps parameter short codes to their descriptions.
type ParamHelp map[string]string

// SortedCodes returns the parameter codes in lexical order.
func (h ParamHelp) SortedCodes() []string {
	codes := make([]string, 0, len(h))
	for code := range h {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
