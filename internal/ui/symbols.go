package ui

// Unicode symbols for status indicators.
const (
	SymbolSuccess  = "✓" // Operation completed
	SymbolFail     = "✗" // Operation failed
	SymbolPending  = "○" // Not started / disconnected
	SymbolProgress = "◐" // In flight
	SymbolComplete = "●" // Connected / healthy dot
	SymbolWarning  = "▲" // Needs attention
)
