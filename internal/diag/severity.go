package diag

// Severity orders diagnostics; a higher value is more serious.
type Severity uint8

const (
	SevInfo Severity = iota
	SevWarning
	SevError
)

var severityNames = [...]struct{ upper, lower string }{
	SevInfo:    {"INFO", "info"},
	SevWarning: {"WARNING", "warning"},
	SevError:   {"ERROR", "error"},
}

// String is the upper-case name used in JSON output.
func (s Severity) String() string {
	if int(s) < len(severityNames) {
		return severityNames[s].upper
	}
	return "UNKNOWN"
}

// Label is the lower-case label used by text renderers. Unknown values
// render as info.
func (s Severity) Label() string {
	if int(s) < len(severityNames) {
		return severityNames[s].lower
	}
	return severityNames[SevInfo].lower
}
