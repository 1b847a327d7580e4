package ticketing

import "fmt"

// Severity is the closed set of severities an end user can pick.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// Severities lists every valid severity in display order.
func Severities() []Severity {
	return []Severity{SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical}
}

// ParseSeverity validates a raw severity string.
func ParseSeverity(raw string) (Severity, error) {
	switch Severity(raw) {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return Severity(raw), nil
	default:
		return "", fmt.Errorf("invalid severity %q", raw)
	}
}

// PriorityName maps a severity to the provider priority name.
func (s Severity) PriorityName() string {
	switch s {
	case SeverityLow:
		return "Low"
	case SeverityMedium:
		return "Medium"
	case SeverityHigh:
		return "High"
	case SeverityCritical:
		return "Highest"
	default:
		return "Medium"
	}
}

// Label is the provider label recording the severity on a ticket.
func (s Severity) Label() string {
	return "severity-" + string(s)
}
