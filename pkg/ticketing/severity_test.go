package ticketing

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseSeverity(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    Severity
		wantErr bool
	}{
		{name: "low", raw: "low", want: SeverityLow},
		{name: "medium", raw: "medium", want: SeverityMedium},
		{name: "high", raw: "high", want: SeverityHigh},
		{name: "critical", raw: "critical", want: SeverityCritical},
		{name: "unknown", raw: "urgent", wantErr: true},
		{name: "empty", raw: "", wantErr: true},
		{name: "case sensitive", raw: "High", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSeverity(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestSeverityPriorityName(t *testing.T) {
	require.Equal(t, "Low", SeverityLow.PriorityName())
	require.Equal(t, "Medium", SeverityMedium.PriorityName())
	require.Equal(t, "High", SeverityHigh.PriorityName())
	require.Equal(t, "Highest", SeverityCritical.PriorityName())
}

func TestSeverityLabel(t *testing.T) {
	require.Equal(t, "severity-high", SeverityHigh.Label())
}
