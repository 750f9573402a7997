package alert

import (
	"strings"
	"telenetapi/lib/telenet"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDue(t *testing.T) {
	cases := []struct {
		name   string
		config Config
		usage  telenet.InternetUsage
		due    bool
	}{
		{
			name:  "below default threshold",
			usage: telenet.InternetUsage{UsagePercentage: 79.9, PeriodUsedPercentage: 50},
		},
		{
			name:  "at default threshold",
			usage: telenet.InternetUsage{UsagePercentage: 80, PeriodUsedPercentage: 50},
			due:   true,
		},
		{
			name:  "period over",
			usage: telenet.InternetUsage{UsagePercentage: 95, PeriodUsedPercentage: 100},
		},
		{
			name:   "custom threshold",
			config: Config{ThresholdPct: 50},
			usage:  telenet.InternetUsage{UsagePercentage: 60, PeriodUsedPercentage: 10},
			due:    true,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.due, tc.config.Due(tc.usage))
		})
	}
}

func TestCompose(t *testing.T) {
	config := Config{
		Smtp: SmtpConfig{EmailAddress: "noreply@example.com"},
		To:   []string{"jan@example.com"},
	}
	mail := config.Compose("x123", telenet.InternetUsage{
		PeriodStart:          "2024-05-01T00:00:00.0+0200",
		PeriodEnd:            "2024-05-31T00:00:00.0+0200",
		IncludedVolume:       150,
		TotalUsage:           135,
		UsagePercentage:      90,
		PeriodUsedPercentage: 50,
	})

	require.Equal(t, "Telenet usage <noreply@example.com>", mail.From)
	require.Equal(t, []string{"jan@example.com"}, mail.To)
	require.Equal(t, "Internet usage of x123 at 90.0%", mail.Subject)
	require.True(t, strings.Contains(string(mail.Text), "used 135.0 GB of the 150.0 GB"))

	raw, err := mail.Bytes()
	require.NoError(t, err)
	require.Contains(t, string(raw), "Subject: Internet usage of x123 at 90.0%")
}
