package commands

import (
	"bytes"
	"context"
	"database/sql"
	"strings"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/alert"
	"telenetapi/lib/telenet"
	"telenetapi/lib/usagestore"
	"testing"
	"time"

	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

type fixedTime struct{}

func (fixedTime) Now() time.Time {
	return time.Date(2024, time.May, 16, 9, 0, 0, 0, time.UTC)
}

func testData() *telenet.Data {
	return &telenet.Data{
		System: telenet.SystemLegacy,
		Products: map[string]any{
			"x123": telenet.InternetUsage{
				PeriodStart:          "2024-05-01T00:00:00.0+0200",
				PeriodEnd:            "2024-05-31T00:00:00.0+0200",
				IncludedVolume:       150,
				TotalUsage:           135,
				UsagePercentage:      90,
				PeriodUsedPercentage: 50,
			},
			"x456": telenet.InternetUsage{
				PeriodStart:          "2024-05-01T00:00:00.0+0200",
				IncludedVolume:       150,
				TotalUsage:           15,
				UsagePercentage:      10,
				PeriodUsedPercentage: 50,
			},
			"tv1": telenet.TVProduct{Identifier: "tv1", Specs: telenet.ProductSpecs{Name: "Digital TV"}},
		},
		Devices: map[string]telenet.Record{
			"router1": {"type": "Modem", "model": "CH7465"},
		},
		Bills: map[string]any{
			telenet.BillInvoices: telenet.Invoices{Unpaid: 30.75, Unit: "EURO"},
		},
	}
}

func TestSendAlertsOncePerPeriod(t *testing.T) {
	sqlite, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	sqlite.SetMaxOpenConns(1)
	defer sqlite.Close()
	store, err := usagestore.NewStore(context.Background(), sqlite)
	require.NoError(t, err)

	var sent []*email.Email
	w := watcher{
		store:  &store,
		alerts: &alert.Config{To: []string{"jan@example.com"}},
		send: func(_ context.Context, mail *email.Email) error {
			sent = append(sent, mail)
			return nil
		},
		time: fixedTime{},
		tel:  &telemetry.TestAPI{},
	}

	require.NoError(t, w.sendAlerts(context.Background(), testData()))
	require.NoError(t, w.sendAlerts(context.Background(), testData()))

	require.Len(t, sent, 1)
	require.Equal(t, "Internet usage of x123 at 90.0%", sent[0].Subject)
}

func TestRenderData(t *testing.T) {
	var out bytes.Buffer
	renderData(&out, testData())

	// titles and headers may be upper cased by the style
	text := strings.ToLower(out.String())
	require.Contains(t, text, "internet")
	require.Contains(t, text, "x123")
	require.Contains(t, text, "90.0%")
	require.Contains(t, text, "digital tv")
	require.Contains(t, text, "router1")
	require.Contains(t, text, "unpaid invoices")
}

func TestRenderHistory(t *testing.T) {
	var out bytes.Buffer
	renderHistory(&out, []usagestore.UsageRecord{
		{
			Time: fixedTime{}.Now(),
			UsageSnapshot: usagestore.UsageSnapshot{
				Product:    "x123",
				TotalUsage: 16,
				UsagePct:   10.7,
			},
		},
	}, nil)

	// titles and headers may be upper cased by the style
	text := strings.ToLower(out.String())
	require.Contains(t, text, "usage history")
	require.Contains(t, text, "10.7%")
	require.NotContains(t, text, "bill history")
}
