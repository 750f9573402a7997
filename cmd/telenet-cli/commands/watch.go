package commands

import (
	"context"
	"fmt"
	"log/slog"
	"telenetapi/internal/chrono"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/alert"
	"telenetapi/lib/serviceutil"
	"telenetapi/lib/telenet"
	"telenetapi/lib/usagestore"

	"github.com/jordan-wright/email"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const defaultSchedule = "@every 1h"

var meter = telemetry.Meter("telenetapi.cmd.telenet-cli")
var usagePctGauge, _ = meter.Float64Gauge("telenet.usage_pct")
var periodUsedPctGauge, _ = meter.Float64Gauge("telenet.period_used_pct")
var unpaidGauge, _ = meter.Float64Gauge("telenet.unpaid_amount")

func init() {
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Periodically fetches usage, records it and sends alerts until interrupted.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		cfg := readConfig()
		tel := telemetry.NewScopedAPI("watch", telemetry.SlogAPI{})

		w := watcher{
			client: createClient(cfg),
			alerts: cfg.Alert,
			time:   chrono.NewStandardTime(),
			tel:    tel,
		}
		if cfg.Store.File != "" || cfg.Store.Url != "" {
			store := openStore(ctx, cfg.Store)
			w.store = &store
		}
		if cfg.Alert != nil {
			w.send = cfg.Alert.Send
		}

		telemetry.InstrumentPerfStats(ctx, tel)

		schedule := cfg.Schedule
		if schedule == "" {
			schedule = defaultSchedule
		}
		scheduler := chrono.NewStandardCron(tel)
		defer scheduler.Stop()

		slog.Info("watching usage", "schedule", schedule)
		err := scheduler.CronNow(schedule, func() {
			err := w.tick(ctx)
			if err != nil {
				tel.ReportBroken("tick", err)
			}
		})
		if err != nil {
			serviceutil.Fatal("invalid schedule", err)
		}
		<-ctx.Done()
	},
}

type watcher struct {
	client *telenet.Client
	store  *usagestore.Store
	alerts *alert.Config
	send   func(ctx context.Context, mail *email.Email) error
	time   chrono.TimeAPI
	tel    telemetry.API
}

// tick logs in again, the login returns immediately while the session is still valid.
func (w watcher) tick(ctx context.Context) error {
	_, err := w.client.Login(ctx)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	data, err := w.client.GetData(ctx)
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	w.record(ctx, data)

	if w.store == nil {
		return nil
	}
	runID, err := w.store.Push(ctx, usagestore.NewPushRequest(w.time.Now(), data))
	if err != nil {
		return fmt.Errorf("store: %w", err)
	}
	w.tel.ReportDebug("stored snapshot", runID)

	if w.alerts == nil || w.send == nil {
		return nil
	}
	return w.sendAlerts(ctx, data)
}

func (w watcher) record(ctx context.Context, data *telenet.Data) {
	for line, usage := range data.InternetUsages() {
		attrs := metric.WithAttributes(attribute.String("line", line))
		usagePctGauge.Record(ctx, usage.UsagePercentage, attrs)
		periodUsedPctGauge.Record(ctx, usage.PeriodUsedPercentage, attrs)
	}
	invoices, ok := data.Invoices()
	if ok {
		unpaidGauge.Record(ctx, invoices.Unpaid)
	}
}

// sendAlerts mails every line past the threshold once per period.
func (w watcher) sendAlerts(ctx context.Context, data *telenet.Data) error {
	for _, line := range sortedKeys(data.InternetUsages()) {
		usage := data.InternetUsages()[line]
		if !w.alerts.Due(usage) {
			continue
		}
		sent, err := w.store.AlertSent(ctx, line, usage.PeriodStart)
		if err != nil {
			return fmt.Errorf("alert state: %w", err)
		}
		if sent {
			continue
		}

		err = w.send(ctx, w.alerts.Compose(line, usage))
		if err != nil {
			w.tel.ReportBroken("alert-send", err, line)
			continue
		}
		err = w.store.MarkAlertSent(ctx, line, usage.PeriodStart, w.time.Now())
		if err != nil {
			return fmt.Errorf("alert state: %w", err)
		}
		w.tel.ReportDebug("sent usage alert", line, usage.UsagePercentage)
	}
	return nil
}
