package usagestore

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	devenv "telenetapi/dev/env"
	"telenetapi/internal/chrono"
	"telenetapi/internal/telemetry"
	"telenetapi/lib/telenet"
	"telenetapi/lib/usagestore/db"
	"time"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/codes"

	_ "github.com/tursodatabase/libsql-client-go/libsql"
	_ "modernc.org/sqlite"
)

var tracer = telemetry.Tracer("telenetapi.lib.usagestore")

// Config points at either a local sqlite file or a remote libsql database.
type Config struct {
	File      string `json:"file"`
	Url       string `json:"url"`
	AuthToken string `json:"auth_token"`
}

// OpenDB opens the database described by the config, Url takes precedence over File.
// File may start with <dev_state>.
func (config Config) OpenDB() (*sql.DB, error) {
	if config.Url == "" {
		if config.File == "" {
			return nil, fmt.Errorf("neither a file nor a url was specified")
		}
		dbpath, err := devenv.ResolvePath(config.File)
		if err != nil {
			return nil, err
		}
		return sql.Open("sqlite", dbpath)
	}

	values := url.Values{}
	if config.AuthToken != "" {
		values.Add("authToken", config.AuthToken)
	}
	return sql.Open("libsql", config.Url+"?"+values.Encode())
}

type Store struct {
	db  *sql.DB
	qry *db.Queries
}

// NewStore creates the tables that do not exist yet.
func NewStore(ctx context.Context, database *sql.DB) (Store, error) {
	_, err := database.ExecContext(ctx, db.Schema)
	if err != nil {
		return Store{}, fmt.Errorf("create schema: %w", err)
	}
	return Store{
		db:  database,
		qry: db.New(database),
	}, nil
}

type UsageSnapshot struct {
	Product        string
	PeriodStart    string
	PeriodEnd      string
	IncludedVolume float64
	TotalUsage     float64
	UsagePct       float64
	PeriodUsedPct  float64
}

type BillSnapshot struct {
	Section string
	Amount  float64
	Unit    string
}

type PushRequest struct {
	Time   time.Time
	Usages []UsageSnapshot
	Bills  []BillSnapshot
}

// NewPushRequest takes the internet usage and bill totals out of the collected data,
// ordered by product and section.
func NewPushRequest(now time.Time, data *telenet.Data) PushRequest {
	req := PushRequest{Time: now}
	for product, usage := range data.InternetUsages() {
		req.Usages = append(req.Usages, UsageSnapshot{
			Product:        product,
			PeriodStart:    usage.PeriodStart,
			PeriodEnd:      usage.PeriodEnd,
			IncludedVolume: usage.IncludedVolume,
			TotalUsage:     usage.TotalUsage,
			UsagePct:       usage.UsagePercentage,
			PeriodUsedPct:  usage.PeriodUsedPercentage,
		})
	}
	sort.Slice(req.Usages, func(i, j int) bool {
		return req.Usages[i].Product < req.Usages[j].Product
	})

	invoices, ok := data.Invoices()
	if ok {
		req.Bills = append(req.Bills, BillSnapshot{
			Section: telenet.BillInvoices,
			Amount:  invoices.Unpaid,
			Unit:    invoices.Unit,
		})
	}
	unbilled, ok := data.UnbilledTV()
	if ok {
		req.Bills = append(req.Bills, BillSnapshot{
			Section: telenet.BillTV,
			Amount:  unbilled.Total,
			Unit:    unbilled.Unit,
		})
	}
	return req
}

// Push stores the snapshots of a single run and returns its id. Snapshots pushed earlier
// on the same day are replaced so a day keeps only its latest run.
func (s Store) Push(ctx context.Context, req PushRequest) (string, error) {
	ctx, span := tracer.Start(ctx, "Push")
	defer span.End()

	runID, err := random.String(12)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to generate run id")
		return "", err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()
	txqry := s.qry.WithTx(tx)

	local := req.Time.In(chrono.Brussels())
	startOfToday := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, chrono.Brussels()).Unix()
	startOfTomorrow := time.Date(local.Year(), local.Month(), local.Day()+1, 0, 0, 0, 0, chrono.Brussels()).Unix()

	err = txqry.DeleteSnapshotsIn(ctx, db.DeleteSnapshotsInParams{
		After:  startOfToday,
		Before: startOfTomorrow,
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to delete snapshots of today")
		return "", err
	}

	for _, usage := range req.Usages {
		err := txqry.CreateUsageSnapshot(ctx, db.UsageSnapshot{
			RunID:          runID,
			Time:           req.Time.Unix(),
			Product:        usage.Product,
			PeriodStart:    usage.PeriodStart,
			PeriodEnd:      usage.PeriodEnd,
			IncludedVolume: usage.IncludedVolume,
			TotalUsage:     usage.TotalUsage,
			UsagePct:       usage.UsagePct,
			PeriodUsedPct:  usage.PeriodUsedPct,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to insert usage snapshot")
			return "", err
		}
	}
	for _, bill := range req.Bills {
		err := txqry.CreateBillSnapshot(ctx, db.BillSnapshot{
			RunID:   runID,
			Time:    req.Time.Unix(),
			Section: bill.Section,
			Amount:  bill.Amount,
			Unit:    bill.Unit,
		})
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "failed to insert bill snapshot")
			return "", err
		}
	}
	return runID, tx.Commit()
}

type UsageRecord struct {
	RunID string
	Time  time.Time
	UsageSnapshot
}

// History returns the latest usage snapshots, newest first. An empty product returns
// the snapshots of every product.
func (s Store) History(ctx context.Context, product string, limit int) ([]UsageRecord, error) {
	rows, err := s.qry.GetUsageSnapshots(ctx, db.GetUsageSnapshotsParams{
		Product: product,
		Limit:   int64(limit),
	})
	if err != nil {
		return nil, err
	}

	out := make([]UsageRecord, len(rows))
	for i, r := range rows {
		out[i] = UsageRecord{
			RunID: r.RunID,
			Time:  time.Unix(r.Time, 0).In(chrono.Brussels()),
			UsageSnapshot: UsageSnapshot{
				Product:        r.Product,
				PeriodStart:    r.PeriodStart,
				PeriodEnd:      r.PeriodEnd,
				IncludedVolume: r.IncludedVolume,
				TotalUsage:     r.TotalUsage,
				UsagePct:       r.UsagePct,
				PeriodUsedPct:  r.PeriodUsedPct,
			},
		}
	}
	return out, nil
}

type BillRecord struct {
	RunID string
	Time  time.Time
	BillSnapshot
}

// BillHistory returns the latest bill totals, newest first.
func (s Store) BillHistory(ctx context.Context, limit int) ([]BillRecord, error) {
	rows, err := s.qry.GetBillSnapshots(ctx, int64(limit))
	if err != nil {
		return nil, err
	}
	out := make([]BillRecord, len(rows))
	for i, r := range rows {
		out[i] = BillRecord{
			RunID: r.RunID,
			Time:  time.Unix(r.Time, 0).In(chrono.Brussels()),
			BillSnapshot: BillSnapshot{
				Section: r.Section,
				Amount:  r.Amount,
				Unit:    r.Unit,
			},
		}
	}
	return out, nil
}

// AlertSent reports whether an alert went out for the product in the period starting
// at periodStart.
func (s Store) AlertSent(ctx context.Context, product, periodStart string) (bool, error) {
	count, err := s.qry.AlertSent(ctx, db.AlertSentParams{
		Product:     product,
		PeriodStart: periodStart,
	})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s Store) MarkAlertSent(ctx context.Context, product, periodStart string, at time.Time) error {
	return s.qry.MarkAlertSent(ctx, db.MarkAlertSentParams{
		Product:     product,
		PeriodStart: periodStart,
		Time:        at.Unix(),
	})
}
