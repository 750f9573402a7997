package db

import (
	"context"
)

type UsageSnapshot struct {
	RunID          string
	Time           int64
	Product        string
	PeriodStart    string
	PeriodEnd      string
	IncludedVolume float64
	TotalUsage     float64
	UsagePct       float64
	PeriodUsedPct  float64
}

type BillSnapshot struct {
	RunID   string
	Time    int64
	Section string
	Amount  float64
	Unit    string
}

const createUsageSnapshot = `
insert into UsageSnapshot(runId, time, product, periodStart, periodEnd, includedVolume, totalUsage, usagePct, periodUsedPct)
values (?, ?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateUsageSnapshot(ctx context.Context, arg UsageSnapshot) error {
	_, err := q.db.ExecContext(ctx, createUsageSnapshot,
		arg.RunID,
		arg.Time,
		arg.Product,
		arg.PeriodStart,
		arg.PeriodEnd,
		arg.IncludedVolume,
		arg.TotalUsage,
		arg.UsagePct,
		arg.PeriodUsedPct,
	)
	return err
}

const createBillSnapshot = `
insert into BillSnapshot(runId, time, section, amount, unit)
values (?, ?, ?, ?, ?)
`

func (q *Queries) CreateBillSnapshot(ctx context.Context, arg BillSnapshot) error {
	_, err := q.db.ExecContext(ctx, createBillSnapshot,
		arg.RunID,
		arg.Time,
		arg.Section,
		arg.Amount,
		arg.Unit,
	)
	return err
}

type DeleteSnapshotsInParams struct {
	After  int64
	Before int64
}

const deleteUsageSnapshotsIn = `
delete from UsageSnapshot where time >= ? and time < ?
`

const deleteBillSnapshotsIn = `
delete from BillSnapshot where time >= ? and time < ?
`

func (q *Queries) DeleteSnapshotsIn(ctx context.Context, arg DeleteSnapshotsInParams) error {
	_, err := q.db.ExecContext(ctx, deleteUsageSnapshotsIn, arg.After, arg.Before)
	if err != nil {
		return err
	}
	_, err = q.db.ExecContext(ctx, deleteBillSnapshotsIn, arg.After, arg.Before)
	return err
}

type GetUsageSnapshotsParams struct {
	Product string
	Limit   int64
}

const getUsageSnapshots = `
select runId, time, product, periodStart, periodEnd, includedVolume, totalUsage, usagePct, periodUsedPct
from UsageSnapshot
where ?1 = '' or product = ?1
order by time desc, product asc
limit ?2
`

func (q *Queries) GetUsageSnapshots(ctx context.Context, arg GetUsageSnapshotsParams) ([]UsageSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, getUsageSnapshots, arg.Product, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []UsageSnapshot
	for rows.Next() {
		var i UsageSnapshot
		if err := rows.Scan(
			&i.RunID,
			&i.Time,
			&i.Product,
			&i.PeriodStart,
			&i.PeriodEnd,
			&i.IncludedVolume,
			&i.TotalUsage,
			&i.UsagePct,
			&i.PeriodUsedPct,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getBillSnapshots = `
select runId, time, section, amount, unit
from BillSnapshot
order by time desc, section asc
limit ?
`

func (q *Queries) GetBillSnapshots(ctx context.Context, limit int64) ([]BillSnapshot, error) {
	rows, err := q.db.QueryContext(ctx, getBillSnapshots, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []BillSnapshot
	for rows.Next() {
		var i BillSnapshot
		if err := rows.Scan(
			&i.RunID,
			&i.Time,
			&i.Section,
			&i.Amount,
			&i.Unit,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type AlertSentParams struct {
	Product     string
	PeriodStart string
}

const alertSent = `
select count(*) from AlertSent where product = ? and periodStart = ?
`

func (q *Queries) AlertSent(ctx context.Context, arg AlertSentParams) (int64, error) {
	row := q.db.QueryRowContext(ctx, alertSent, arg.Product, arg.PeriodStart)
	var count int64
	err := row.Scan(&count)
	return count, err
}

type MarkAlertSentParams struct {
	Product     string
	PeriodStart string
	Time        int64
}

const markAlertSent = `
insert into AlertSent(product, periodStart, time)
values (?, ?, ?)
on conflict do nothing
`

func (q *Queries) MarkAlertSent(ctx context.Context, arg MarkAlertSentParams) error {
	_, err := q.db.ExecContext(ctx, markAlertSent, arg.Product, arg.PeriodStart, arg.Time)
	return err
}
