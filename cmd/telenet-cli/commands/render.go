package commands

import (
	"fmt"
	"io"
	"sort"
	"telenetapi/lib/telenet"
	"telenetapi/lib/usagestore"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

func newTable(w io.Writer, title string) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetTitle(title)
	t.SetStyle(table.StyleRounded)
	return t
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func renderData(w io.Writer, data *telenet.Data) {
	usages := data.InternetUsages()
	if len(usages) > 0 {
		t := newTable(w, "Internet")
		t.AppendHeader(table.Row{"Line", "Used (GB)", "Included (GB)", "Usage", "Period", "Period passed", "Squeezed"})
		for _, line := range sortedKeys(usages) {
			usage := usages[line]
			t.AppendRow(table.Row{
				line,
				usage.TotalUsage,
				usage.IncludedVolume,
				fmt.Sprintf("%.1f%%", usage.UsagePercentage),
				fmt.Sprintf("%s - %s", usage.PeriodStart, usage.PeriodEnd),
				fmt.Sprintf("%.1f%%", usage.PeriodUsedPercentage),
				usage.Squeezed,
			})
		}
		t.Render()
	}

	products := newTable(w, "Products")
	products.AppendHeader(table.Row{"Identifier", "Kind", "Name"})
	for _, id := range sortedKeys(data.Products) {
		switch p := data.Products[id].(type) {
		case telenet.InternetUsage:
			products.AppendRow(table.Row{id, "internet", ""})
		case telenet.TVProduct:
			products.AppendRow(table.Row{id, "tv", p.Specs.Name})
		case telenet.ProductEntry:
			products.AppendRow(table.Row{id, p.Specs.ProductType, p.Specs.Name})
		}
	}
	products.Render()

	if len(data.Devices) > 0 {
		t := newTable(w, "Devices")
		t.AppendHeader(table.Row{"Key", "Type", "Model"})
		for _, key := range sortedKeys(data.Devices) {
			device := data.Devices[key]
			t.AppendRow(table.Row{key, device.String("type"), device.String("model")})
		}
		t.Render()
	}

	invoices, hasInvoices := data.Invoices()
	unbilled, hasUnbilled := data.UnbilledTV()
	if hasInvoices || hasUnbilled {
		t := newTable(w, "Bills")
		t.AppendHeader(table.Row{"Section", "Amount", "Unit", "Entries"})
		if hasInvoices {
			t.AppendRow(table.Row{"unpaid invoices", invoices.Unpaid, invoices.Unit, len(invoices.Data)})
		}
		if hasUnbilled {
			t.AppendRow(table.Row{"unbilled tv", unbilled.Total, unbilled.Unit, len(unbilled.Data)})
		}
		t.Render()
	}
}

func renderHistory(w io.Writer, usages []usagestore.UsageRecord, bills []usagestore.BillRecord) {
	t := newTable(w, "Usage history")
	t.AppendHeader(table.Row{"Time", "Line", "Used (GB)", "Included (GB)", "Usage", "Period passed"})
	for _, u := range usages {
		t.AppendRow(table.Row{
			u.Time.Format(time.DateTime),
			u.Product,
			u.TotalUsage,
			u.IncludedVolume,
			fmt.Sprintf("%.1f%%", u.UsagePct),
			fmt.Sprintf("%.1f%%", u.PeriodUsedPct),
		})
	}
	t.Render()

	if len(bills) == 0 {
		return
	}
	b := newTable(w, "Bill history")
	b.AppendHeader(table.Row{"Time", "Section", "Amount", "Unit"})
	for _, bill := range bills {
		b.AppendRow(table.Row{bill.Time.Format(time.DateTime), bill.Section, bill.Amount, bill.Unit})
	}
	b.Render()
}
