package telenet

import (
	"context"
	"fmt"
	"math"
	"strings"
)

const (
	report_legacy_accounts = "legacy.accounts"
	report_legacy_bills    = "legacy.bills"
	report_legacy_internet = "legacy.internet-usage"
	report_legacy_tv       = "legacy.tv"
)

// legacyBackend serves TELENET_LEGACY accounts through the query style public endpoint,
// services double as scopes that must have been granted at login.
type legacyBackend struct {
	c *Client
}

func (legacyBackend) system() string {
	return SystemLegacy
}

func (b legacyBackend) endpoint(call Call) (string, bool) {
	scope, missing := b.c.session.missingScope(call.scopes())
	if missing {
		b.c.tel.ReportBroken(
			report_ocapi_scope,
			fmt.Errorf("service %s is not available in your scopes", call.Service),
			scope,
		)
		return "", false
	}
	return fmt.Sprintf("%s/?p=%s", b.c.env.OcapiPublic, call.Service), true
}

type legacyAccounts struct {
	Accounts []Record `json:"accounts"`
}

type legacyBills struct {
	Bills []struct {
		Bills []Record `json:"bills"`
	} `json:"bills"`
}

type legacyProductHolding struct {
	Products []Record `json:"customerproductholding"`
}

func (b legacyBackend) fetchAll(ctx context.Context, data *Data) error {
	var contact Record
	_, err := b.c.ocapiDecode(ctx, Call{Service: "contactdetails"}, &contact)
	if err != nil {
		return fmt.Errorf("contactdetails: %w", err)
	}
	data.ContactDetails = contact

	var accounts legacyAccounts
	ok, err := b.c.ocapiDecode(ctx, Call{Service: "accounts"}, &accounts)
	if err != nil {
		return fmt.Errorf("accounts: %w", err)
	}
	if !ok {
		b.c.tel.ReportWarning(report_legacy_accounts, "accounts unavailable")
	}
	for _, account := range accounts.Accounts {
		data.Account = account
	}

	var bills legacyBills
	ok, err = b.c.ocapiDecode(ctx, Call{Service: "bills"}, &bills)
	if err != nil {
		return fmt.Errorf("bills: %w", err)
	}
	if ok {
		invoices, err := unpaidInvoices(bills)
		if err != nil {
			b.c.tel.ReportBroken(report_legacy_bills, err)
			return fmt.Errorf("bills: %w", err)
		}
		data.Bills[BillInvoices] = invoices
	}

	var holding legacyProductHolding
	ok, err = b.c.ocapiDecode(ctx, Call{Service: "customerproductholding"}, &holding)
	if err != nil {
		return fmt.Errorf("customerproductholding: %w", err)
	}
	if !ok {
		b.c.tel.ReportWarning("legacy.product-holding", "product holding unavailable")
	}
	for _, product := range holding.Products {
		err := b.c.walkProduct(ctx, data, product, false)
		if err != nil {
			return err
		}
	}
	return nil
}

func unpaidInvoices(bills legacyBills) (Invoices, error) {
	invoices := Invoices{Unit: "EURO", Data: []Record{}}
	for _, group := range bills.Bills {
		for _, bill := range group.Bills {
			if bill.Bool("paid") {
				continue
			}
			amount, err := bill.Record("billamount").Amount("amount")
			if err != nil {
				return Invoices{}, fmt.Errorf("unpaid bill: %w", err)
			}
			invoices.Unpaid += amount
			invoices.Data = append(invoices.Data, bill)
		}
	}
	invoices.Unpaid = round2(invoices.Unpaid)
	return invoices, nil
}

// productType is the label prefix, ex. "internet" for "internet.fibernet".
func productType(product Record) string {
	label := product.String("label")
	prefix, _, _ := strings.Cut(label, ".")
	return prefix
}

func (b legacyBackend) specialize(ctx context.Context, data *Data, product Record, specs ProductSpecs) error {
	typ := productType(product)
	b.c.tel.ReportDebug("legacy product type", typ)

	switch typ {
	case "internet":
		return b.internet(ctx, data, specs)
	case "tv":
		return b.tv(ctx, data, product, specs)
	}
	return nil
}

type legacyInternet struct {
	InternetUsage []Record `json:"internetusage"`
	ModemDetails  []Record `json:"modemdetails"`
	Modems        []Record `json:"modems"`
}

func (b legacyBackend) internet(ctx context.Context, data *Data, specs ProductSpecs) error {
	var res legacyInternet
	ok, err := b.c.ocapiDecode(ctx, Call{Service: "internetusage,modemdetails,modems"}, &res)
	if err != nil {
		return fmt.Errorf("internet usage: %w", err)
	}
	if !ok {
		b.c.tel.ReportWarning(report_legacy_internet, "internet usage unavailable")
		return nil
	}

	lines := map[string]bool{}
	for _, entry := range res.InternetUsage {
		line := entry.String("businessidentifier")
		usage, err := b.internetUsage(entry, specs)
		if err != nil {
			b.c.tel.ReportBroken(report_legacy_internet, err, line)
			return fmt.Errorf("internet usage %s: %w", line, err)
		}
		data.Products[line] = usage
		lines[line] = true
	}

	for _, modem := range res.ModemDetails {
		if !lines[modem.String("internetlineidentifier")] {
			continue
		}
		device := modem.Without("installationaddress")
		device["type"] = "Modem"
		data.Devices[device.String("cableroutername")] = device
	}
	for _, modem := range res.Modems {
		if !lines[modem.String("internetlineidentifier")] {
			continue
		}
		device := modem.Without("address")
		settings := modem.Records("settings")
		if len(settings) > 0 && settings[0].String("passphrase") != "" {
			device["passphrase"] = WifiQRCode(settings[0].String("ssid"), settings[0].String("passphrase"))
		}
		device["type"] = "Wifi modem"
		data.Devices[device.String("hardware")] = device
	}
	return nil
}

func (b legacyBackend) internetUsage(entry Record, specs ProductSpecs) (InternetUsage, error) {
	periods := entry.Records("availableperiods")
	if len(periods) == 0 {
		return InternetUsage{}, fmt.Errorf("no available period")
	}
	usages := periods[0].Records("usages")
	if len(usages) == 0 {
		return InternetUsage{}, fmt.Errorf("no usage in period")
	}
	usage := usages[0]
	total := usage.Record("totalusage")

	var included float64
	switch {
	case specs.IncludedVolume.Has("value"):
		included = math.Trunc(specs.IncludedVolume.Float("value"))
	case usage.Has("includedvolume"):
		included = KBToGB(usage.Float("includedvolume") + usage.Record("extendedvolume").Float("volume"))
	}

	peak := total.Float("peak")
	offpeak := total.Float("offpeak")
	wifree := total.Float("wifree")
	consumed := KBToGB(peak + offpeak + wifree)

	var usagePct float64
	if included > 0 {
		usagePct = round1(100 * consumed / included)
	}

	start, err := ParsePeriodTimestamp(usage.String("periodstart"))
	if err != nil {
		return InternetUsage{}, fmt.Errorf("period start: %w", err)
	}
	end, err := ParsePeriodTimestamp(usage.String("periodend"))
	if err != nil {
		return InternetUsage{}, fmt.Errorf("period end: %w", err)
	}

	result := InternetUsage{
		LastUpdated:           entry.String("lastupdated"),
		PeriodStart:           usage.String("periodstart"),
		PeriodEnd:             usage.String("periodend"),
		IncludedVolume:        included,
		PeakUsage:             KBToGB(peak),
		WiFreeUsage:           KBToGB(wifree),
		OffPeakUsage:          KBToGB(offpeak),
		TotalUsage:            consumed,
		TotalUsageWithOffPeak: KBToGB(peak + offpeak),
		Squeezed:              usage["squeezed"],
		PeriodUsedPercentage:  PeriodUsedPercentage(start, end, b.c.time.Now()),
		UsagePercentage:       usagePct,
		PeriodLengthDays:      int(math.Floor(end.Sub(start).Hours() / 24)),
		DailyPeak:             []float64{},
		DailyOffPeak:          []float64{},
		DailyDate:             []string{},
	}
	for _, day := range total.Records("dailyusages") {
		if day.Has("peak") {
			result.DailyPeak = append(result.DailyPeak, KBToGB(day.Float("peak")))
			result.DailyOffPeak = append(result.DailyOffPeak, KBToGB(day.Float("offpeak")))
		}
		result.DailyDate = append(result.DailyDate, day.String("date"))
	}
	return result, nil
}

type legacyTV struct {
	Details []struct {
		Devices []Record `json:"devices"`
	} `json:"digitaltvdetails"`
	Unbilled []Record `json:"digitaltvunbilledusage"`
}

func (b legacyBackend) tv(ctx context.Context, data *Data, product Record, specs ProductSpecs) error {
	identifier := product.String("identifier")
	data.Products[identifier] = TVProduct{
		Identifier:           identifier,
		CustomerProductID:    product.String("customerproductid"),
		AccountNumber:        product.String("accountnumber"),
		Label:                product.String("label"),
		RateClassDescription: product.String("rateclassdescription"),
		Specs:                specs,
	}

	var res legacyTV
	ok, err := b.c.ocapiDecode(ctx, Call{Service: "digitaltvdetails,digitaltvunbilledusage"}, &res)
	if err != nil {
		return fmt.Errorf("tv: %w", err)
	}
	if !ok {
		b.c.tel.ReportWarning(report_legacy_tv, "tv details unavailable")
		return nil
	}

	for _, details := range res.Details {
		for _, device := range details.Devices {
			data.Devices[device.String("serialnumber")] = device
		}
	}

	unbilled := UnbilledUsage{Unit: "EURO", Data: []Record{}}
	for _, entry := range res.Unbilled {
		for key := range entry {
			if !strings.Contains(key, "usage") {
				continue
			}
			sub := entry.Record(key)
			if !sub.Has("total") {
				continue
			}
			total, err := sub.Amount("total")
			if err != nil {
				b.c.tel.ReportBroken(report_legacy_tv, err, key)
				return fmt.Errorf("tv unbilled %s: %w", key, err)
			}
			unbilled.Total += total
		}
		unbilled.Data = append(unbilled.Data, entry)
	}
	unbilled.Total = round2(unbilled.Total)
	data.Bills[BillTV] = unbilled
	return nil
}
