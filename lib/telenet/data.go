package telenet

// Data is everything GetData collected for the account. Products, Devices and Bills are
// keyed maps where later writes under the same key replace earlier ones.
type Data struct {
	System         string            `json:"telenet_system"`
	UserDetails    UserDetails       `json:"userdetails"`
	ContactDetails Record            `json:"contactdetails,omitempty"`
	Account        Record            `json:"account,omitempty"`
	Products       map[string]any    `json:"products"`
	Devices        map[string]Record `json:"devices"`
	Bills          map[string]any    `json:"bills"`
}

func newData(details UserDetails) *Data {
	return &Data{
		System:      details.System(),
		UserDetails: details,
		Products:    map[string]any{},
		Devices:     map[string]Record{},
		Bills:       map[string]any{},
	}
}

// ProductSpecs is the catalog information of a product.
type ProductSpecs struct {
	IncludedVolume Record `json:"included_volume,omitempty"`
	ProductType    string `json:"producttype"`
	// Price and PriceType are only resolved for top-level products, Price is false when
	// the catalog carries none.
	Price     any    `json:"price,omitempty"`
	PriceType any    `json:"priceType,omitempty"`
	Name      string `json:"name,omitempty"`
}

// ProductEntry is stored for products of the next-gen backend.
type ProductEntry struct {
	Specs ProductSpecs `json:"specs"`
}

// InternetUsage is the consumption of an internet line over its current period,
// volumes are in GiB.
type InternetUsage struct {
	LastUpdated           string    `json:"last_updated"`
	PeriodStart           string    `json:"periodstart"`
	PeriodEnd             string    `json:"periodend"`
	IncludedVolume        float64   `json:"included_volume"`
	PeakUsage             float64   `json:"peak_usage"`
	WiFreeUsage           float64   `json:"wifree_usage"`
	OffPeakUsage          float64   `json:"offpeak_usage"`
	TotalUsage            float64   `json:"total_usage"`
	TotalUsageWithOffPeak float64   `json:"total_usage_with_offpeak"`
	Squeezed              any       `json:"squeezed"`
	PeriodUsedPercentage  float64   `json:"period_used_percentage"`
	UsagePercentage       float64   `json:"usage_pct"`
	PeriodLengthDays      int       `json:"period_length_days"`
	DailyPeak             []float64 `json:"daily_peak"`
	DailyOffPeak          []float64 `json:"daily_off_peak"`
	DailyDate             []string  `json:"daily_date"`
}

// TVProduct carries the identifying fields of a tv subscription.
type TVProduct struct {
	Identifier           string       `json:"identifier"`
	CustomerProductID    string       `json:"customerproductid"`
	AccountNumber        string       `json:"accountnumber"`
	Label                string       `json:"label"`
	RateClassDescription string       `json:"rateclassdescription"`
	Specs                ProductSpecs `json:"specs"`
}

// Invoices are the unpaid bills of a legacy account, amounts in Unit.
type Invoices struct {
	Unpaid float64  `json:"unpaid"`
	Unit   string   `json:"unit"`
	Data   []Record `json:"data"`
}

// UnbilledUsage is usage billed with the next invoice, ex. pay-per-view on tv.
type UnbilledUsage struct {
	Total float64  `json:"total"`
	Unit  string   `json:"unit"`
	Data  []Record `json:"data"`
}

const (
	BillInvoices = "invoices"
	BillTV       = "dtv"
)

// InternetUsages returns the internet usage entries of Products keyed by line.
func (d *Data) InternetUsages() map[string]InternetUsage {
	out := map[string]InternetUsage{}
	for k, v := range d.Products {
		usage, ok := v.(InternetUsage)
		if ok {
			out[k] = usage
		}
	}
	return out
}

// Invoices returns the unpaid invoices section, if the account has one.
func (d *Data) Invoices() (Invoices, bool) {
	v, ok := d.Bills[BillInvoices].(Invoices)
	return v, ok
}

// UnbilledTV returns the unbilled tv usage section, if the account has one.
func (d *Data) UnbilledTV() (UnbilledUsage, bool) {
	v, ok := d.Bills[BillTV].(UnbilledUsage)
	return v, ok
}
