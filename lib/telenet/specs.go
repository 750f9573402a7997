package telenet

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"path"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const report_specs_fetch = "specs.fetch"

// specCache memoizes catalog documents by the last path segment of their url for the
// lifetime of the client, entries are never invalidated.
type specCache struct {
	entries map[string]Record
}

func newSpecCache() specCache {
	return specCache{entries: map[string]Record{}}
}

func specKey(specURL string) string {
	parsed, err := url.Parse(specURL)
	if err != nil {
		return specURL
	}
	return path.Base(parsed.Path)
}

func (c *Client) productCatalog(ctx context.Context, specURL string) (Record, error) {
	key := specKey(specURL)
	if cached, ok := c.specs.entries[key]; ok {
		return cached, nil
	}

	ctx, span := tracer.Start(ctx, "client:productCatalog")
	defer span.End()
	span.SetAttributes(attribute.String("telenet.spec_url", specURL))

	res, err := c.session.request(ctx, specURL, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch catalog")
		return nil, fmt.Errorf("fetch product spec: %w", err)
	}
	if res.StatusCode() != http.StatusOK {
		err := &ServiceError{StatusCode: res.StatusCode(), URL: finalURL(res), Message: "product spec unavailable"}
		c.tel.ReportBroken(report_specs_fetch, err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var catalog Record
	err = json.Unmarshal(res.Body(), &catalog)
	if err != nil {
		c.tel.ReportBroken(report_specs_fetch, err, specURL)
		return nil, &ServiceError{StatusCode: res.StatusCode(), URL: finalURL(res), Message: fmt.Sprintf("malformed json: %s", err)}
	}
	c.specs.entries[key] = catalog
	return catalog, nil
}

func (c *Client) productSpecs(ctx context.Context, specURL string, isChild bool) (ProductSpecs, error) {
	catalog, err := c.productCatalog(ctx, specURL)
	if err != nil {
		return ProductSpecs{}, err
	}
	product := catalog.Record("product")
	characteristics := product.Record("characteristics")

	specs := ProductSpecs{
		ProductType: product.String("producttype"),
	}
	if characteristics.Has("service_category_limit") {
		specs.IncludedVolume = characteristics.Record("service_category_limit")
	}
	if !isChild {
		specs.Price = productPrice(product)
		specs.PriceType = product["priceType"]
	}
	for _, lc := range product.Records("localizedcontent") {
		if lc.String("locale") == c.language {
			specs.Name = lc.String("name")
			break
		}
	}
	return specs, nil
}

func productPrice(product Record) any {
	characteristics := product.Record("characteristics")
	if characteristics.Has("salespricevatincl") {
		return characteristics["salespricevatincl"]
	}
	return false
}
