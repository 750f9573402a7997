package telenet

import (
	"context"
	"fmt"
	"net/url"
)

// nextGenBackend serves NETCRACKER accounts through the rest style public api, the
// backend authorizes calls itself so no scopes are checked.
type nextGenBackend struct {
	c *Client
}

func (nextGenBackend) system() string {
	return SystemNextGen
}

func (b nextGenBackend) endpoint(call Call) (string, bool) {
	params := call.Params
	if params == nil {
		params = url.Values{}
	}
	return fmt.Sprintf(
		"%s/%s-service/v%d/%s?%s",
		b.c.env.OcapiPublicAPI,
		call.Service,
		call.version(),
		call.Method,
		params.Encode(),
	), true
}

func (b nextGenBackend) fetchAll(ctx context.Context, data *Data) error {
	var products []Record
	ok, err := b.c.ocapiDecode(ctx, Call{
		Service: "product",
		Method:  "products",
		Params:  url.Values{"status": {"ACTIVE,ACTIVATION_IN_PROGRESS"}},
	}, &products)
	if err != nil {
		return fmt.Errorf("products: %w", err)
	}
	if !ok {
		b.c.tel.ReportWarning("nextgen.products", "product list unavailable")
		return nil
	}

	for _, product := range products {
		err := b.c.walkProduct(ctx, data, product, false)
		if err != nil {
			return err
		}
	}
	return nil
}

func (nextGenBackend) specialize(_ context.Context, data *Data, product Record, specs ProductSpecs) error {
	data.Products[product.String("identifier")] = ProductEntry{Specs: specs}
	return nil
}
