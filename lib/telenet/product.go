package telenet

import (
	"context"
)

// walkProduct processes the children of a bundle before the bundle itself, the children
// record their usage and devices first so the parent may overwrite identically keyed entries.
func (c *Client) walkProduct(ctx context.Context, data *Data, product Record, isChild bool) error {
	if product.String("productType") == "bundle" {
		for _, child := range product.Records("children") {
			err := c.walkProduct(ctx, data, child, true)
			if err != nil {
				return err
			}
		}
	}

	specs, err := c.productSpecs(ctx, product.String("specurl"), isChild)
	if err != nil {
		return err
	}
	c.tel.ReportDebug(
		"product",
		product.String("identifier"),
		product.String("productType"),
		product.String("label"),
	)
	return c.backend.specialize(ctx, data, product, specs)
}
