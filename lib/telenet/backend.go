package telenet

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	SystemLegacy  = "TELENET_LEGACY"
	SystemNextGen = "NETCRACKER"
)

// backend is the account system specific half of the client: how calls are addressed,
// what a full fetch consists of and how products are specialized.
type backend interface {
	system() string
	// endpoint returns the url of the call, allowed is false when the call may not be made.
	endpoint(call Call) (target string, allowed bool)
	fetchAll(ctx context.Context, data *Data) error
	specialize(ctx context.Context, data *Data, product Record, specs ProductSpecs) error
}

func (c *Client) selectBackend(system string) (backend, error) {
	switch system {
	case SystemLegacy:
		return legacyBackend{c: c}, nil
	case SystemNextGen:
		return nextGenBackend{c: c}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, system)
}

// GetData collects products, devices and bills of the account. Login must have
// succeeded before.
func (c *Client) GetData(ctx context.Context) (*Data, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	ctx, span := tracer.Start(ctx, "client:GetData")
	defer span.End()

	if !c.session.authenticated() {
		return nil, ErrNotAuthenticated
	}
	data := newData(c.session.userDetails)
	span.SetAttributes(attribute.String("telenet.system", data.System))

	if c.backend == nil {
		err := fmt.Errorf("%w: %q", ErrUnknownBackend, data.System)
		span.SetStatus(codes.Error, err.Error())
		return data, err
	}

	err := c.backend.fetchAll(ctx, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "fetch failed")
		return data, err
	}
	c.tel.ReportCount("get-data.products", int64(len(data.Products)))
	return data, nil
}
