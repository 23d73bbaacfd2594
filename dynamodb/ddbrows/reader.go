// Package ddbrows runs DynamoDB reads and writes and collects the returned
// items into tables whose schema is inferred from the items themselves.
//
// Every call starts a fresh [tablebuilder.Builder]; rows are named Row0,
// Row1, ... in the order DynamoDB returned them.
package ddbrows

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/acksell/ddbtable/dynamodb/attrconv"
	"github.com/acksell/ddbtable/dynamodb/ddbiface"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/acksell/ddbtable/dynamodb/tablebuilder"
)

type Reader struct {
	client ddbiface.Client
	opts   options
	log    *slog.Logger
}

func New(client ddbiface.Client, opts ...Option) *Reader {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.DiscardHandler)
	}
	if o.backoff == nil {
		o.backoff = DefaultBackoff
	}
	return &Reader{
		client: client,
		opts:   o,
		log:    o.logger,
	}
}

// collector feeds items into one builder.
type collector struct {
	b       *tablebuilder.Builder
	log     *slog.Logger
	leading []string
	n       int
}

func (r *Reader) collect(leading ...string) *collector {
	b := tablebuilder.New(r.opts.sink,
		tablebuilder.WithCapacity(r.opts.capacity),
		tablebuilder.WithLogger(r.log),
	)
	return &collector{b: b, log: r.log, leading: leading}
}

func (c *collector) add(ctx context.Context, items ...attrconv.Item) error {
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := attrconv.RecordFromItem(item, c.leading...)
		if err != nil {
			return fmt.Errorf("row %d: %w", c.n, err)
		}
		if err := c.b.AddRow(rowID(c.n), rec); err != nil {
			return err
		}
		c.n++
	}
	return nil
}

func (c *collector) table() (frame.Table, error) {
	if err := c.b.Close(); err != nil {
		return nil, err
	}
	t, err := c.b.Table()
	if err != nil {
		return nil, err
	}
	st := c.b.Stats()
	c.log.Debug("table built",
		"rows", st.Rows,
		"columns", st.Columns,
		"flushes", st.Flushes,
		"migrations", st.Migrations,
	)
	return t, nil
}

func rowID(n int) string {
	return fmt.Sprintf("Row%d", n)
}

// discard closes the builder after a failed call and frees whatever it
// already wrote. A builder broken by a sink error has freed its sink itself.
func (c *collector) discard() {
	if err := c.b.Close(); err != nil {
		return
	}
	t, err := c.b.Table()
	if err != nil {
		return
	}
	if rel, ok := t.(frame.Releaser); ok {
		_ = rel.Release()
	}
}
