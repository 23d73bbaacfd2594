package ddbrows

import (
	"context"
	"fmt"
	"sort"

	"github.com/acksell/ddbtable/dynamodb/attrconv"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// BatchGetLimit is the most keys a single BatchGetItem call accepts.
const BatchGetLimit = 100

// BatchGet fetches the items with the given keys. Keys are sent in chunks of
// [BatchGetLimit]; unprocessed keys are retried with backoff. Keys that match
// no item produce no row, and rows follow the order DynamoDB returned them in,
// not the order of keys. Keys must be unique.
func (r *Reader) BatchGet(ctx context.Context, table string, keys []attrconv.Item) (frame.Table, error) {
	var leading []string
	if len(keys) > 0 {
		leading = keyAttributes(keys[0])
	}
	c := r.collect(leading...)
	for start := 0; start < len(keys); start += BatchGetLimit {
		end := min(start+BatchGetLimit, len(keys))
		if err := r.batchGetChunk(ctx, c, table, keys[start:end]); err != nil {
			c.discard()
			return nil, err
		}
	}
	return c.table()
}

func (r *Reader) batchGetChunk(ctx context.Context, c *collector, table string, keys []attrconv.Item) error {
	pending := map[string]types.KeysAndAttributes{
		table: {Keys: keys},
	}
	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, err := withRetry(ctx, r, "batch get", func() (*dynamodb.BatchGetItemOutput, error) {
			return r.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{RequestItems: pending})
		})
		if err != nil {
			return err
		}
		if err := c.add(ctx, res.Responses[table]...); err != nil {
			return err
		}

		pending = res.UnprocessedKeys
		left := len(pending[table].Keys)
		if left == 0 {
			return nil
		}
		if round >= r.opts.maxRetries {
			return fmt.Errorf("batch get %s: max retries (%d) exceeded: %d keys unprocessed", table, r.opts.maxRetries, left)
		}
		wait := r.opts.backoff(round + 1)
		r.log.DebugContext(ctx, "unprocessed keys, retrying", "table", table, "keys", left, "wait", wait)
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// keyAttributes lists the attribute names of a key, sorted.
func keyAttributes(key attrconv.Item) []string {
	names := make([]string, 0, len(key))
	for name := range key {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
