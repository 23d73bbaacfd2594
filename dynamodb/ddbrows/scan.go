package ddbrows

import (
	"context"
	"fmt"

	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

// ScanRequest describes a full table or index scan.
type ScanRequest struct {
	Table string
	// Index scans a secondary index instead of the base table.
	Index string

	// Filter is applied server side. Leave unset to return every item.
	Filter expression.ConditionBuilder
	// Projection limits the returned attributes.
	Projection []string

	// PageSize is the per-request Limit sent to DynamoDB. Limit stops the
	// scan after this many rows; zero means no limit.
	PageSize int32
	Limit    int

	// Segment and TotalSegments select one slice of a parallel scan.
	Segment       int32
	TotalSegments int32

	// KeyAttributes become the leading columns.
	KeyAttributes  []string
	ConsistentRead bool
}

// Scan pages through the table and returns every item as a row.
func (r *Reader) Scan(ctx context.Context, req ScanRequest) (frame.Table, error) {
	input := &dynamodb.ScanInput{
		TableName: aws.String(req.Table),
	}
	if req.Index != "" {
		input.IndexName = aws.String(req.Index)
	}
	if req.PageSize > 0 {
		input.Limit = aws.Int32(req.PageSize)
	}
	if req.TotalSegments > 0 {
		input.Segment = aws.Int32(req.Segment)
		input.TotalSegments = aws.Int32(req.TotalSegments)
	}
	if req.ConsistentRead {
		input.ConsistentRead = aws.Bool(true)
	}

	expr, ok, err := buildExpression(nil, req.Filter, req.Projection)
	if err != nil {
		return nil, err
	}
	if ok {
		input.FilterExpression = expr.Filter()
		input.ProjectionExpression = expr.Projection()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	c := r.collect(req.KeyAttributes...)
	pages := 0
	for {
		if err := ctx.Err(); err != nil {
			c.discard()
			return nil, err
		}
		res, err := withRetry(ctx, r, "scan", func() (*dynamodb.ScanOutput, error) {
			return r.client.Scan(ctx, input)
		})
		if err != nil {
			c.discard()
			return nil, err
		}
		pages++

		items := res.Items
		if req.Limit > 0 && c.n+len(items) > req.Limit {
			items = items[:req.Limit-c.n]
		}
		if err := c.add(ctx, items...); err != nil {
			c.discard()
			return nil, err
		}
		if len(res.LastEvaluatedKey) == 0 || (req.Limit > 0 && c.n >= req.Limit) {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}
	r.log.DebugContext(ctx, "scan done", "table", req.Table, "pages", pages, "rows", c.n)
	return c.table()
}

// QueryRequest describes a query on one partition.
type QueryRequest struct {
	Table string
	// Index queries a secondary index. Index queries are eventually
	// consistent, since global secondary indexes reject consistent reads.
	Index string

	// PartitionKey is the partition key attribute name, PartitionValue the
	// value to match.
	PartitionKey   string
	PartitionValue any

	// SortKey is the sort key attribute name. SortCondition is optional; it
	// receives SortKey and returns the key condition to apply to it.
	SortKey       string
	SortCondition SortKeyCondition

	Filter     expression.ConditionBuilder
	Projection []string
	Descending bool
	PageSize   int32
	Limit      int

	// EventuallyConsistent disables strongly consistent reads on the base
	// table.
	EventuallyConsistent bool
}

// Query pages through one partition and returns every item as a row. Key
// attributes lead the column order.
func (r *Reader) Query(ctx context.Context, req QueryRequest) (frame.Table, error) {
	if req.PartitionKey == "" {
		return nil, fmt.Errorf("query %s: partition key name is required", req.Table)
	}
	key := expression.Key(req.PartitionKey).Equal(expression.Value(req.PartitionValue))
	if req.SortCondition != nil {
		if req.SortKey == "" {
			return nil, fmt.Errorf("query %s: sort condition without sort key name", req.Table)
		}
		key = key.And(req.SortCondition(req.SortKey))
	}

	expr, _, err := buildExpression(&key, req.Filter, req.Projection)
	if err != nil {
		return nil, err
	}
	input := &dynamodb.QueryInput{
		TableName:                 aws.String(req.Table),
		KeyConditionExpression:    expr.KeyCondition(),
		FilterExpression:          expr.Filter(),
		ProjectionExpression:      expr.Projection(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ConsistentRead:            aws.Bool(!req.EventuallyConsistent && req.Index == ""),
		ScanIndexForward:          aws.Bool(!req.Descending),
	}
	if req.Index != "" {
		input.IndexName = aws.String(req.Index)
	}
	if req.PageSize > 0 {
		input.Limit = aws.Int32(req.PageSize)
	}

	leading := []string{req.PartitionKey}
	if req.SortKey != "" {
		leading = append(leading, req.SortKey)
	}
	c := r.collect(leading...)
	for {
		if err := ctx.Err(); err != nil {
			c.discard()
			return nil, err
		}
		res, err := withRetry(ctx, r, "query", func() (*dynamodb.QueryOutput, error) {
			return r.client.Query(ctx, input)
		})
		if err != nil {
			c.discard()
			return nil, err
		}
		items := res.Items
		if req.Limit > 0 && c.n+len(items) > req.Limit {
			items = items[:req.Limit-c.n]
		}
		if err := c.add(ctx, items...); err != nil {
			c.discard()
			return nil, err
		}
		if len(res.LastEvaluatedKey) == 0 || (req.Limit > 0 && c.n >= req.Limit) {
			break
		}
		input.ExclusiveStartKey = res.LastEvaluatedKey
	}
	return c.table()
}

// buildExpression combines the optional parts of a read. ok is false when
// none were set.
func buildExpression(key *expression.KeyConditionBuilder, filter expression.ConditionBuilder, projection []string) (expr expression.Expression, ok bool, err error) {
	b := expression.NewBuilder()
	if key != nil {
		b = b.WithKeyCondition(*key)
		ok = true
	}
	if filter.IsSet() {
		b = b.WithFilter(filter)
		ok = true
	}
	if len(projection) > 0 {
		b = b.WithProjection(projectionOf(projection))
		ok = true
	}
	if !ok {
		return expression.Expression{}, false, nil
	}
	expr, err = b.Build()
	if err != nil {
		return expression.Expression{}, false, fmt.Errorf("build expression: %w", err)
	}
	return expr, true, nil
}

func projectionOf(attrs []string) expression.ProjectionBuilder {
	proj := expression.NamesList(expression.Name(attrs[0]))
	for _, a := range attrs[1:] {
		proj = proj.AddNames(expression.Name(a))
	}
	return proj
}
