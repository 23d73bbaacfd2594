package ddbrows

import (
	"context"
	"fmt"
	"sort"

	"github.com/acksell/ddbtable/dynamodb/attrconv"
	"github.com/acksell/ddbtable/dynamodb/frame"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// PutItems writes items one PutItem call at a time. With returnOld the
// result holds the overwritten images (items that replaced nothing produce
// no row); otherwise it holds the written items.
func (r *Reader) PutItems(ctx context.Context, table string, items []attrconv.Item, returnOld bool) (frame.Table, error) {
	c := r.collect()
	for i, item := range items {
		if err := ctx.Err(); err != nil {
			c.discard()
			return nil, err
		}
		input := &dynamodb.PutItemInput{
			TableName: aws.String(table),
			Item:      item,
		}
		if returnOld {
			input.ReturnValues = types.ReturnValueAllOld
		}
		res, err := withRetry(ctx, r, "put item", func() (*dynamodb.PutItemOutput, error) {
			return r.client.PutItem(ctx, input)
		})
		if err != nil {
			c.discard()
			return nil, fmt.Errorf("item %d: %w", i, err)
		}

		out := item
		if returnOld {
			out = res.Attributes
		}
		if len(out) == 0 {
			continue
		}
		if err := c.add(ctx, out); err != nil {
			c.discard()
			return nil, err
		}
	}
	return c.table()
}

// UpdateRequest updates one item.
type UpdateRequest struct {
	Key attrconv.Item

	// Set assigns attribute values, Remove deletes attributes.
	Set    map[string]any
	Remove []string

	// Condition makes the update conditional.
	Condition expression.ConditionBuilder
}

func (u UpdateRequest) build() (expression.Expression, error) {
	if len(u.Set) == 0 && len(u.Remove) == 0 {
		return expression.Expression{}, fmt.Errorf("update has nothing to set or remove")
	}
	names := make([]string, 0, len(u.Set))
	for name := range u.Set {
		names = append(names, name)
	}
	sort.Strings(names)

	var update expression.UpdateBuilder
	for _, name := range names {
		update = update.Set(expression.Name(name), expression.Value(u.Set[name]))
	}
	for _, name := range u.Remove {
		update = update.Remove(expression.Name(name))
	}

	b := expression.NewBuilder().WithUpdate(update)
	if u.Condition.IsSet() {
		b = b.WithCondition(u.Condition)
	}
	return b.Build()
}

// UpdateItems applies each update and returns the updated items (ALL_NEW
// images) as rows. Key attributes lead the column order.
func (r *Reader) UpdateItems(ctx context.Context, table string, updates []UpdateRequest) (frame.Table, error) {
	var leading []string
	if len(updates) > 0 {
		leading = keyAttributes(updates[0].Key)
	}
	c := r.collect(leading...)
	for i, u := range updates {
		if err := ctx.Err(); err != nil {
			c.discard()
			return nil, err
		}
		expr, err := u.build()
		if err != nil {
			c.discard()
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		input := &dynamodb.UpdateItemInput{
			TableName:                 aws.String(table),
			Key:                       u.Key,
			UpdateExpression:          expr.Update(),
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ReturnValues:              types.ReturnValueAllNew,
		}
		res, err := withRetry(ctx, r, "update item", func() (*dynamodb.UpdateItemOutput, error) {
			return r.client.UpdateItem(ctx, input)
		})
		if err != nil {
			c.discard()
			return nil, fmt.Errorf("update %d: %w", i, err)
		}
		if err := c.add(ctx, res.Attributes); err != nil {
			c.discard()
			return nil, err
		}
	}
	return c.table()
}
