package ddbrows

import "github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"

// SortKeyCondition builds a key condition on the named sort key.
type SortKeyCondition func(skName string) expression.KeyConditionBuilder

// SortEquals matches items whose sort key equals v.
func SortEquals[T any](v T) SortKeyCondition {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyEqual(expression.Key(skName), expression.Value(v))
	}
}

// BeginsWith matches items whose sort key starts with prefix.
func BeginsWith(prefix string) SortKeyCondition {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyBeginsWith(expression.Key(skName), prefix)
	}
}

// Between matches start <= sk <= end.
func Between[T any](start, end T) SortKeyCondition {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyBetween(expression.Key(skName), expression.Value(start), expression.Value(end))
	}
}

func GreaterThan[T any](v T) SortKeyCondition {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyGreaterThan(expression.Key(skName), expression.Value(v))
	}
}

func LessThan[T any](v T) SortKeyCondition {
	return func(skName string) expression.KeyConditionBuilder {
		return expression.KeyLessThan(expression.Key(skName), expression.Value(v))
	}
}
