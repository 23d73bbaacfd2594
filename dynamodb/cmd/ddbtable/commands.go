package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/acksell/ddbtable/dynamodb/attrconv"
	"github.com/acksell/ddbtable/dynamodb/ddbrows"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/aws-sdk-go-v2/service/sts"
)

func newFlagSet(name, usage string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), usage)
		fmt.Fprintln(fs.Output(), "\nFlags:")
		fs.PrintDefaults()
	}
	return fs
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func runScan(ctx context.Context, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	fs := newFlagSet("scan", `ddbtable scan - Scan a table or index

Usage:
  ddbtable scan --table NAME [flags]`)
	g := addGlobalFlags(fs, cfg)
	var (
		table    = fs.String("table", "", "table name (required)")
		index    = fs.String("index", "", "secondary index to scan")
		keys     = fs.String("keys", "", "comma separated key attributes to put first")
		project  = fs.String("project", "", "comma separated attributes to return")
		limit    = fs.Int("limit", 0, "stop after this many items")
		pageSize = fs.Int("page-size", 0, "items per request")
		segment  = fs.Int("segment", 0, "segment of a parallel scan")
		segments = fs.Int("segments", 0, "total segments of a parallel scan")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return fmt.Errorf("--table is required")
	}

	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	tbl, err := s.reader.Scan(ctx, ddbrows.ScanRequest{
		Table:         *table,
		Index:         *index,
		Projection:    splitList(*project),
		PageSize:      int32(*pageSize),
		Limit:         *limit,
		Segment:       int32(*segment),
		TotalSegments: int32(*segments),
		KeyAttributes: splitList(*keys),
	})
	if err != nil {
		return err
	}
	return s.emit(os.Stdout, tbl)
}

func runQuery(ctx context.Context, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	fs := newFlagSet("query", `ddbtable query - Query one partition

Usage:
  ddbtable query --table NAME --pk VALUE [flags]`)
	g := addGlobalFlags(fs, cfg)
	var (
		table      = fs.String("table", "", "table name (required)")
		index      = fs.String("index", "", "secondary index to query")
		pkName     = fs.String("pk-name", "pk", "partition key attribute")
		pk         = fs.String("pk", "", "partition key value (required)")
		skName     = fs.String("sk-name", "sk", "sort key attribute")
		beginsWith = fs.String("begins-with", "", "only sort keys with this prefix")
		project    = fs.String("project", "", "comma separated attributes to return")
		limit      = fs.Int("limit", 0, "stop after this many items")
		desc       = fs.Bool("desc", false, "descending sort key order")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" || *pk == "" {
		return fmt.Errorf("--table and --pk are required")
	}

	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	req := ddbrows.QueryRequest{
		Table:          *table,
		Index:          *index,
		PartitionKey:   *pkName,
		PartitionValue: *pk,
		SortKey:        *skName,
		Projection:     splitList(*project),
		Descending:     *desc,
		Limit:          *limit,
	}
	if *beginsWith != "" {
		req.SortCondition = ddbrows.BeginsWith(*beginsWith)
	}
	tbl, err := s.reader.Query(ctx, req)
	if err != nil {
		return err
	}
	return s.emit(os.Stdout, tbl)
}

func runGet(ctx context.Context, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	fs := newFlagSet("get", `ddbtable get - Batch get items by key

Usage:
  ddbtable get --table NAME PK[=SK]...

Key values are strings.`)
	g := addGlobalFlags(fs, cfg)
	var (
		table  = fs.String("table", "", "table name (required)")
		pkName = fs.String("pk-name", "pk", "partition key attribute")
		skName = fs.String("sk-name", "sk", "sort key attribute")
	)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *table == "" {
		return fmt.Errorf("--table is required")
	}
	keys, err := parseKeys(fs.Args(), *pkName, *skName)
	if err != nil {
		return err
	}

	s, err := openSession(ctx, g)
	if err != nil {
		return err
	}
	defer s.Close()

	tbl, err := s.reader.BatchGet(ctx, *table, keys)
	if err != nil {
		return err
	}
	return s.emit(os.Stdout, tbl)
}

// parseKeys turns "pk" and "pk=sk" arguments into keys. Duplicates are
// dropped since BatchGetItem rejects them.
func parseKeys(args []string, pkName, skName string) ([]attrconv.Item, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("no keys given")
	}
	seen := make(map[string]bool, len(args))
	keys := make([]attrconv.Item, 0, len(args))
	for _, arg := range args {
		if seen[arg] {
			continue
		}
		seen[arg] = true

		pk, sk, hasSK := strings.Cut(arg, "=")
		if pk == "" {
			return nil, fmt.Errorf("key %q: empty partition key", arg)
		}
		key := attrconv.Item{pkName: &types.AttributeValueMemberS{Value: pk}}
		if hasSK {
			key[skName] = &types.AttributeValueMemberS{Value: sk}
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func runWhoami(ctx context.Context, args []string) error {
	cfg, err := LoadConfig()
	if err != nil {
		return err
	}
	fs := newFlagSet("whoami", `ddbtable whoami - Show the AWS identity in use

Usage:
  ddbtable whoami [--profile NAME] [--region NAME]`)
	g := addGlobalFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}

	awsCfg, err := loadAWSConfig(ctx, g.cfg)
	if err != nil {
		return err
	}
	out, err := sts.NewFromConfig(awsCfg).GetCallerIdentity(ctx, &sts.GetCallerIdentityInput{})
	if err != nil {
		return fmt.Errorf("get caller identity: %w", err)
	}
	fmt.Printf("account: %s\narn:     %s\nuser:    %s\nregion:  %s\n",
		aws.ToString(out.Account), aws.ToString(out.Arn), aws.ToString(out.UserId), awsCfg.Region)
	return nil
}
