// ddbtable reads DynamoDB items into a table whose columns are inferred from
// the items, and prints it.
//
// # Installation
//
//	go install github.com/acksell/ddbtable/dynamodb/cmd/ddbtable@latest
//
// # Commands
//
//	ddbtable scan     Scan a table or index
//	ddbtable query    Query one partition
//	ddbtable get      Batch get items by key
//	ddbtable whoami   Show the AWS identity in use
//
// Items rarely share one shape, so every column gets the narrowest kind that
// holds all of its values: a column that is a number in some items and a
// string in others prints as ANY, and items without the attribute leave the
// cell empty.
//
//	ddbtable scan --table users --format schema
//	ddbtable query --table orders --pk user#1 --begins-with order#
//	ddbtable get --table users user#1=profile user#2=profile
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

const version = "0.1.0"

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "scan":
		err = runScan(ctx, args)
	case "query":
		err = runQuery(ctx, args)
	case "get", "batch-get":
		err = runGet(ctx, args)
	case "whoami":
		err = runWhoami(ctx, args)
	case "help", "-h", "--help":
		printUsage()
		return
	case "version", "-v", "--version":
		fmt.Printf("ddbtable version %s\n", version)
		return
	default:
		fmt.Fprintf(os.Stderr, "ddbtable: unknown command %q\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil && !errors.Is(err, context.Canceled) {
		fmt.Fprintf(os.Stderr, "ddbtable %s: %v\n", cmd, err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`ddbtable - DynamoDB items as tables

Usage:
  ddbtable <command> [flags]

Commands:
  scan     Scan a table or index
  query    Query one partition
  get      Batch get items by key
  whoami   Show the AWS identity in use
  version  Print the version

Output formats (--format):
  csv      Header row of column names, one line per item (default)
  jsonl    One JSON object per item, columns in table order
  schema   Inferred columns and kinds as YAML

Configuration (optional):
  Create ddbtable.yaml in the current directory or any parent:

    region: eu-west-1
    profile: dev
    endpoint: http://localhost:8000   # DynamoDB Local
    capacity: 500                     # rows buffered before each flush
    dataDir: ./.ddbtable              # spill tables to BadgerDB here
    format: jsonl

  Flags override the file.

Run 'ddbtable <command> --help' for more information on a command.`)
}
