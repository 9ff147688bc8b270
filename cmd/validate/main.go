package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

func main() {
	strict := flag.Bool("strict", false, "treat warnings as errors")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [-strict] <content-dir | category.yaml>\n", os.Args[0])
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(1)
	}

	target := flag.Arg(0)
	fmt.Printf("Validating %s...\n", target)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	l := &Linter{}
	var err error
	if strings.HasSuffix(target, ".yaml") || strings.HasSuffix(target, ".yml") {
		err = l.LintCategoryFile(context.Background(), target)
	} else {
		err = l.LintDir(context.Background(), target, log)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		os.Exit(1)
	}

	for _, w := range l.Warnings {
		fmt.Println("warning: " + w)
	}
	if len(l.Errors) > 0 || (*strict && len(l.Warnings) > 0) {
		fmt.Fprintf(os.Stderr, "validation errors in %s:\n", target)
		for _, e := range l.Errors {
			fmt.Fprintln(os.Stderr, "  - "+e)
		}
		os.Exit(1)
	}

	fmt.Println("Content is valid!")
}
