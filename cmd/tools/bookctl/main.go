package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/zhouzirui/bookshelf/backend/pkg/client"
)

type options struct {
	mode    string
	addr    string
	id      int
	title   string
	author  string
	timeout time.Duration
	// set holds the flags given on the command line, so "-title=" can be told apart from no flag.
	set map[string]bool
}

func main() {
	log.SetFlags(0)

	if err := godotenv.Load(); err == nil {
		log.Printf("[INFO] loaded .env")
	}

	opts, err := parseFlags(os.Args[1:], os.Getenv("BOOKSHELF_ADDR"))
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("invalid arguments: %v", err)
	}

	c := client.New(opts.addr, opts.timeout)

	if opts.mode == "watch" {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		err := c.Watch(ctx, func(ev client.Event) error {
			return printJSON(os.Stdout, ev)
		})
		if err != nil && ctx.Err() == nil {
			log.Fatalf("watch failed: %v", err)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	result, err := run(ctx, c, opts)
	if err != nil {
		log.Fatalf("%s failed: %v", opts.mode, err)
	}
	if result != nil {
		if err := printJSON(os.Stdout, result); err != nil {
			log.Fatalf("failed to print result: %v", err)
		}
	}
}

func parseFlags(args []string, defaultAddr string) (options, error) {
	if defaultAddr == "" {
		defaultAddr = "http://localhost:8080"
	}

	var opts options
	fs := flag.NewFlagSet("bookctl", flag.ContinueOnError)
	fs.StringVar(&opts.mode, "mode", "list", "operation: list, search, get, create, update, delete or watch")
	fs.StringVar(&opts.addr, "addr", defaultAddr, "server base URL")
	fs.IntVar(&opts.id, "id", 0, "book id for get, update and delete")
	fs.StringVar(&opts.title, "title", "", "book title")
	fs.StringVar(&opts.author, "author", "", "book author")
	fs.DurationVar(&opts.timeout, "timeout", 10*time.Second, "request timeout")

	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() > 0 {
		return options{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	opts.set = make(map[string]bool)
	fs.Visit(func(f *flag.Flag) { opts.set[f.Name] = true })
	return opts, nil
}

func run(ctx context.Context, c *client.Client, opts options) (interface{}, error) {
	switch opts.mode {
	case "list":
		return c.List(ctx)
	case "search":
		return c.Search(ctx, client.Query{Title: opts.title, Author: opts.author})
	case "get":
		if err := requireID(opts.id); err != nil {
			return nil, err
		}
		return c.Get(ctx, opts.id)
	case "create":
		if strings.TrimSpace(opts.title) == "" || strings.TrimSpace(opts.author) == "" {
			return nil, fmt.Errorf("create requires -title and -author")
		}
		return c.Create(ctx, opts.title, opts.author)
	case "update":
		if err := requireID(opts.id); err != nil {
			return nil, err
		}
		var ch client.Changes
		if opts.set["title"] {
			title := opts.title
			ch.Title = &title
		}
		if opts.set["author"] {
			author := opts.author
			ch.Author = &author
		}
		if ch.Empty() {
			return nil, fmt.Errorf("update requires -title and/or -author")
		}
		return c.Update(ctx, opts.id, ch)
	case "delete":
		if err := requireID(opts.id); err != nil {
			return nil, err
		}
		if err := c.Delete(ctx, opts.id); err != nil {
			return nil, err
		}
		log.Printf("deleted book %d", opts.id)
		return nil, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", opts.mode)
	}
}

func requireID(id int) error {
	if id < 1 {
		return fmt.Errorf("a positive -id is required")
	}
	return nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
