// Command showcase is a terminal client for the item showcase API. It runs
// the same presentation flows as the web front end: the item list, the
// review panel of one item and the review form.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/MakeNowJust/heredoc/v2"

	"github.com/telubhanuprasad/firestore-item-showcase/internal/client"
	"github.com/telubhanuprasad/firestore-item-showcase/internal/view"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/httpclient"
	"github.com/telubhanuprasad/firestore-item-showcase/pkg/logger"
)

var usage = heredoc.Doc(`
	Usage: showcase [flags] <command> [args]

	Commands:
	  items                          list the catalog
	  reviews <item-id>              show the reviews of an item and their average
	  review  <item-id> [review flags]
	                                 add a review, then show the refreshed reviews

	Review flags:
	  -rating N      1 to 5 stars
	  -comment TEXT  your review
	  -name TEXT     your name

	Flags:
`)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("showcase", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	server := fs.String("server", envOr("SHOWCASE_URL", "http://localhost:8080"), "showcase API base URL")
	timeout := fs.Duration("timeout", 15*time.Second, "request timeout")
	logLevel := fs.String("log-level", "warn", "log level for diagnostics on stderr")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	log := logger.NewWithWriter("item-showcase-cli", *logLevel, stderr)
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = *timeout
	api := client.New(*server, cfg, log)

	ctx := context.Background()
	cmd, rest := fs.Arg(0), fs.Args()[1:]
	switch cmd {
	case "items":
		return listItems(ctx, api, stdout)
	case "reviews":
		if len(rest) != 1 {
			fs.Usage()
			return 2
		}
		return showReviews(ctx, api, rest[0], stdout)
	case "review":
		return addReview(ctx, api, rest, stdout, stderr)
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", cmd)
		fs.Usage()
		return 2
	}
}

func listItems(ctx context.Context, api *client.Client, stdout io.Writer) int {
	list := view.NewItemList(api)
	state := list.Load(ctx)
	view.RenderItems(stdout, state)
	if state.Phase == view.PhaseError {
		return 1
	}
	return 0
}

func showReviews(ctx context.Context, api *client.Client, itemID string, stdout io.Writer) int {
	panel := view.NewReviewPanel(api)
	panel.SetItem(ctx, itemID)
	view.RenderReviews(stdout, panel.State())
	return 0
}

func addReview(ctx context.Context, api *client.Client, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, "review: missing item id")
		return 2
	}
	itemID := args[0]

	fs := flag.NewFlagSet("review", flag.ContinueOnError)
	fs.SetOutput(stderr)
	rating := fs.Int("rating", 0, "1 to 5 stars")
	comment := fs.String("comment", "", "your review")
	name := fs.String("name", "", "your name")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}

	panel := view.NewReviewPanel(api)
	panel.SetItem(ctx, itemID)

	form := view.NewReviewForm(itemID, api, panel.Refresh)
	form.SetRating(*rating)
	form.SetComment(*comment)
	form.SetReviewerName(*name)

	fmt.Fprintln(stdout, form.SubmitLabel())
	if _, err := form.Submit(ctx); err != nil {
		var missing *view.MissingFieldsError
		if errors.As(err, &missing) {
			view.RenderNotice(stdout, view.TitleMissingInfo, view.MsgMissingInfo, true)
			return 2
		}
		view.RenderNotice(stdout, "Error", view.MsgAddReviewFailed, true)
		return 1
	}

	view.RenderNotice(stdout, view.TitleReviewAdded, view.MsgReviewAdded, false)
	fmt.Fprintln(stdout)
	view.RenderReviews(stdout, panel.State())
	return 0
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
