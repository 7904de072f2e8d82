// Command activityctl drives the activities API through the client cache.
//
//	activityctl [flags] list
//	activityctl [flags] login --email E --password P
//	activityctl [flags] create --title T --date 2024-05-01 [--city C ...]
//	activityctl [flags] update --id ID --title T --date D ...
//	activityctl [flags] delete ID
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"activityhub/client"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "activityctl:", err)
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("activityctl", pflag.ContinueOnError)
	server := flags.String("server", envOr("ACTIVITYHUB_URL", "http://localhost:8080"), "API base URL")
	token := flags.String("token", os.Getenv("ACTIVITYHUB_TOKEN"), "bearer token")
	timeout := flags.Duration("timeout", 10*time.Second, "per-request timeout (0 disables)")
	verbose := flags.BoolP("verbose", "v", false, "log failed operations to stderr")

	var (
		id, title, date, description, category, city, venue string
		email, password                                     string
	)
	flags.StringVar(&id, "id", "", "activity id (update)")
	flags.StringVar(&title, "title", "", "activity title")
	flags.StringVar(&date, "date", "", "activity date, YYYY-MM-DD or RFC 3339")
	flags.StringVar(&description, "description", "", "activity description")
	flags.StringVar(&category, "category", "", "activity category")
	flags.StringVar(&city, "city", "", "activity city")
	flags.StringVar(&venue, "venue", "", "activity venue")
	flags.StringVar(&email, "email", "", "login email")
	flags.StringVar(&password, "password", "", "login password")

	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() == 0 {
		return fmt.Errorf("missing command (list, login, create, update, delete)")
	}

	level := slog.LevelError + 1
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	agent, err := client.NewHTTPAgent(*server, *timeout)
	if err != nil {
		return err
	}
	agent.SetToken(*token)
	store := client.NewStore(agent, client.WithLogger(logger))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	activity := client.Activity{
		ID: id, Title: title, Date: date, Description: description,
		Category: category, City: city, Venue: venue,
	}

	switch cmd := flags.Arg(0); cmd {
	case "list":
		if err := store.Load(ctx); err != nil {
			return err
		}
		return printActivities(stdout, store.ByDate())

	case "login":
		tok, err := agent.Login(ctx, email, password)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, tok)
		return nil

	case "create":
		if title == "" || date == "" {
			return fmt.Errorf("create needs --title and --date")
		}
		created, err := store.Create(ctx, activity)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdout, created.ID)
		return nil

	case "update":
		if id == "" {
			return fmt.Errorf("update needs --id")
		}
		if err := store.Update(ctx, activity); err != nil {
			if client.IsForbidden(err) {
				return fmt.Errorf("only the host can edit activity %s", id)
			}
			return err
		}
		return nil

	case "delete":
		if flags.NArg() < 2 {
			return fmt.Errorf("delete needs an activity id")
		}
		return store.Delete(ctx, flags.Arg(1))

	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func printActivities(w io.Writer, activities []client.Activity) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DATE\tTITLE\tCITY\tID")
	for _, a := range activities {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.Date, a.Title, a.City, a.ID)
	}
	return tw.Flush()
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
