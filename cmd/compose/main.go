// Command compose is the local writing client. It keeps the draft mirrored
// to an on-disk database so a half-written entry survives restarts, and
// submits finished drafts to the API.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"daybook/internal/calendar"
	"daybook/internal/client"
	"daybook/internal/draft"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8686", "API base URL")
	dataDir := flag.String("data", defaultDataDir(), "directory for local draft storage")
	flag.Parse()

	if err := run(*serverURL, *dataDir, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(serverURL, dataDir string, args []string) error {
	if len(args) == 0 {
		printUsage()
		return nil
	}

	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	mirror, err := draft.OpenSQLiteMirror(filepath.Join(dataDir, "daybook.db"))
	if err != nil {
		return err
	}
	defer mirror.Close()

	api := client.New(serverURL)
	reconciler, err := draft.NewReconciler(mirror, api)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch args[0] {
	case "calendar":
		return showCalendar(ctx, api, reconciler, args[1:])
	case "status":
		return showStatus(reconciler)
	case "date":
		return setDate(reconciler, args[1:])
	case "title":
		return setTitle(reconciler, args[1:])
	case "content":
		return setContent(reconciler, args[1:])
	case "submit":
		return submit(ctx, api, reconciler)
	case "discard":
		return reconciler.Discard()
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// showCalendar prints the month grid. Server dates are authoritative;
// locally cached submissions fill in when the server is unreachable.
func showCalendar(ctx context.Context, api *client.Client, reconciler *draft.Reconciler, args []string) error {
	offset := 0
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("month offset must be a number, got %q", args[0])
		}
		offset = parsed
	}

	picker := calendar.New(time.Now)
	picker.ChangeMonth(offset)

	dates, err := api.EntryDates(ctx)
	if err != nil {
		log.Printf("server unreachable, using local entry cache: %v", err)
	}
	for _, cached := range reconciler.Entries() {
		dates = append(dates, cached.Date)
	}
	picker.SetMarkedDates(dates)

	month := picker.Month()
	fmt.Println(month.Label)
	fmt.Println("Su Mo Tu We Th Fr Sa")

	col := 0
	for ; col < month.LeadingBlanks; col++ {
		fmt.Print("   ")
	}
	for _, cell := range month.Cells {
		marker := " "
		switch {
		case cell.IsFuture:
			marker = "."
		case cell.HasEntry:
			marker = "*"
		}
		fmt.Printf("%2d%s", cell.Day, marker)
		col++
		if col%7 == 0 {
			fmt.Println()
		}
	}
	if col%7 != 0 {
		fmt.Println()
	}
	fmt.Println("* written  . future")
	return nil
}

func showStatus(reconciler *draft.Reconciler) error {
	d := reconciler.Draft()
	fmt.Printf("state:   %s\n", reconciler.State())
	fmt.Printf("date:    %s\n", orNone(d.Date))
	fmt.Printf("title:   %s\n", orNone(d.Title))
	fmt.Printf("content: %d bytes\n", len(d.Content))
	if msg := reconciler.LastError(); msg != "" {
		fmt.Printf("last error: %s\n", msg)
	}
	return nil
}

func setDate(reconciler *draft.Reconciler, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: date YYYY-MM-DD")
	}
	day, err := time.Parse("2006-01-02", args[0])
	if err != nil {
		return fmt.Errorf("invalid date %q: %w", args[0], err)
	}
	if day.After(time.Now()) {
		return fmt.Errorf("cannot write an entry for a future day")
	}
	return reconciler.SelectDate(day)
}

func setTitle(reconciler *draft.Reconciler, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: title <text>")
	}
	return reconciler.SetTitle(strings.Join(args, " "))
}

// setContent reads HTML from the named file, or stdin when the argument is
// "-" or absent.
func setContent(reconciler *draft.Reconciler, args []string) error {
	var html []byte
	var err error
	if len(args) == 0 || args[0] == "-" {
		html, err = io.ReadAll(os.Stdin)
	} else {
		html, err = os.ReadFile(args[0])
	}
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}
	return reconciler.SetContent(string(html), nil)
}

func submit(ctx context.Context, api *client.Client, reconciler *draft.Reconciler) error {
	password := os.Getenv("DAYBOOK_PASSWORD")
	if password == "" {
		return fmt.Errorf("set DAYBOOK_PASSWORD to submit entries")
	}
	if err := api.Login(ctx, password); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	location, err := reconciler.Submit(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("published: %s\n", location)
	return nil
}

func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".daybook"
	}
	return filepath.Join(base, "daybook")
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func printUsage() {
	fmt.Println(`usage: compose [flags] <command>

commands:
  calendar [offset]   show the month grid (offset in months from now)
  status              show the current draft and state
  date YYYY-MM-DD     pick the entry date
  title <text>        set the entry title
  content [file|-]    set the entry body (HTML) from a file or stdin
  submit              publish the draft (needs DAYBOOK_PASSWORD)
  discard             drop the draft`)
}
