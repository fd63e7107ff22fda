// inspect dumps the participants and messages stored in a BadgerDB
// directory. The server must be stopped, or the copy taken offline.
package main

import (
	"batepapo/domain"
	"batepapo/repositories"
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		dbPath     string
		collection string
		limit      int
		noColour   bool
	)
	flagSet := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	flagSet.StringVar(&dbPath, "db", "./data/badger", "path to the badger directory")
	flagSet.StringVarP(&collection, "collection", "c", "all", "participants, messages or all")
	flagSet.IntVarP(&limit, "limit", "n", 0, "show only the last n messages (0 shows all)")
	flagSet.BoolVar(&noColour, "no-colour", false, "disable coloured headers")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	color.Enable = !noColour

	db, err := badger.Open(badger.DefaultOptions(dbPath).
		WithReadOnly(true).
		WithLoggingLevel(badger.ERROR))
	if err != nil {
		return fmt.Errorf("failed to open badger at %s: %w", dbPath, err)
	}
	defer db.Close()

	log := logs.GetLoggerFromLevel(slog.LevelWarn)
	ctx := context.Background()

	switch collection {
	case "participants":
		return printParticipants(ctx, repositories.NewParticipantRepository(db, log))
	case "messages":
		return printMessages(ctx, repositories.NewMessageRepository(db, log), limit)
	case "all":
		if err = printParticipants(ctx, repositories.NewParticipantRepository(db, log)); err != nil {
			return err
		}
		return printMessages(ctx, repositories.NewMessageRepository(db, log), limit)
	default:
		return fmt.Errorf("unknown collection %q", collection)
	}
}

func printParticipants(ctx context.Context, repo repositories.IParticipantRepository) error {
	participants, err := repo.Find(ctx)
	if err != nil {
		return err
	}
	title(fmt.Sprintf("Participants (%d)", len(participants)))

	table := newTable([]string{"Name", "Last seen", "Idle"})
	now := time.Now()
	for _, p := range participants {
		table.Append([]string{
			p.Name,
			p.LastSeen.Local().Format(time.DateTime),
			now.Sub(p.LastSeen).Truncate(time.Second).String(),
		})
	}
	table.Render()
	return nil
}

func printMessages(ctx context.Context, repo repositories.IMessageRepository, limit int) error {
	messages, err := repo.Find(ctx, nil, limit)
	if err != nil {
		return err
	}
	title(fmt.Sprintf("Messages (%d)", len(messages)))

	table := newTable([]string{"ID", "Time", "Type", "From", "To", "Text"})
	for _, m := range messages {
		kind := string(m.Type)
		if m.Type == domain.PrivateMessage {
			kind = color.Yellow.Render(kind)
		}
		table.Append([]string{m.ID.String(), m.Time, kind, m.From, m.To, m.Text})
	}
	table.Render()
	return nil
}

func title(text string) {
	fmt.Println()
	fmt.Println(color.New(color.BgBlack, color.FgGreen).Render("  ====== " + text + " ======"))
}

func newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}
