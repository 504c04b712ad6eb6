package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"chatrelay/backend/internal/config"
	"chatrelay/backend/internal/logging"
	"chatrelay/backend/internal/models"
	"chatrelay/backend/internal/storage"

	"github.com/olekukonko/tablewriter"
)

const usage = "Usage: admin history [limit]"

// openFunc connects the configured message store.
type openFunc func(ctx context.Context, cfg *config.Config, log *slog.Logger) storage.Backend

func main() {
	if err := run(os.Args[1:], os.Stdout, storage.Open); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run executes one admin command. Deferred cleanup always runs before main exits.
func run(args []string, out io.Writer, open openFunc) error {
	if len(args) < 1 {
		return errors.New(usage)
	}

	cfg, err := config.Load(".env")
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	logger := logging.NewWithWriter(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}, os.Stderr)

	switch command := args[0]; command {
	case "history":
		limit := cfg.HistoryLimit
		if len(args) > 1 {
			limit, err = strconv.Atoi(args[1])
			if err != nil || limit <= 0 {
				return fmt.Errorf("invalid limit %q: please provide a positive integer", args[1])
			}
		}

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		backend := open(ctx, cfg, logger)
		defer func() {
			if err := backend.Close(context.Background()); err != nil {
				logger.Error("failed to close storage", "error", err)
			}
		}()

		messages, err := backend.RecentMessages(ctx, limit)
		if err != nil {
			return fmt.Errorf("loading history: %w", err)
		}
		printHistory(out, messages)
		return nil
	default:
		return fmt.Errorf("unknown command %q\n%s", command, usage)
	}
}

// printHistory renders messages oldest first.
func printHistory(w io.Writer, messages []models.ChatMessage) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", "Timestamp", "User", "Text"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")

	for i, msg := range messages {
		table.Append([]string{
			strconv.Itoa(i + 1),
			msg.Timestamp.UTC().Format(time.RFC3339),
			msg.User,
			msg.Text,
		})
	}
	table.Render()

	fmt.Fprintf(w, "%d message(s)\n", len(messages))
}
