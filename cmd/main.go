package main

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
	"golang.org/x/oauth2"

	"gcalevents/internal/dates"
	"gcalevents/internal/filter"
	"gcalevents/internal/google"
	"gcalevents/internal/output"
)

func main() {
	// Load .env file first, but don't error if it doesn't exist.
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "gcalevents",
		Usage: "Fetch Google Calendar events and print a filtered JSON listing.",
		Commands: []*cli.Command{
			authCommand(),
			eventsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		slog.Error("Application failed", "error", err)
		os.Exit(1)
	}
}

func authCommand() *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with a Google account to get an API token.",
		Action: func(c *cli.Context) error {
			logger := setupLogger("info")
			logger.Info("Starting Google authentication flow.")

			config, err := google.OAuthConfig(os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to get google oauth config: %w", err)
			}

			authURL := config.AuthCodeURL("state-token", oauth2.AccessTypeOffline)
			fmt.Printf("Go to the following link in your browser then type the "+
				"authorization code: \n%v\n", authURL)

			fmt.Print("Enter Authorization Code: ")
			reader := bufio.NewReader(os.Stdin)
			authCode, _ := reader.ReadString('\n')
			authCode = strings.TrimSpace(authCode)

			token, err := google.TokenFromWeb(config, authCode)
			if err != nil {
				return fmt.Errorf("unable to retrieve token from web: %w", err)
			}

			if err := google.SaveToken(google.TokenFile, token); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			logger.Info("Successfully authenticated and saved token.", "file", google.TokenFile)
			return nil
		},
	}
}

func eventsCommand() *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "Fetch, filter and print calendar events for a date window.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "start", Usage: "Start date ('2 weeks ago', 'yesterday', 'next monday', '2024-01-15', ...)."},
			&cli.StringFlag{Name: "end", Usage: "End date (same formats as --start)."},
			&cli.StringFlag{Name: "calendar", Usage: "Calendar ID to query. Defaults to GOOGLE_CALENDAR_ID or 'primary'."},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "Output format: json or ics."},
			&cli.StringFlag{Name: "output", Usage: "Write to this file instead of stdout."},
		},
		Action: func(c *cli.Context) error {
			logLevel := os.Getenv("LOG_LEVEL")
			if logLevel == "" {
				logLevel = "info"
			}
			logger := setupLogger(logLevel)

			format := c.String("format")
			if format != "json" && format != "ics" {
				return fmt.Errorf("unknown output format %q (want json or ics)", format)
			}

			now := time.Now()
			window, err := dates.Resolve(c.String("start"), c.String("end"), now)
			if err != nil {
				return fmt.Errorf("invalid date range: %w", err)
			}
			logger.Info("Resolved date window.",
				"start", window.Start.Format("2006-01-02"),
				"end", window.End.Format("2006-01-02"))

			client, err := google.NewClient(c.Context, logger, os.Getenv("GOOGLE_CLIENT_ID"), os.Getenv("GOOGLE_CLIENT_SECRET"))
			if err != nil {
				return fmt.Errorf("failed to create google client: %w", err)
			}

			selfEmail, err := client.Identity()
			if err != nil {
				return fmt.Errorf("failed to resolve identity: %w", err)
			}
			logger.Info("Fetching events.", "account", selfEmail)

			calendarID := c.String("calendar")
			if calendarID == "" {
				calendarID = os.Getenv("GOOGLE_CALENDAR_ID")
			}
			if calendarID == "" {
				calendarID = "primary"
			}

			raw, err := client.ListEvents(calendarID, window)
			if err != nil {
				return fmt.Errorf("failed to fetch events: %w", err)
			}

			events := filter.New(logger).Run(raw, selfEmail, now)
			logger.Info("Filtered events.", "fetched", len(raw), "kept", len(events))

			out := os.Stdout
			if path := c.String("output"); path != "" {
				f, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create output file: %w", err)
				}
				defer f.Close()
				out = f
			}

			if format == "ics" {
				return output.WriteICS(out, events)
			}
			return output.WriteJSON(out, events)
		},
	}
}

func setupLogger(level string) *slog.Logger {
	var logLevel slog.Level
	switch strings.ToLower(level) {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}
