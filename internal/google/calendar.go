package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"gcalevents/internal/dates"
)

const (
	credentialsFile = "credentials.json"

	// TokenFile stores the OAuth token written by the auth command.
	TokenFile = "token.json"
)

// Client provides read-only access to the user's Google Calendar.
type Client struct {
	service *calendar.Service
	logger  *slog.Logger
}

// NewClient creates an authenticated Google Calendar client from the saved
// token. It fails with a hint to run the auth command when no token exists.
func NewClient(ctx context.Context, logger *slog.Logger, clientID, clientSecret string) (*Client, error) {
	config, err := OAuthConfig(clientID, clientSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to get OAuth config: %w", err)
	}

	token, err := tokenFromFile(TokenFile)
	if err != nil {
		return nil, fmt.Errorf("could not load token: %w. Please run the 'auth' command first", err)
	}

	client := config.Client(ctx, token)
	service, err := calendar.NewService(ctx, option.WithHTTPClient(client))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{service: service, logger: logger}, nil
}

// Identity returns the authenticated account's email address, which is the
// ID of its primary calendar. Resolved once per run; the filter pipeline
// uses it to find the user in attendee lists.
func (c *Client) Identity() (string, error) {
	cal, err := c.service.Calendars.Get("primary").Do()
	if err != nil {
		return "", fmt.Errorf("failed to resolve account identity: %w", err)
	}
	return cal.Id, nil
}

// ListEvents fetches all events of the calendar within the window, following
// pagination so callers always see a single aggregated slice. The window's
// end day is included in full.
func (c *Client) ListEvents(calendarID string, w dates.Window) ([]*calendar.Event, error) {
	tmin := w.Start.Format(time.RFC3339)
	tmax := endOfDay(w.End).Format(time.RFC3339)
	c.logger.Debug("Fetching events", "calendarID", calendarID, "timeMin", tmin, "timeMax", tmax)

	var items []*calendar.Event
	pageToken := ""
	for {
		call := c.service.Events.List(calendarID).
			ShowDeleted(false).
			SingleEvents(true).
			TimeMin(tmin).
			TimeMax(tmax).
			OrderBy("startTime")
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		events, err := call.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to retrieve events: %w", err)
		}
		items = append(items, events.Items...)

		pageToken = events.NextPageToken
		if pageToken == "" {
			break
		}
	}

	c.logger.Info("Successfully fetched events from Google Calendar", "count", len(items), "calendarID", calendarID)
	return items, nil
}

// endOfDay extends a date-granularity window bound to the last second of
// that day, making the end date inclusive for the half-open API query.
func endOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 0, t.Location())
}

// OAuthConfig returns the OAuth2 config for the read-only calendar scope.
// It prioritizes environment-provided credentials over a local credentials.json.
func OAuthConfig(clientID, clientSecret string) (*oauth2.Config, error) {
	if clientID != "" && clientSecret != "" {
		return &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  "urn:ietf:wg:oauth:2.0:oob",
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}, nil
	}

	b, err := os.ReadFile(credentialsFile)
	if err != nil {
		if _, ok := err.(*fs.PathError); ok {
			return nil, fmt.Errorf("credentials.json not found. Please provide GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET env vars or place credentials.json in the root directory")
		}
		return nil, fmt.Errorf("unable to read client secret file: %w", err)
	}

	config, err := google.ConfigFromJSON(b, calendar.CalendarReadonlyScope)
	if err != nil {
		return nil, fmt.Errorf("unable to parse client secret file to config: %w", err)
	}
	config.RedirectURL = "urn:ietf:wg:oauth:2.0:oob" // For desktop app flow
	return config, nil
}

// TokenFromWeb is called by the auth flow to retrieve a token.
func TokenFromWeb(config *oauth2.Config, authCode string) (*oauth2.Token, error) {
	return config.Exchange(context.Background(), authCode)
}

// SaveToken saves a token to a file path.
func SaveToken(path string, token *oauth2.Token) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("unable to create token file: %w", err)
	}
	defer f.Close()
	return json.NewEncoder(f).Encode(token)
}

// tokenFromFile retrieves a token from a local file.
func tokenFromFile(file string) (*oauth2.Token, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	tok := &oauth2.Token{}
	err = json.NewDecoder(f).Decode(tok)
	return tok, err
}
