package filter

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"google.golang.org/api/calendar/v3"

	"gcalevents/internal/models"
)

// workingLocation entries are office/home markers, never real appointments.
const eventTypeWorkingLocation = "workingLocation"

// eventTime is a raw event boundary: either a whole calendar day or a
// specific instant. Keeping the distinction explicit means the all-day
// 00:00:00/23:59:59 rendering is decided in exactly one place.
type eventTime struct {
	at     time.Time
	allDay bool
}

// parseEventTime interprets a Google Calendar event boundary, converting
// timed values to the local timezone.
func parseEventTime(edt *calendar.EventDateTime) (eventTime, error) {
	switch {
	case edt == nil:
		return eventTime{}, fmt.Errorf("missing event time")
	case edt.DateTime != "":
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return eventTime{}, fmt.Errorf("bad dateTime %q: %w", edt.DateTime, err)
		}
		return eventTime{at: t.Local()}, nil
	case edt.Date != "":
		t, err := time.ParseInLocation("2006-01-02", edt.Date, time.Local)
		if err != nil {
			return eventTime{}, fmt.Errorf("bad date %q: %w", edt.Date, err)
		}
		return eventTime{at: t, allDay: true}, nil
	default:
		return eventTime{}, fmt.Errorf("event time has neither date nor dateTime")
	}
}

// Pipeline filters raw calendar events and normalizes the survivors.
type Pipeline struct {
	logger *slog.Logger
}

// New creates a Pipeline. The logger only receives diagnostics about
// skipped records; the pipeline itself has no other side effects.
func New(logger *slog.Logger) *Pipeline {
	return &Pipeline{logger: logger}
}

// Run applies the filtering rules to events and returns the normalized
// survivors in input order.
//
// An event is dropped when it is a workingLocation marker, or when the
// authenticated user (selfEmail) declined it and it starts on a day after
// today. Events without an attendee list, or where the user does not appear
// in it, are always kept: declined past events stay visible as historical
// record. A record missing a usable start or end is skipped with a warning
// rather than failing the run.
func (p *Pipeline) Run(events []*calendar.Event, selfEmail string, today time.Time) []models.Event {
	today = time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, today.Location())

	out := make([]models.Event, 0, len(events))
	for _, ev := range events {
		if ev.EventType == eventTypeWorkingLocation {
			continue
		}

		start, err := parseEventTime(ev.Start)
		if err != nil {
			p.logger.Warn("Skipping event with unusable start", "title", ev.Summary, "error", err)
			continue
		}
		end, err := parseEventTime(ev.End)
		if err != nil {
			p.logger.Warn("Skipping event with unusable end", "title", ev.Summary, "error", err)
			continue
		}

		self := findSelf(ev.Attendees, selfEmail)
		if self != nil && self.ResponseStatus == "declined" && startsAfter(start, today) {
			p.logger.Debug("Dropping declined future event", "title", ev.Summary)
			continue
		}

		out = append(out, normalize(ev, start, end, self, selfEmail))
	}
	return out
}

// findSelf locates the authenticated user's attendee entry. The backend's
// Self flag is authoritative; an email match is the fallback identity.
func findSelf(attendees []*calendar.EventAttendee, selfEmail string) *calendar.EventAttendee {
	for _, a := range attendees {
		if a.Self {
			return a
		}
	}
	for _, a := range attendees {
		if a.Email != "" && strings.EqualFold(a.Email, selfEmail) {
			return a
		}
	}
	return nil
}

// startsAfter reports whether the event starts on a calendar day strictly
// after today.
func startsAfter(start eventTime, today time.Time) bool {
	day := time.Date(start.at.Year(), start.at.Month(), start.at.Day(), 0, 0, 0, 0, today.Location())
	return day.After(today)
}

func normalize(ev *calendar.Event, start, end eventTime, self *calendar.EventAttendee, selfEmail string) models.Event {
	e := models.Event{
		Date:              start.at.Format("2006-01-02"),
		Title:             ev.Summary,
		AcceptedAttendees: make([]string, 0, len(ev.Attendees)),
		Attachments:       make([]models.Attachment, 0, len(ev.Attachments)),
		Start:             start.at,
		End:               end.at,
	}

	if start.allDay {
		e.StartTime = "00:00:00"
		e.EndTime = "23:59:59"
	} else {
		e.StartTime = start.at.Format("15:04:05")
		e.EndTime = end.at.Format("15:04:05")
	}

	for _, a := range ev.Attendees {
		// The list can carry the user more than once (e.g. a room-forwarded
		// duplicate), so matching the self entry alone is not enough.
		if a == self || (a.Email != "" && strings.EqualFold(a.Email, selfEmail)) {
			continue
		}
		if a.ResponseStatus == "accepted" && a.Email != "" {
			e.AcceptedAttendees = append(e.AcceptedAttendees, a.Email)
		}
	}

	for _, att := range ev.Attachments {
		e.Attachments = append(e.Attachments, models.Attachment{
			Title:    att.Title,
			FileURL:  att.FileUrl,
			MimeType: att.MimeType,
		})
	}

	return e
}
