package filter

import (
	"io"
	"log/slog"
	"testing"
	"time"

	"google.golang.org/api/calendar/v3"
)

const selfEmail = "me@example.com"

var today = time.Date(2024, 1, 10, 0, 0, 0, 0, time.Local)

func discard() *Pipeline {
	return New(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func allDayEvent(date string) *calendar.Event {
	return &calendar.Event{
		Summary: "All day",
		Start:   &calendar.EventDateTime{Date: date},
		End:     &calendar.EventDateTime{Date: date},
	}
}

func TestDropsWorkingLocationEvents(t *testing.T) {
	events := []*calendar.Event{
		{
			EventType: "workingLocation",
			Summary:   "Home office",
			Start:     &calendar.EventDateTime{Date: "2024-01-10"},
			End:       &calendar.EventDateTime{Date: "2024-01-10"},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 0 {
		t.Errorf("kept %d events, want 0", len(out))
	}
}

func TestKeepsEventsWithoutAttendees(t *testing.T) {
	out := discard().Run([]*calendar.Event{allDayEvent("2024-01-12")}, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
}

func TestDropsDeclinedFutureEvent(t *testing.T) {
	events := []*calendar.Event{
		{
			Summary: "Planning",
			Start:   &calendar.EventDateTime{Date: "2099-01-01"},
			End:     &calendar.EventDateTime{Date: "2099-01-01"},
			Attendees: []*calendar.EventAttendee{
				{Email: selfEmail, Self: true, ResponseStatus: "declined"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 0 {
		t.Errorf("kept %d events, want 0", len(out))
	}
}

func TestKeepsDeclinedPastEvent(t *testing.T) {
	events := []*calendar.Event{
		{
			Summary: "Old standup",
			Start:   &calendar.EventDateTime{Date: "2020-01-01"},
			End:     &calendar.EventDateTime{Date: "2020-01-01"},
			Attendees: []*calendar.EventAttendee{
				{Email: selfEmail, Self: true, ResponseStatus: "declined"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	if len(out[0].AcceptedAttendees) != 0 {
		t.Errorf("accepted_attendees = %v, want empty", out[0].AcceptedAttendees)
	}
}

func TestDeclineDetectionByEmailFallback(t *testing.T) {
	// No Self flag anywhere; the email match is the fallback identity.
	events := []*calendar.Event{
		{
			Start: &calendar.EventDateTime{Date: "2099-01-01"},
			End:   &calendar.EventDateTime{Date: "2099-01-01"},
			Attendees: []*calendar.EventAttendee{
				{Email: "ME@Example.com", ResponseStatus: "declined"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 0 {
		t.Errorf("kept %d events, want 0", len(out))
	}
}

func TestKeepsEventWhenSelfNotInAttendees(t *testing.T) {
	events := []*calendar.Event{
		{
			Start: &calendar.EventDateTime{Date: "2099-01-01"},
			End:   &calendar.EventDateTime{Date: "2099-01-01"},
			Attendees: []*calendar.EventAttendee{
				{Email: "other@example.com", ResponseStatus: "declined"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Errorf("kept %d events, want 1", len(out))
	}
}

func TestAcceptedAttendeesExcludesSelfAndNonAccepted(t *testing.T) {
	events := []*calendar.Event{
		{
			Summary: "Review",
			Start:   &calendar.EventDateTime{Date: "2024-01-09"},
			End:     &calendar.EventDateTime{Date: "2024-01-09"},
			Attendees: []*calendar.EventAttendee{
				{Email: "a@example.com", ResponseStatus: "accepted"},
				{Email: selfEmail, Self: true, ResponseStatus: "accepted"},
				{Email: "b@example.com", ResponseStatus: "tentative"},
				{Email: "c@example.com", ResponseStatus: "accepted"},
				{Email: "d@example.com", ResponseStatus: "needsAction"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	got := out[0].AcceptedAttendees
	if len(got) != 2 || got[0] != "a@example.com" || got[1] != "c@example.com" {
		t.Errorf("accepted_attendees = %v, want [a@example.com c@example.com]", got)
	}
}

func TestAcceptedAttendeesExcludesDuplicateSelfEntry(t *testing.T) {
	// The backend can list the user twice; neither copy may leak into
	// accepted_attendees.
	events := []*calendar.Event{
		{
			Summary: "Sync",
			Start:   &calendar.EventDateTime{Date: "2024-01-09"},
			End:     &calendar.EventDateTime{Date: "2024-01-09"},
			Attendees: []*calendar.EventAttendee{
				{Email: selfEmail, Self: true, ResponseStatus: "accepted"},
				{Email: "ME@Example.com", ResponseStatus: "accepted"},
				{Email: "a@example.com", ResponseStatus: "accepted"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	got := out[0].AcceptedAttendees
	if len(got) != 1 || got[0] != "a@example.com" {
		t.Errorf("accepted_attendees = %v, want [a@example.com]", got)
	}
}

func TestAllDayEventTimes(t *testing.T) {
	out := discard().Run([]*calendar.Event{allDayEvent("2024-01-12")}, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	e := out[0]
	if e.Date != "2024-01-12" {
		t.Errorf("date = %q, want 2024-01-12", e.Date)
	}
	if e.StartTime != "00:00:00" {
		t.Errorf("start_time = %q, want 00:00:00", e.StartTime)
	}
	if e.EndTime != "23:59:59" {
		t.Errorf("end_time = %q, want 23:59:59", e.EndTime)
	}
}

func TestTimedEventRendersLocalTime(t *testing.T) {
	start := time.Date(2024, 1, 9, 15, 30, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	events := []*calendar.Event{
		{
			Summary: "Standup",
			Start:   &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
			End:     &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	e := out[0]
	if e.Date != start.Local().Format("2006-01-02") {
		t.Errorf("date = %q, want %q", e.Date, start.Local().Format("2006-01-02"))
	}
	if e.StartTime != start.Local().Format("15:04:05") {
		t.Errorf("start_time = %q, want %q", e.StartTime, start.Local().Format("15:04:05"))
	}
	if e.EndTime != end.Local().Format("15:04:05") {
		t.Errorf("end_time = %q, want %q", e.EndTime, end.Local().Format("15:04:05"))
	}
}

func TestMissingTitleDefaultsToEmpty(t *testing.T) {
	events := []*calendar.Event{
		{
			Start: &calendar.EventDateTime{Date: "2024-01-09"},
			End:   &calendar.EventDateTime{Date: "2024-01-09"},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	if out[0].Title != "" {
		t.Errorf("title = %q, want empty", out[0].Title)
	}
}

func TestAttachmentsPassThrough(t *testing.T) {
	events := []*calendar.Event{
		{
			Summary: "Design sync",
			Start:   &calendar.EventDateTime{Date: "2024-01-09"},
			End:     &calendar.EventDateTime{Date: "2024-01-09"},
			Attachments: []*calendar.EventAttachment{
				{Title: "Doc", FileUrl: "https://example.com/doc", MimeType: "application/pdf"},
				{Title: "Sheet", FileUrl: "https://example.com/sheet", MimeType: "text/csv"},
			},
		},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	atts := out[0].Attachments
	if len(atts) != 2 {
		t.Fatalf("attachments = %d, want 2", len(atts))
	}
	if atts[0].Title != "Doc" || atts[0].FileURL != "https://example.com/doc" || atts[0].MimeType != "application/pdf" {
		t.Errorf("attachment[0] = %+v", atts[0])
	}
	if atts[1].Title != "Sheet" {
		t.Errorf("attachment[1] = %+v", atts[1])
	}
}

func TestSkipsMalformedEvents(t *testing.T) {
	events := []*calendar.Event{
		{Summary: "No start at all"},
		{Summary: "No end", Start: &calendar.EventDateTime{Date: "2024-01-09"}},
		allDayEvent("2024-01-09"),
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 1 {
		t.Fatalf("kept %d events, want 1", len(out))
	}
	if out[0].Title != "All day" {
		t.Errorf("title = %q, want %q", out[0].Title, "All day")
	}
}

func TestPreservesInputOrder(t *testing.T) {
	events := []*calendar.Event{
		{Summary: "first", Start: &calendar.EventDateTime{Date: "2024-01-08"}, End: &calendar.EventDateTime{Date: "2024-01-08"}},
		{Summary: "second", Start: &calendar.EventDateTime{Date: "2024-01-09"}, End: &calendar.EventDateTime{Date: "2024-01-09"}},
		{Summary: "third", Start: &calendar.EventDateTime{Date: "2024-01-10"}, End: &calendar.EventDateTime{Date: "2024-01-10"}},
	}

	out := discard().Run(events, selfEmail, today)
	if len(out) != 3 {
		t.Fatalf("kept %d events, want 3", len(out))
	}
	for i, want := range []string{"first", "second", "third"} {
		if out[i].Title != want {
			t.Errorf("out[%d].Title = %q, want %q", i, out[i].Title, want)
		}
	}
}
