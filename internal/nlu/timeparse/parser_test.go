package timeparse

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)

func TestParse_TomorrowWithClock(t *testing.T) {
	p := New()

	got := p.Parse("call John at 3pm tomorrow", fixedNow)

	require.NotNil(t, got.DateTime)
	assert.Equal(t, "2024-03-11", *got.Date)
	assert.Equal(t, 15, got.DateTime.Hour())
	assert.Equal(t, 0, got.DateTime.Minute())
	assert.Equal(t, time.UTC, got.DateTime.Location())
}

func TestParse_ISORoundTrip(t *testing.T) {
	p := New()
	inputs := []time.Time{
		fixedNow.Add(36 * time.Hour),
		time.Date(2031, 6, 15, 8, 30, 45, 0, time.UTC),
		time.Date(2030, 1, 2, 23, 59, 59, 0, time.FixedZone("CEST", 2*3600)),
	}

	for _, want := range inputs {
		t.Run(want.Format(time.RFC3339), func(t *testing.T) {
			got := p.Parse(want.Format(time.RFC3339), fixedNow)
			require.NotNil(t, got.DateTime)
			assert.True(t, want.Equal(*got.DateTime), "got %s", got.DateTime)
			assert.Equal(t, time.UTC, got.DateTime.Location())
		})
	}
}

func TestParse_NothingFound(t *testing.T) {
	p := New()

	for _, text := range []string{"", "   ", "buy some milk"} {
		got := p.Parse(text, fixedNow)
		assert.True(t, got.IsZero(), "%q", text)
		assert.Equal(t, "", got.DateTimeString())
	}
}

func TestParse_Idempotent(t *testing.T) {
	p := New()
	text := "dentist next friday at 10am"

	first := p.Parse(text, fixedNow)
	second := p.Parse(text, fixedNow)

	assert.Equal(t, first.DateTimeString(), second.DateTimeString())
}

func TestParse_ConcurrentUse(t *testing.T) {
	p := New()
	want := p.Parse("tomorrow at 9:30am", fixedNow).DateTimeString()
	require.NotEmpty(t, want)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, want, p.Parse("tomorrow at 9:30am", fixedNow).DateTimeString())
		}()
	}
	wg.Wait()
}

func TestParseRelativeDuration(t *testing.T) {
	tests := []struct {
		text string
		want time.Time
		ok   bool
	}{
		{"ping me in 2 hours", fixedNow.Add(2 * time.Hour), true},
		{"in 1 hr", fixedNow.Add(time.Hour), true},
		{"in 3 days", fixedNow.AddDate(0, 0, 3), true},
		{"in 2 weeks please", fixedNow.AddDate(0, 0, 14), true},
		{"in a while", time.Time{}, false},
		{"in 5 minutes", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got, ok := parseRelativeDuration(tt.text, fixedNow)
			assert.Equal(t, tt.ok, ok)
			assert.True(t, tt.want.Equal(got))
		})
	}
}

func TestParseTomorrowClock(t *testing.T) {
	got, ok := parseTomorrowClock("tomorrow, around 7:45 pm", fixedNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 11, 19, 45, 0, 0, time.UTC), got)

	_, ok = parseTomorrowClock("tomorrow", fixedNow)
	assert.False(t, ok, "no clock time")

	_, ok = parseTomorrowClock("at 5pm", fixedNow)
	assert.False(t, ok, "no tomorrow keyword")
}

func TestFindClock(t *testing.T) {
	tests := []struct {
		text         string
		hour, minute int
		ok           bool
	}{
		{"at 3pm", 15, 0, true},
		{"at 12am", 0, 0, true},
		{"at 12pm", 12, 0, true},
		{"at 08:15", 8, 15, true},
		{"10 a.m.", 10, 0, true},
		{"room 5", 0, 0, false},
		{"at 25:00", 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			h, m, ok := findClock(tt.text)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.hour, h)
				assert.Equal(t, tt.minute, m)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	p := New()

	tests := []struct {
		value interface{}
		want  string
		ok    bool
	}{
		{"today", "2024-03-10", true},
		{"Yesterday", "2024-03-09", true},
		{"tomorrow", "2024-03-11", true},
		{"2024-02-29", "2024-02-29", true},
		{"May 5", "2024-05-05", true},
		{"on 2030-01-15 please", "2030-01-15", true},
		{time.Date(2024, 5, 1, 23, 0, 0, 0, time.UTC), "2024-05-01", true},
		{"", "", false},
		{42, "", false},
	}

	for _, tt := range tests {
		got, ok := p.ParseDate(tt.value, fixedNow)
		assert.Equal(t, tt.ok, ok, "%v", tt.value)
		assert.Equal(t, tt.want, got, "%v", tt.value)
	}
}

func TestParseDateTime(t *testing.T) {
	p := New()

	got, ok := p.ParseDateTime("2024-03-12T10:00:00", fixedNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 3, 12, 10, 0, 0, 0, time.UTC), got)

	got, ok = p.ParseDateTime("2024-03-12T10:00:00-05:00", fixedNow)
	require.True(t, ok)
	assert.Equal(t, 15, got.Hour())

	_, ok = p.ParseDateTime("", fixedNow)
	assert.False(t, ok)

	_, ok = p.ParseDateTime(nil, fixedNow)
	assert.False(t, ok)
}

func TestParse_DateInsideSentence(t *testing.T) {
	p := New()

	tests := []struct {
		text string
		want string
	}{
		{"meeting on 2030-05-01", "2030-05-01T00:00:00Z"},
		{"schedule a call with Ann on 2030-06-01 at 14:00", "2030-06-01T14:00:00Z"},
		{"pay rent on 2030-05-01T10:00:00Z", "2030-05-01T10:00:00Z"},
		{"standup 2030-05-01 09:30 in room 4", "2030-05-01T09:30:00Z"},
		{"dentist on 12/24/2030 at 4pm", "2030-12-24T16:00:00Z"},
		{"flight on March 3, 2031 at 7:15am", "2031-03-03T07:15:00Z"},
		{"party on the 5th of June 2030", "2030-06-05T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := p.Parse(tt.text, fixedNow)
			assert.Equal(t, tt.want, got.DateTimeString())
		})
	}
}

func TestParse_DateWithoutYearUsesCurrentYear(t *testing.T) {
	p := New()

	tests := []struct {
		text string
		want string
	}{
		{"May 5", "2024-05-05T00:00:00Z"},
		{"what did I do on May 5?", "2024-05-05T00:00:00Z"},
		{"pay rent on May 5 at 9am", "2024-05-05T09:00:00Z"},
		{"5th of May", "2024-05-05T00:00:00Z"},
		{"sept 30", "2024-09-30T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			got := p.Parse(tt.text, fixedNow)
			require.NotNil(t, got.DateTime)
			assert.Equal(t, tt.want, got.DateTimeString())
		})
	}
}

func TestCalendarDate(t *testing.T) {
	_, ok := calendarDate("February", "30", "2030", fixedNow)
	assert.False(t, ok, "no rollover into March")

	got, ok := calendarDate("Feb", "29", "", fixedNow)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), got)
}

func TestWithYear(t *testing.T) {
	yearless := time.Date(0, 5, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, time.Date(2024, 5, 5, 0, 0, 0, 0, time.UTC), withYear(yearless, fixedNow))

	dated := time.Date(2030, 5, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, dated, withYear(dated, fixedNow))
}
