package bot

import (
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestWelcomeText(t *testing.T) {
	tests := []struct {
		name     string
		template string
		server   string
		username string
		want     string
	}{
		{
			name:     "default template",
			template: "Welcome to @server, @username!",
			server:   "Acme",
			username: "bob",
			want:     "Welcome to Acme, bob!",
		},
		{
			name:     "repeated tokens",
			template: "@username @username joined @server",
			server:   "Acme",
			username: "bob",
			want:     "bob bob joined Acme",
		},
		{
			name:     "no tokens",
			template: "hello there",
			server:   "Acme",
			username: "bob",
			want:     "hello there",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WelcomeText(tt.template, tt.server, tt.username); got != tt.want {
				t.Errorf("WelcomeText() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDurationInServer(t *testing.T) {
	now := time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		joinedAt time.Time
		want     string
	}{
		{
			name:     "days and hours",
			joinedAt: now.Add(-(50 * time.Hour)),
			want:     "2 days, 2 hours",
		},
		{
			name:     "under a day",
			joinedAt: now.Add(-(5 * time.Hour)),
			want:     "5 hours",
		},
		{
			name:     "just joined",
			joinedAt: now.Add(-(10 * time.Minute)),
			want:     "0 hours",
		},
		{
			name:     "unknown join time",
			joinedAt: time.Time{},
			want:     "Unknown",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DurationInServer(tt.joinedAt, now); got != tt.want {
				t.Errorf("DurationInServer() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("hello", 1024); got != "hello" {
		t.Errorf("Truncate() = %v, want hello", got)
	}
	if got := Truncate(strings.Repeat("x", 2000), 1024); len(got) != 1024 {
		t.Errorf("Truncate() len = %v, want 1024", len(got))
	}
}

func TestTruncateKeepsRunesIntact(t *testing.T) {
	// "é" is two bytes; a cut at byte 2 must back up, not split it
	if got := Truncate("héllo", 2); got != "h" {
		t.Errorf("Truncate() = %q, want %q", got, "h")
	}
	long := strings.Repeat("ü", 1000)
	got := Truncate(long, 1024)
	if !utf8.ValidString(got) {
		t.Errorf("Truncate() produced invalid utf-8: %q", got[len(got)-4:])
	}
	if len(got) > 1024 {
		t.Errorf("Truncate() len = %v, want <= 1024", len(got))
	}
}

func TestTrimChannelString(t *testing.T) {
	if got := TrimChannelString("<#1234>"); got != "1234" {
		t.Errorf("TrimChannelString() = %v, want 1234", got)
	}
	if got := TrimChannelString("1234"); got != "1234" {
		t.Errorf("TrimChannelString() = %v, want 1234", got)
	}
}

func TestTrimRoleString(t *testing.T) {
	if got := TrimRoleString("<@&99>"); got != "99" {
		t.Errorf("TrimRoleString() = %v, want 99", got)
	}
}

func TestParseSnowflake(t *testing.T) {
	ts, err := ParseSnowflake("175928847299117063")
	if err != nil {
		t.Fatalf("ParseSnowflake() error = %v", err)
	}
	if ts.UTC().Year() != 2016 {
		t.Errorf("ParseSnowflake() year = %v, want 2016", ts.UTC().Year())
	}

	if _, err := ParseSnowflake("not a snowflake"); err == nil {
		t.Error("ParseSnowflake() expected error for bad input")
	}
}
