package bot

import (
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

func TrimChannelString(chStr string) string {
	chStr = strings.TrimPrefix(chStr, "<#")
	chStr = strings.TrimSuffix(chStr, ">")
	return chStr
}

func TrimRoleString(rStr string) string {
	rStr = strings.TrimPrefix(rStr, "<@&")
	rStr = strings.TrimSuffix(rStr, ">")
	return rStr
}

func ParseSnowflake(id string) (time.Time, error) {
	n, err := strconv.ParseInt(id, 0, 63)
	if err != nil {
		return time.Now(), err
	}
	return time.Unix(((n>>22)+1420070400000)/1000, 0), nil
}

// Truncate cuts s to at most n bytes without splitting a rune. Embed field
// values cap out at 1024.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}

// WelcomeText substitutes the @server and @username tokens in a welcome
// template. Plain global replacement, replacement values are not re-scanned.
func WelcomeText(template, serverName, username string) string {
	out := strings.ReplaceAll(template, "@server", serverName)
	return strings.ReplaceAll(out, "@username", username)
}

// DurationInServer renders how long a member stayed, as "N days, M hours" or
// just "M hours" inside the first day. An unknown join time reads "Unknown".
func DurationInServer(joinedAt, now time.Time) string {
	if joinedAt.IsZero() || now.Before(joinedAt) {
		return "Unknown"
	}
	d := now.Sub(joinedAt)
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	if days > 0 {
		return fmt.Sprintf("%v days, %v hours", days, hours)
	}
	return fmt.Sprintf("%v hours", hours)
}
