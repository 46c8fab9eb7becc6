package validate

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"cafeorders/internal/domain"
)

var (
	reQ  = regexp.MustCompile(`^[A-Za-z0-9 _'\\-]{1,50}$`)
	reID = regexp.MustCompile(`^[A-Za-z0-9_-]{1,64}$`)
)

// MaxRequest bounds the special request text of a cart line.
const MaxRequest = 140

// Q validates a search query: trims, enforces allowed characters and max length
func Q(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	if len(s) > 50 {
		s = s[:50]
	}
	return s, reQ.MatchString(s)
}

func Qty(s string) int {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return 1
	}
	if n > domain.MaxQuantity {
		return domain.MaxQuantity
	} // clamp to avoid abuse
	return n
}

// ID validates a simple resource identifier (product/order ids).
func ID(s string) (string, bool) {
	s = strings.TrimSpace(s)
	return s, s != "" && reID.MatchString(s)
}

// Category accepts one of the menu categories; anything else means all items.
func Category(s string) (string, bool) {
	s = strings.TrimSpace(s)
	for _, c := range domain.Categories {
		if strings.EqualFold(s, c) {
			return c, true
		}
	}
	return domain.DefaultCategory, s == ""
}

// Status defaults to Pending when empty.
func Status(s string) (domain.OrderStatus, bool) {
	if strings.TrimSpace(s) == "" {
		return domain.StatusPending, true
	}
	return domain.ParseStatus(s)
}

// Request trims a special request and rejects control characters.
func Request(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if !utf8.ValidString(s) || utf8.RuneCountInString(s) > MaxRequest {
		return "", false
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", false
		}
	}
	return s, true
}
