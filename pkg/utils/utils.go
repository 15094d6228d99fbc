package utils

import (
	"context"
	"runtime/debug"
	"strings"
	"unicode/utf8"

	"golang-market-intel/pkg/logger"
)

// GoSafe runs fn in a new goroutine and recovers from panics so a single
// misbehaving task cannot take down the process.
func GoSafe(fn func()) {
	go func() {
		defer func() {
			if r := recover(); r != nil {
				log, err := logger.New("error", "json")
				if err == nil {
					log.Error("Recovered from panic",
						logger.Field("panic", r),
						logger.StringField("stack", string(debug.Stack())),
					)
				}
			}
		}()
		fn()
	}()
}

// ShouldContinue reports whether the context is still alive, logging once when
// it is not.
func ShouldContinue(ctx context.Context, log *logger.Logger) bool {
	select {
	case <-ctx.Done():
		log.Info("Context cancelled, stopping work", logger.ErrorField(ctx.Err()))
		return false
	default:
		return true
	}
}

// ContainsString reports whether s is present in list.
func ContainsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}

// CleanToValidUTF8 strips invalid UTF-8 sequences and NUL bytes so the value
// can be stored in a text column.
func CleanToValidUTF8(s string) string {
	if utf8.ValidString(s) {
		return strings.ReplaceAll(s, "\x00", "")
	}
	v := make([]rune, 0, len(s))
	for i, r := range s {
		if r == utf8.RuneError {
			_, size := utf8.DecodeRuneInString(s[i:])
			if size == 1 {
				continue
			}
		}
		if r == 0 {
			continue
		}
		v = append(v, r)
	}
	return string(v)
}

// SafeText normalizes whitespace and strips characters that break JSON prompts.
func SafeText(s string) string {
	s = CleanToValidUTF8(s)
	s = strings.ReplaceAll(s, " ", " ")
	return strings.Join(strings.Fields(s), " ")
}

// Clamp returns v bounded to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
