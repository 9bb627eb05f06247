package logger

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

var emailRegex = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)

// redactValue masks a field value according to its key:
//
//	email, *_email           → RedactEmail
//	user_id, uid, *_user_id  → RedactID
//	comments, feedback, text → RedactText
//
// Anything else has embedded email addresses masked.
func redactValue(enabled bool, key, val string) string {
	if !enabled {
		return val
	}
	switch key = strings.ToLower(key); {
	case strings.Contains(key, "email"):
		return RedactEmail(val)
	case key == "user_id" || key == "uid" || strings.HasSuffix(key, "_user_id"):
		return RedactID(val)
	case key == "comments" || key == "feedback" || key == "text":
		return RedactText(val)
	}
	return emailRegex.ReplaceAllStringFunc(val, RedactEmail)
}

// RedactEmail keeps the first two characters of the local part.
// "john.doe@example.com" → "jo***@example.com"; "ab@example.com" → "***@example.com"
func RedactEmail(email string) string {
	local, domain, ok := strings.Cut(email, "@")
	if !ok || strings.Contains(domain, "@") {
		return "***@***"
	}
	if utf8.RuneCountInString(local) > 2 {
		_, n1 := utf8.DecodeRuneInString(local)
		_, n2 := utf8.DecodeRuneInString(local[n1:])
		return local[:n1+n2] + "***@" + domain
	}
	return "***@" + domain
}

// RedactID keeps the first four characters of an opaque user id.
// "u9QfX2kLm" → "u9Qf***"
func RedactID(id string) string {
	if utf8.RuneCountInString(id) <= 4 {
		return "***"
	}
	n := 0
	for i := 0; i < 4; i++ {
		_, size := utf8.DecodeRuneInString(id[n:])
		n += size
	}
	return id[:n] + "***"
}

// RedactText replaces customer-written free text, such as feedback
// comments, with its length.
func RedactText(text string) string {
	if text == "" {
		return ""
	}
	return "[" + strconv.Itoa(utf8.RuneCountInString(text)) + " chars]"
}
