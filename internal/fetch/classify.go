package fetch

import "strings"

// Kind is the coarse classification of a capability-reported error. The
// extraction tool only surfaces text, so classification stays an isolated
// pure function over the message.
type Kind int

const (
	KindUnknown Kind = iota
	KindCaptcha
	KindUnavailable
	KindTransient
)

func (k Kind) String() string {
	switch k {
	case KindCaptcha:
		return "captcha"
	case KindUnavailable:
		return "unavailable"
	case KindTransient:
		return "transient"
	default:
		return "unknown"
	}
}

// Classify maps an error message to a Kind by recognized substrings.
func Classify(msg string) Kind {
	text := strings.ToLower(msg)
	switch {
	case strings.Contains(text, "captcha") || strings.Contains(text, "challenge"):
		return KindCaptcha
	case strings.Contains(text, "unavailable"):
		return KindUnavailable
	case strings.Contains(text, "ssl") || strings.Contains(text, "eof") || strings.Contains(text, "connection"):
		return KindTransient
	default:
		return KindUnknown
	}
}
