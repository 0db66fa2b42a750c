package model

// WorkItem is one row of the ledger: a single remote video to download.
type WorkItem struct {
	VideoID   string
	ChannelID string
	Status    Status
}

const videoIDLength = 11

// ValidVideoID reports whether id looks like a well-formed video id: fixed
// length, no whitespace or separator characters. Malformed ids are treated
// as ledger corruption and excluded from scheduling.
func ValidVideoID(id string) bool {
	if len(id) != videoIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		c := id[i]
		switch {
		case c >= 'a' && c <= 'z':
		case c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
		case c == '-' || c == '_':
		default:
			return false
		}
	}
	return true
}

// WatchURL builds the canonical watch URL for a video id.
func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + id
}
