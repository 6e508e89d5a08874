// Package pipeline implements the ingestion pipeline: deduplicating incoming
// messages against the record store, grouping multi-photo bursts into logical
// events, enriching each event through the classifier, and persisting the
// results in one atomic save per pass.
package pipeline

import (
	"strings"
	"time"
)

// PhotoSize is one resolution variant of a photo, identified by a transport
// file reference plus a stable unique id used for download naming.
type PhotoSize struct {
	FileID       string
	FileUniqueID string
	Width        int
	Height       int
}

// Message is one inbound chat message, already detached from the transport.
// Photo holds the size variants of the message's single photo, largest last;
// it is empty for text-only messages.
type Message struct {
	ID       int
	ChatID   int64
	Sender   string
	Text     string
	Photo    []PhotoSize
	GroupKey string
	SentAt   time.Time
}

// BestPhoto returns the highest-resolution variant of the message's photo.
func (m Message) BestPhoto() (PhotoSize, bool) {
	if len(m.Photo) == 0 {
		return PhotoSize{}, false
	}
	best := m.Photo[0]
	for _, p := range m.Photo[1:] {
		if p.Width*p.Height >= best.Width*best.Height {
			best = p
		}
	}
	return best, true
}

// Event is one logical meal submission, possibly composed of several messages
// uploaded as a burst. Messages are kept in arrival order.
type Event struct {
	Key      string
	Messages []Message
}

// Representative returns the first member by arrival order. It supplies the
// sender, message id, and timestamp for the eventual record.
func (e *Event) Representative() Message {
	return e.Messages[0]
}

// anyKnown reports whether any member's id is in the known set.
func (e *Event) anyKnown(known map[int]struct{}) bool {
	for _, m := range e.Messages {
		if _, seen := known[m.ID]; seen {
			return true
		}
	}
	return false
}

// CombinedText joins the non-empty texts of all member messages with a single
// space, falling back to "Food photo" when no member carries any text.
func (e *Event) CombinedText() string {
	var parts []string
	for _, m := range e.Messages {
		if m.Text != "" {
			parts = append(parts, m.Text)
		}
	}
	if len(parts) == 0 {
		return "Food photo"
	}
	return strings.Join(parts, " ")
}
