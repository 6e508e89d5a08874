package pipeline

import "fmt"

// GroupMessages partitions a batch of messages into logical events.
//
// Messages from other chats are dropped, and surviving messages are keyed by
// their group key, or by a synthesized singleton key when they have none, so
// ungrouped messages never merge with each other or with a real group. An
// event with any member already in known is then dropped whole: a recorded
// event carries only its representative's id, so one known member means the
// submission is already durably recorded and must never be re-enriched.
// Events are returned in first-appearance order of their key within the batch.
func GroupMessages(msgs []Message, chatID int64, known map[int]struct{}) []*Event {
	var events []*Event
	index := make(map[string]*Event)

	for _, m := range msgs {
		if m.ChatID != chatID {
			continue
		}

		key := m.GroupKey
		if key == "" {
			key = fmt.Sprintf("msg:%d", m.ID)
		}

		ev, ok := index[key]
		if !ok {
			ev = &Event{Key: key}
			index[key] = ev
			events = append(events, ev)
		}
		ev.Messages = append(ev.Messages, m)
	}

	var fresh []*Event
	for _, ev := range events {
		if ev.anyKnown(known) {
			continue
		}
		fresh = append(fresh, ev)
	}
	return fresh
}
