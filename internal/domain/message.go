package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Channel represents the delivery channel.
type Channel string

const (
	ChannelEmail Channel = "email"
	ChannelSMS   Channel = "sms"
	ChannelPush  Channel = "push"
)

func (c Channel) String() string { return string(c) }

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelSMS, ChannelPush:
		return true
	}
	return false
}

func ParseChannelFromString(s string) (Channel, error) {
	ch := Channel(strings.ToLower(strings.TrimSpace(s)))
	if !ch.IsValid() {
		return "", fmt.Errorf("%w: invalid channel %q", ErrValidation, s)
	}
	return ch, nil
}

// UnmarshalJSON accepts channel values case-insensitively and normalizes
// them to lowercase.
func (c *Channel) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = Channel(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// Priority represents the message priority level, ordered low < normal <
// high < critical.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityNormal   Priority = "normal"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

func (p Priority) String() string { return string(p) }

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical:
		return true
	}
	return false
}

// Rank returns the ordering value of the priority (low=0 .. critical=3).
// Unknown priorities rank as normal.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 2
	case PriorityCritical:
		return 3
	default:
		return 1
	}
}

func ParsePriorityFromString(s string) (Priority, error) {
	pr := Priority(strings.ToLower(strings.TrimSpace(s)))
	if !pr.IsValid() {
		return "", fmt.Errorf("%w: invalid priority %q", ErrValidation, s)
	}
	return pr, nil
}

var priorityByOrdinal = [...]Priority{PriorityLow, PriorityNormal, PriorityHigh, PriorityCritical}

// UnmarshalJSON accepts either the string form ("low".."critical",
// case-insensitive) or the legacy numeric enum (0..3) used by older
// producers.
func (p *Priority) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		*p = PriorityNormal
		return nil
	}

	if trimmed[0] != '"' {
		ordinal, err := strconv.Atoi(trimmed)
		if err != nil {
			return fmt.Errorf("invalid priority %s", trimmed)
		}
		if ordinal < 0 || ordinal >= len(priorityByOrdinal) {
			return fmt.Errorf("invalid priority ordinal %d", ordinal)
		}
		*p = priorityByOrdinal[ordinal]
		return nil
	}

	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = Priority(strings.ToLower(strings.TrimSpace(raw)))
	return nil
}

// DefaultMaxAttempts applies when a message does not carry its own ceiling.
const DefaultMaxAttempts = 3

// NotificationMessage is the unit of work taken from the broker. Content is
// immutable once produced; only the broker-side delivery count moves across
// redeliveries.
type NotificationMessage struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Title        string         `json:"title"`
	Content      string         `json:"content"`
	Channel      Channel        `json:"channel"`
	Category     string         `json:"category,omitempty"`
	Priority     Priority       `json:"priority"`
	ScheduledFor *time.Time     `json:"scheduledFor,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	CreatedAt    time.Time      `json:"createdAt"`
	Attempts     int            `json:"attempts"`
	MaxAttempts  int            `json:"maxAttempts"`
}

func (m NotificationMessage) Validate() error {
	if strings.TrimSpace(m.ID) == "" {
		return fmt.Errorf("%w: id is required", ErrValidation)
	}
	if strings.TrimSpace(m.UserID) == "" {
		return fmt.Errorf("%w: userId is required", ErrValidation)
	}
	if !m.Channel.IsValid() {
		return fmt.Errorf("%w: invalid channel %q", ErrValidation, m.Channel)
	}
	return nil
}

// AttemptCeiling returns the message's retry ceiling, falling back to the
// default when the producer left it unset.
func (m NotificationMessage) AttemptCeiling() int {
	if m.MaxAttempts <= 0 {
		return DefaultMaxAttempts
	}
	return m.MaxAttempts
}

// MetadataString reads the first non-empty string value among the given
// metadata keys. Non-string scalar values are rendered with fmt.
func (m NotificationMessage) MetadataString(keys ...string) string {
	for _, key := range keys {
		value, ok := m.Metadata[key]
		if !ok || value == nil {
			continue
		}
		switch v := value.(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64, bool, int, int64:
			return fmt.Sprint(v)
		}
	}
	return ""
}
