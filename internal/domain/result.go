package domain

import "time"

// ProcessingResult is the outcome of one dispatch attempt.
type ProcessingResult struct {
	Success        bool           `json:"success"`
	ErrorMessage   string         `json:"errorMessage,omitempty"`
	ProviderID     string         `json:"providerId,omitempty"`
	ProcessedAt    time.Time      `json:"processedAt"`
	ProcessingTime time.Duration  `json:"processingTime"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

// Status values pushed to the external status sink.
type Status string

const (
	StatusProcessing Status = "processing"
	StatusSent       Status = "sent"
	StatusFailed     Status = "failed"
)

func (s Status) String() string { return string(s) }

// DeadLetterReason is the terminal reason code attached to a message as it
// leaves the main queue.
type DeadLetterReason string

const (
	ReasonInvalidMessage      DeadLetterReason = "InvalidMessage"
	ReasonMaxAttemptsExceeded DeadLetterReason = "MaxAttemptsExceeded"
	ReasonProcessingError     DeadLetterReason = "ProcessingError"
)

func (r DeadLetterReason) String() string { return string(r) }

// Action is the broker operation the consumer must perform for a message.
type Action string

const (
	// ActionAck completes the message.
	ActionAck Action = "ack"
	// ActionRetry keeps the message for redelivery after Decision.Delay,
	// consuming one delivery attempt.
	ActionRetry Action = "retry"
	// ActionDefer keeps the message for redelivery without consuming an
	// attempt (quiet hours, oracle outage).
	ActionDefer Action = "defer"
	// ActionDeadLetter removes the message to the dead-letter queue.
	ActionDeadLetter Action = "deadletter"
)

// Decision is the terminal verdict for one delivery, produced by the retry
// controller and executed by the queue consumer. Exactly one broker
// operation corresponds to each action.
type Decision struct {
	Action     Action
	Delay      time.Duration
	Reason     DeadLetterReason
	Diagnostic string
}

func Ack() Decision { return Decision{Action: ActionAck} }

func Retry(delay time.Duration) Decision {
	return Decision{Action: ActionRetry, Delay: delay}
}

func Defer(delay time.Duration, diagnostic string) Decision {
	return Decision{Action: ActionDefer, Delay: delay, Diagnostic: diagnostic}
}

func DeadLetter(reason DeadLetterReason, diagnostic string) Decision {
	return Decision{Action: ActionDeadLetter, Reason: reason, Diagnostic: diagnostic}
}
