// Package notify waits for analysis jobs to complete by reading the
// completion notifications the analysis service publishes to a queue.
package notify

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedMessage is returned for queue messages that carry no notification.
var ErrMalformedMessage = errors.New("malformed notification message")

// StatusSucceeded is the notification status of a completed job.
const StatusSucceeded = "SUCCEEDED"

// Envelope is the topic envelope wrapping a notification on the queue.
type Envelope struct {
	Type             string `json:"Type"`
	MessageID        string `json:"MessageId"`
	TopicArn         string `json:"TopicArn"`
	Message          string `json:"Message"`
	Timestamp        string `json:"Timestamp"`
	SignatureVersion string `json:"SignatureVersion"`
	Signature        string `json:"Signature"`
	SigningCertURL   string `json:"SigningCertURL"`
	UnsubscribeURL   string `json:"UnsubscribeURL"`
}

// Notification reports the outcome of one analysis job.
type Notification struct {
	JobID            string   `json:"JobId"`
	Status           string   `json:"Status"`
	API              string   `json:"API"`
	JobTag           string   `json:"JobTag"`
	Timestamp        int64    `json:"Timestamp"`
	DocumentLocation Location `json:"DocumentLocation"`
}

// Location names the analysed object.
type Location struct {
	S3ObjectName string `json:"S3ObjectName"`
	S3Bucket     string `json:"S3Bucket"`
}

// Succeeded reports whether the job completed successfully.
func (n *Notification) Succeeded() bool {
	return n.Status == StatusSucceeded
}

// ParseMessage decodes a queue message body. Bodies are normally a topic
// envelope whose Message field holds the notification JSON; raw notification
// bodies are accepted too.
func ParseMessage(body []byte) (*Notification, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}

	payload := body
	if env.Message != "" {
		payload = []byte(env.Message)
	}

	var n Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedMessage, err)
	}
	if n.JobID == "" {
		return nil, fmt.Errorf("%w: no job id", ErrMalformedMessage)
	}
	return &n, nil
}
