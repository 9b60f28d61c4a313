package queue

import (
	"encoding/json"
	"fmt"
)

// EventReportGenerated is sent after an analysis and its report are saved.
const EventReportGenerated = "report.generated"

// CurrentVersion is the payload version written by this service.
const CurrentVersion = 1

// Message is the payload sent to the report notification consumer.
type Message struct {
	Event       string `json:"event"`
	ReportID    string `json:"reportId"`
	AnalysisID  string `json:"analysisId"`
	UserID      string `json:"userId"`
	ReportURL   string `json:"reportUrl"`
	GeneratedAt string `json:"generatedAt"`
	Version     int    `json:"version"`
}

// EncodeMessage returns the JSON representation of a message.
func EncodeMessage(msg Message) ([]byte, error) {
	if msg.Event == "" {
		return nil, fmt.Errorf("message event is required")
	}
	if msg.Version == 0 {
		msg.Version = CurrentVersion
	}
	return json.Marshal(msg)
}

// DecodeMessage parses a JSON payload into a Message.
func DecodeMessage(payload []byte) (Message, error) {
	var msg Message
	if err := json.Unmarshal(payload, &msg); err != nil {
		return Message{}, err
	}
	if msg.Version > CurrentVersion {
		return Message{}, fmt.Errorf("unsupported message version %d", msg.Version)
	}
	return msg, nil
}
