// Package events defines the domain events crossing the host boundary.
// Field names and casing are the host wire contract; do not rename them.
package events

// Status reports a connection state change.
type Status struct {
	Type      string `json:"type"`
	Connected bool   `json:"connected"`
}

// NewStatus builds a status event.
func NewStatus(connected bool) Status {
	return Status{Type: "status", Connected: connected}
}

// Group is one entry of a groups listing.
type Group struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Groups is the response to a get_groups command.
type Groups struct {
	Type   string  `json:"type"`
	Groups []Group `json:"groups"`
	Error  string  `json:"error,omitempty"`
}

// NewGroups builds a groups event. A nil slice serializes as [], not null.
func NewGroups(groups []Group, errMsg string) Groups {
	if groups == nil {
		groups = []Group{}
	}
	return Groups{Type: "groups", Groups: groups, Error: errMsg}
}

// Monitoring reports whether a group is being monitored.
type Monitoring struct {
	Type       string `json:"type"`
	Monitoring bool   `json:"monitoring"`
}

// NewMonitoring builds a monitoringStatus event.
func NewMonitoring(on bool) Monitoring {
	return Monitoring{Type: "monitoringStatus", Monitoring: on}
}

// TextBody is the nested payload of a text event. The capitalized JSON
// keys mirror what the host deserializes.
type TextBody struct {
	ID         string `json:"Id"`
	From       string `json:"From"`
	Author     string `json:"Author"`
	Kind       string `json:"Type"`
	Timestamp  int64  `json:"Timestamp"`
	Text       string `json:"Text"`
	SenderName string `json:"SenderName"`
}

// Text is a forwarded text message from the monitored group.
type Text struct {
	Type string   `json:"type"`
	Text TextBody `json:"Text"`
}

// NewText builds a text event.
func NewText(body TextBody) Text {
	return Text{Type: "text", Text: body}
}

// MediaBody is the nested payload of a media event. Data is the
// base64-encoded file content.
type MediaBody struct {
	ID         string `json:"Id"`
	From       string `json:"From"`
	Author     string `json:"Author"`
	MimeType   string `json:"Type"`
	Timestamp  int64  `json:"Timestamp"`
	Filename   string `json:"Filename"`
	Data       string `json:"Data"`
	Size       int    `json:"Size"`
	SenderName string `json:"SenderName"`
	Caption    string `json:"Body"`
}

// Media is a forwarded media message from the monitored group.
type Media struct {
	Type  string    `json:"type"`
	Media MediaBody `json:"Media"`
}

// NewMedia builds a media event.
func NewMedia(body MediaBody) Media {
	return Media{Type: "media", Media: body}
}

// Error is a host-visible failure report.
type Error struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// NewError builds an error event.
func NewError(message string) Error {
	return Error{Type: "error", Message: message}
}
