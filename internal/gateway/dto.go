package gateway

import "encoding/json"

// ErrorResponse is the body of every non-2xx REST response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// TimeframeInfo is the REST response element for /api/timeframes.
type TimeframeInfo struct {
	Value string `json:"value"`
	Label string `json:"label"`
	Days  int    `json:"days"`
}

// MissedResponse is the /api/missed body: buffered envelopes in seq order.
// Oldest is the first seq still held; a client asking for anything older
// must resubscribe instead.
type MissedResponse struct {
	Channel  string            `json:"channel"`
	Oldest   int64             `json:"oldest"`
	Current  int64             `json:"current"`
	Messages []json.RawMessage `json:"messages"`
}

// SubscribeMsg is the client → server SUBSCRIBE (and UNSUBSCRIBE) request.
type SubscribeMsg struct {
	Type      string `json:"type"`  // "SUBSCRIBE" | "UNSUBSCRIBE"
	ReqID     string `json:"reqId"` // client-generated request ID
	Symbol    string `json:"symbol"`
	Timeframe string `json:"timeframe"`
}

// AckMsg confirms a subscription change.
type AckMsg struct {
	Type    string `json:"type"` // "SUBSCRIBED" | "UNSUBSCRIBED"
	ReqID   string `json:"reqId,omitempty"`
	Channel string `json:"channel"`
	Seq     int64  `json:"channel_seq"`
}

// WSErrorMsg reports a rejected client message.
type WSErrorMsg struct {
	Type  string `json:"type"` // "ERROR"
	ReqID string `json:"reqId,omitempty"`
	Error string `json:"error"`
}

// WelcomeMsg is the first frame a client receives.
type WelcomeMsg struct {
	Type     string `json:"type"` // "WELCOME"
	ClientID string `json:"clientId"`
}
