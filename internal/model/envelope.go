package model

import "time"

// Envelope is the response returned to the caller. Keys other than the
// reserved ones pass through untouched.
type Envelope map[string]interface{}

// Reserved envelope keys.
const (
	KeyStatus    = "status"
	KeyResponse  = "response"
	KeyProducts  = "products"
	KeyType      = "type"
	KeyTimestamp = "timestamp"
	KeyError     = "error"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"

	TypeConversational = "conversational"
	TypeProductSearch  = "product_search"
)

// TimestampLayout is ISO-8601 with microseconds.
const TimestampLayout = "2006-01-02T15:04:05.000000Z07:00"

// Timestamp formats t in UTC with TimestampLayout.
func Timestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ReservedKeys lists the keys every envelope must carry.
var ReservedKeys = []string{KeyStatus, KeyResponse, KeyProducts, KeyType, KeyTimestamp}

func (e Envelope) Status() string {
	s, _ := e[KeyStatus].(string)
	return s
}

func (e Envelope) Type() string {
	s, _ := e[KeyType].(string)
	return s
}

func (e Envelope) Response() string {
	s, _ := e[KeyResponse].(string)
	return s
}
