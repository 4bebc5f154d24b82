// ABOUTME: Wire frame model for the gateway control protocol (version 3).
// ABOUTME: Defines request/response/event frames and their JSON encoding rules.

package wire

import (
	"encoding/json"
	"fmt"
)

// Protocol is the control protocol version this SDK speaks. It is exposed so
// callers can negotiate compatibility with the gateway process, but it is not
// itself carried on individual frames.
const Protocol = 3

// Frame type discriminators carried in the "type" field of every frame.
const (
	TypeRequest  = "req"
	TypeResponse = "res"
	TypeEvent    = "event"
)

// ErrorCode is the closed set of error codes a failed response may carry.
type ErrorCode string

const (
	CodeNotLinked      ErrorCode = "NOT_LINKED"
	CodeNotPaired      ErrorCode = "NOT_PAIRED"
	CodeAgentTimeout   ErrorCode = "AGENT_TIMEOUT"
	CodeInvalidRequest ErrorCode = "INVALID_REQUEST"
	CodeUnavailable    ErrorCode = "UNAVAILABLE"
)

// FrameError is the error shape carried on responses with ok=false.
type FrameError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// Error implements the error interface so application errors can be returned
// to callers untouched.
func (e *FrameError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Frame is one discrete protocol message: a Request, Response, or Event.
type Frame interface {
	frameType() string
}

// Request asks the gateway to perform a method. ID is a caller-generated
// correlation token that links the eventual Response back to this Request.
// Protocol v3 constrains params values to strings.
type Request struct {
	Type   string            `json:"type"`
	ID     string            `json:"id"`
	Method string            `json:"method"`
	Params map[string]string `json:"params,omitempty"`
}

func (Request) frameType() string { return TypeRequest }

// Response answers exactly one outstanding Request, matched by ID. OK
// discriminates success from failure; Error is populated only on failure.
type Response struct {
	Type    string            `json:"type"`
	ID      string            `json:"id"`
	OK      bool              `json:"ok"`
	Payload map[string]string `json:"payload,omitempty"`
	Error   *FrameError       `json:"error,omitempty"`
}

func (Response) frameType() string { return TypeResponse }

// Event is an unsolicited server-pushed frame. Seq is a per-connection
// monotonic counter assigned by the server (resets on reconnect); consumers
// use it to detect gaps, the client does not enforce it.
type Event struct {
	Type    string            `json:"type"`
	Event   string            `json:"event"`
	Payload map[string]string `json:"payload,omitempty"`
	Seq     *int64            `json:"seq,omitempty"`
}

func (Event) frameType() string { return TypeEvent }

// Encode marshals a frame to its JSON wire form, stamping the type
// discriminator so callers cannot produce an untagged frame.
func Encode(f Frame) ([]byte, error) {
	switch v := f.(type) {
	case *Request:
		v.Type = TypeRequest
		return json.Marshal(v)
	case *Response:
		v.Type = TypeResponse
		return json.Marshal(v)
	case *Event:
		v.Type = TypeEvent
		return json.Marshal(v)
	default:
		return nil, fmt.Errorf("unsupported frame type %T", f)
	}
}

// Decode parses one JSON frame and validates its shape. An unknown type tag,
// a request without id/method, or a failed response carrying neither payload
// nor error is a protocol violation and is rejected.
func Decode(data []byte) (Frame, error) {
	var tag struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("parsing frame: %w", err)
	}

	switch tag.Type {
	case TypeRequest:
		var req Request
		if err := json.Unmarshal(data, &req); err != nil {
			return nil, fmt.Errorf("parsing request frame: %w", err)
		}
		if req.ID == "" {
			return nil, fmt.Errorf("request frame missing id")
		}
		if req.Method == "" {
			return nil, fmt.Errorf("request frame missing method")
		}
		return &req, nil

	case TypeResponse:
		var res Response
		if err := json.Unmarshal(data, &res); err != nil {
			return nil, fmt.Errorf("parsing response frame: %w", err)
		}
		if res.ID == "" {
			return nil, fmt.Errorf("response frame missing id")
		}
		if !res.OK && res.Error == nil && res.Payload == nil {
			return nil, fmt.Errorf("failed response %s carries neither payload nor error", res.ID)
		}
		return &res, nil

	case TypeEvent:
		var evt Event
		if err := json.Unmarshal(data, &evt); err != nil {
			return nil, fmt.Errorf("parsing event frame: %w", err)
		}
		if evt.Event == "" {
			return nil, fmt.Errorf("event frame missing event name")
		}
		return &evt, nil

	case "":
		return nil, fmt.Errorf("frame missing type tag")

	default:
		return nil, fmt.Errorf("unknown frame type %q", tag.Type)
	}
}
