package types

import (
	"encoding/json"
	"fmt"
)

// DecodeRequest reads a skill request field by field. Only a body that is not
// a JSON object is an error; a field of the wrong type decodes as its zero
// value, so one stray field never costs the caller the fields it does need.
func DecodeRequest(raw []byte) (RequestEnvelope, error) {
	var root map[string]any
	if err := json.Unmarshal(raw, &root); err != nil {
		return RequestEnvelope{}, fmt.Errorf("types: decode request: %w", err)
	}
	if root == nil {
		// A literal null carries no fields at all.
		return RequestEnvelope{}, nil
	}

	var env RequestEnvelope
	env.Version = str(root, "version")

	if s := obj(root, "session"); s != nil {
		env.Session.New, _ = s["new"].(bool)
		env.Session.SessionID = str(s, "sessionId")
		if a := obj(s, "application"); a != nil {
			env.Session.Application = &Application{ApplicationID: str(a, "applicationId")}
		}
		if u := obj(s, "user"); u != nil {
			env.Session.User = &User{UserID: str(u, "userId")}
		}
	}

	if r := obj(root, "request"); r != nil {
		env.Request = Request{
			Type:      str(r, "type"),
			RequestID: str(r, "requestId"),
			Timestamp: str(r, "timestamp"),
			Locale:    str(r, "locale"),
			Reason:    str(r, "reason"),
		}
		if in := obj(r, "intent"); in != nil {
			env.Request.Intent = &Intent{Name: str(in, "name"), Slots: slots(obj(in, "slots"))}
		}
		if e := obj(r, "error"); e != nil {
			env.Request.Error = &RequestError{Type: str(e, "type"), Message: str(e, "message")}
		}
	}
	return env, nil
}

func obj(m map[string]any, key string) map[string]any {
	v, _ := m[key].(map[string]any)
	return v
}

func str(m map[string]any, key string) string {
	v, _ := m[key].(string)
	return v
}

func slots(m map[string]any) map[string]Slot {
	if len(m) == 0 {
		return nil
	}
	out := make(map[string]Slot, len(m))
	for name, v := range m {
		s, ok := v.(map[string]any)
		if !ok {
			continue
		}
		out[name] = Slot{Name: str(s, "name"), Value: str(s, "value")}
	}
	return out
}
