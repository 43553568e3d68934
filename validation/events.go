// Package validation normalizes and validates inbound push-channel frames.
//
// The status hub passes some payloads through with the server's own field
// casing and emits others pre-canonicalized, so the same logical field can
// arrive as "agentId", "AgentId" or "agent_id". Nothing downstream should
// ever see that variance: every frame goes through NormalizeStatusEvent and
// comes out as one canonical shape or an error.
package validation

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"controlroom/pkg/api/watchtower"
)

var validate = validator.New()

// ErrNotStatusEvent marks frames that decode fine but carry no entity id,
// e.g. keep-alive or ack frames interleaved on the hub.
var ErrNotStatusEvent = errors.New("frame is not a status event")

// NormalizeStatusEvent folds a raw hub frame into the canonical StatusEvent.
// Field names are matched case- and separator-insensitively, unknown fields
// are dropped, and a missing timestamp defaults to now().
func NormalizeStatusEvent(raw []byte, now func() time.Time) (watchtower.StatusEvent, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return watchtower.StatusEvent{}, fmt.Errorf("undecodable frame: %w", err)
	}

	folded := make(map[string]json.RawMessage, len(fields))
	for key, value := range fields {
		folded[foldKey(key)] = value
	}

	// Typed hub frames that are not status updates (connect acks, pings)
	// are skipped outright, whatever other fields they carry.
	if typ := stringField(folded, "type", "event"); typ != "" && typ != watchtower.TypeStatusUpdate {
		return watchtower.StatusEvent{}, fmt.Errorf("%w: %s frame", ErrNotStatusEvent, typ)
	}

	ev := watchtower.StatusEvent{}

	// The id field names also tell us the entity kind when no explicit kind
	// field made it onto the wire.
	if id := stringField(folded, "agentid"); id != "" {
		ev.EntityID, ev.Kind = id, watchtower.KindAgent
	} else if id := stringField(folded, "executionid"); id != "" {
		ev.EntityID, ev.Kind = id, watchtower.KindExecution
	} else if id := stringField(folded, "entityid", "id"); id != "" {
		ev.EntityID = id
	}
	if ev.EntityID == "" {
		return watchtower.StatusEvent{}, ErrNotStatusEvent
	}

	if kind := stringField(folded, "kind", "entitykind", "entitytype"); kind != "" {
		ev.Kind = watchtower.EntityKind(strings.ToLower(kind))
	}
	if ev.Kind == "" {
		ev.Kind = watchtower.KindAgent
	}

	ev.EntityName = stringField(folded, "entityname", "agentname", "executionname", "name")
	ev.Status = stringField(folded, "status", "state")
	ev.Message = stringField(folded, "message", "statusmessage", "reason")
	ev.Timestamp = timeField(folded, now, "timestamp", "time", "occurredat")

	if err := validate.Struct(&ev); err != nil {
		return watchtower.StatusEvent{}, fmt.Errorf("invalid status event: %w", err)
	}
	return ev, nil
}

// foldKey lower-cases a wire field name and strips separators, so agentId,
// AgentID and agent_id all collapse to "agentid".
func foldKey(key string) string {
	key = strings.ToLower(key)
	key = strings.ReplaceAll(key, "_", "")
	key = strings.ReplaceAll(key, "-", "")
	return key
}

func stringField(fields map[string]json.RawMessage, names ...string) string {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil && s != "" {
			return s
		}
	}
	return ""
}

func timeField(fields map[string]json.RawMessage, now func() time.Time, names ...string) time.Time {
	for _, name := range names {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			if ts, err := time.Parse(time.RFC3339, s); err == nil {
				return ts
			}
			continue
		}
		var unix int64
		if err := json.Unmarshal(raw, &unix); err == nil && unix > 0 {
			return time.Unix(unix, 0).UTC()
		}
	}
	return now()
}
