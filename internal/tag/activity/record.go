package activity

import (
	"bytes"
	"encoding/json"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/chaosinthecrd/tag/internal/tag/identity"
)

// TimeFormat is the layout of the time field in rendered records.
const TimeFormat = time.RFC3339Nano

// Record is one generated action. Time is the moment the action was observed
// to complete, not the moment the record was built.
type Record struct {
	Time        time.Time
	Username    string
	PID         int
	CommandLine string
	ProcessName string
	Activity    Payload
}

// New returns a Record attributed to the given identity.
func New(id *identity.Context, t time.Time, p Payload) Record {
	return Record{
		Time:        t,
		Username:    id.Username,
		PID:         id.PID,
		CommandLine: id.CommandLine,
		ProcessName: id.ProcessName,
		Activity:    p,
	}
}

// Type returns the activity_type of the record, or "" if it has no payload.
func (r Record) Type() Type {
	if r.Activity == nil {
		return ""
	}
	return r.Activity.Type()
}

// Fields returns the flattened, ordered representation of the record.
func (r Record) Fields() yaml.MapSlice {
	var out yaml.MapSlice
	if r.Activity != nil {
		out = append(out, yaml.MapItem{Key: "activity_type", Value: string(r.Activity.Type())})
		out = append(out, r.Activity.fields()...)
	}

	return append(out,
		yaml.MapItem{Key: "time", Value: r.Time.UTC().Format(TimeFormat)},
		yaml.MapItem{Key: "username", Value: r.Username},
		yaml.MapItem{Key: "pid", Value: r.PID},
		yaml.MapItem{Key: "command_line", Value: r.CommandLine},
		yaml.MapItem{Key: "process_name", Value: r.ProcessName},
	)
}

func (r Record) MarshalYAML() (interface{}, error) {
	return r.Fields(), nil
}

// MarshalJSON renders the record with the same flat layout and key order as
// the YAML form.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, item := range r.Fields() {
		if i > 0 {
			buf.WriteByte(',')
		}

		k, err := json.Marshal(item.Key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(item.Value)
		if err != nil {
			return nil, err
		}

		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}
