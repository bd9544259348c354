package activity

import (
	"encoding/json"
	"net/netip"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"

	"github.com/chaosinthecrd/tag/internal/tag/identity"
)

var testIdentity = &identity.Context{
	Username:    "alice",
	PID:         4242,
	CommandLine: "tag file --path /tmp --extension .txt",
	ProcessName: "tag",
}

var testTime = time.Date(2024, 3, 14, 15, 9, 26, 535897000, time.UTC)

func TestRecordYAMLIsFlat(t *testing.T) {
	tests := []struct {
		name    string
		payload Payload
		want    map[string]interface{}
	}{
		{
			name:    "file created",
			payload: FileCreated{Path: "/tmp/tag-1.txt"},
			want:    map[string]interface{}{"activity_type": "file_created", "path": "/tmp/tag-1.txt"},
		},
		{
			name:    "file modified",
			payload: FileModified{Path: "/tmp/tag-1.txt"},
			want:    map[string]interface{}{"activity_type": "file_modified", "path": "/tmp/tag-1.txt"},
		},
		{
			name:    "file deleted",
			payload: FileDeleted{Path: "/tmp/tag-1.txt"},
			want:    map[string]interface{}{"activity_type": "file_deleted", "path": "/tmp/tag-1.txt"},
		},
		{
			name:    "fork",
			payload: ProcessForked{ChildPID: 77},
			want:    map[string]interface{}{"activity_type": "fork", "child_pid": 77},
		},
		{
			name:    "exec",
			payload: ProcessExecuted{ParentPID: 4242},
			want:    map[string]interface{}{"activity_type": "exec", "parent_pid": 4242},
		},
		{
			name: "network",
			payload: Network{
				Source:      netip.MustParseAddrPort("10.0.0.2:51234"),
				Destination: netip.MustParseAddrPort("142.250.0.1:80"),
				Protocol:    ProtocolTCP,
				BytesSent:   4,
			},
			want: map[string]interface{}{
				"activity_type": "network",
				"source":        "10.0.0.2:51234",
				"destination":   "142.250.0.1:80",
				"protocol":      "TCP",
				"bytes_sent":    4,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := yaml.Marshal(New(testIdentity, testTime, tt.payload))
			require.NoError(t, err)

			var got map[string]interface{}
			require.NoError(t, yaml.Unmarshal(out, &got))

			for k, v := range tt.want {
				assert.Equal(t, v, got[k], "field %s", k)
			}
			assert.Equal(t, "2024-03-14T15:09:26.535897Z", got["time"])
			assert.Equal(t, "alice", got["username"])
			assert.Equal(t, 4242, got["pid"])
			assert.Equal(t, testIdentity.CommandLine, got["command_line"])
			assert.Equal(t, "tag", got["process_name"])
			assert.Len(t, got, len(tt.want)+5)
		})
	}
}

func TestRecordYAMLKeyOrder(t *testing.T) {
	out, err := yaml.Marshal(New(testIdentity, testTime, ProcessForked{ChildPID: 9}))
	require.NoError(t, err)

	want := `activity_type: fork
child_pid: 9
time: "2024-03-14T15:09:26.535897Z"
username: alice
pid: 4242
command_line: tag file --path /tmp --extension .txt
process_name: tag
`
	assert.Equal(t, want, string(out))
}

func TestRecordJSON(t *testing.T) {
	out, err := json.Marshal(New(testIdentity, testTime, FileDeleted{Path: "/tmp/x"}))
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"activity_type": "file_deleted",
		"path": "/tmp/x",
		"time": "2024-03-14T15:09:26.535897Z",
		"username": "alice",
		"pid": 4242,
		"command_line": "tag file --path /tmp --extension .txt",
		"process_name": "tag"
	}`, string(out))
	assert.Regexp(t, `^\{"activity_type":"file_deleted","path":`, string(out))
}

func TestRecordTimeIsUTC(t *testing.T) {
	local := testTime.In(time.FixedZone("CEST", 2*60*60))
	fields := New(testIdentity, local, FileCreated{Path: "/tmp/x"}).Fields()

	for _, f := range fields {
		if f.Key == "time" {
			assert.Equal(t, "2024-03-14T15:09:26.535897Z", f.Value)
			return
		}
	}
	t.Fatal("time field missing")
}
