package playbook

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v2"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    []Spec
		wantErr string
	}{
		{
			name: "all activity types in order",
			input: `
- activity_type: file
  path: /tmp
  extension: .txt
  modify: true
- activity_type: fork
  exec: true
- activity_type: network
- activity_type: process
`,
			want: []Spec{
				File{Modify: true, Directory: "/tmp", Extension: ".txt"},
				Process{Exec: true},
				Network{},
				Process{},
			},
		},
		{
			name: "defaults",
			input: `
- activity_type: file
  path: /var/tmp
  extension: ""
- activity_type: fork
`,
			want: []Spec{
				File{Directory: "/var/tmp"},
				Process{},
			},
		},
		{
			name:    "empty",
			input:   "",
			wantErr: ErrEmpty.Error(),
		},
		{
			name:    "unknown activity",
			input:   "- activity_type: registry\n",
			wantErr: `activity 1: unknown activity_type "registry"`,
		},
		{
			name:    "missing activity type",
			input:   "- exec: true\n",
			wantErr: "activity 1: activity_type is required",
		},
		{
			name:    "file without path",
			input:   "- activity_type: network\n- activity_type: file\n  extension: .txt\n",
			wantErr: `activity 2: file activity requires "path"`,
		},
		{
			name:    "file without extension",
			input:   "- activity_type: file\n  path: /tmp\n",
			wantErr: `activity 1: file activity requires "extension"`,
		},
		{
			name:    "field of another activity",
			input:   "- activity_type: network\n  exec: true\n",
			wantErr: `activity 1: "exec" is not a field of network activities`,
		},
		{
			name:    "unknown field",
			input:   "- activity_type: fork\n  exce: true\n",
			wantErr: "field exce not found",
		},
		{
			name:    "not a list",
			input:   "activity_type: network\n",
			wantErr: "cannot unmarshal",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse([]byte(tt.input))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMarshalExplicitFields(t *testing.T) {
	out, err := Marshal([]Spec{File{Directory: "/tmp", Extension: ".bin"}, Process{}, Network{}})
	require.NoError(t, err)

	want := `- activity_type: file
  modify: false
  path: /tmp
  extension: .bin
- activity_type: fork
  exec: false
- activity_type: network
`
	assert.Equal(t, want, string(out))
}

func TestRoundTrip(t *testing.T) {
	doc := `- activity_type: file
  modify: true
  path: /tmp/edr
  extension: .ps1
- activity_type: fork
  exec: true
- activity_type: network
- activity_type: fork
  exec: false
`
	specs, err := Parse([]byte(doc))
	require.NoError(t, err)

	out, err := Marshal(specs)
	require.NoError(t, err)

	var want, got interface{}
	require.NoError(t, yaml.Unmarshal([]byte(doc), &want))
	require.NoError(t, yaml.Unmarshal(out, &got))
	assert.Equal(t, want, got)

	again, err := Parse(out)
	require.NoError(t, err)
	assert.Equal(t, specs, again)
}

func TestLoad(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/playbooks/basic.yaml", []byte("- activity_type: network\n"), 0o644))

	specs, err := Load(fs, "/playbooks/basic.yaml")
	require.NoError(t, err)
	assert.Equal(t, []Spec{Network{}}, specs)

	_, err = Load(fs, "/playbooks/missing.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read playbook")
}
