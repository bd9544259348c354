package activity

import (
	"net/netip"

	"gopkg.in/yaml.v2"
)

// Type is the activity_type discriminant written with every record.
type Type string

const (
	TypeNetwork      Type = "network"
	TypeFork         Type = "fork"
	TypeExec         Type = "exec"
	TypeFileCreated  Type = "file_created"
	TypeFileModified Type = "file_modified"
	TypeFileDeleted  Type = "file_deleted"
)

// ProtocolTCP is the protocol label of network records.
const ProtocolTCP = "TCP"

// Payload is the activity specific part of a Record. The set of payloads is
// closed; its fields are flattened next to the common record fields.
type Payload interface {
	Type() Type
	fields() yaml.MapSlice
}

type FileCreated struct {
	Path string
}

func (FileCreated) Type() Type { return TypeFileCreated }

func (p FileCreated) fields() yaml.MapSlice {
	return yaml.MapSlice{{Key: "path", Value: p.Path}}
}

type FileModified struct {
	Path string
}

func (FileModified) Type() Type { return TypeFileModified }

func (p FileModified) fields() yaml.MapSlice {
	return yaml.MapSlice{{Key: "path", Value: p.Path}}
}

type FileDeleted struct {
	Path string
}

func (FileDeleted) Type() Type { return TypeFileDeleted }

func (p FileDeleted) fields() yaml.MapSlice {
	return yaml.MapSlice{{Key: "path", Value: p.Path}}
}

// ProcessForked is emitted by the parent once the child exists.
type ProcessForked struct {
	ChildPID int
}

func (ProcessForked) Type() Type { return TypeFork }

func (p ProcessForked) fields() yaml.MapSlice {
	return yaml.MapSlice{{Key: "child_pid", Value: p.ChildPID}}
}

// ProcessExecuted describes the program the child replaced itself with.
type ProcessExecuted struct {
	ParentPID int
}

func (ProcessExecuted) Type() Type { return TypeExec }

func (p ProcessExecuted) fields() yaml.MapSlice {
	return yaml.MapSlice{{Key: "parent_pid", Value: p.ParentPID}}
}

// Network is a single probe written over a connected socket.
type Network struct {
	Source      netip.AddrPort
	Destination netip.AddrPort
	Protocol    string
	BytesSent   int
}

func (Network) Type() Type { return TypeNetwork }

func (p Network) fields() yaml.MapSlice {
	return yaml.MapSlice{
		{Key: "destination", Value: p.Destination.String()},
		{Key: "source", Value: p.Source.String()},
		{Key: "protocol", Value: p.Protocol},
		{Key: "bytes_sent", Value: p.BytesSent},
	}
}
