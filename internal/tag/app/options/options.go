package options

import (
	"github.com/spf13/pflag"

	"github.com/chaosinthecrd/tag/internal/flags"
	"github.com/chaosinthecrd/tag/internal/tag/network"
	"github.com/chaosinthecrd/tag/internal/tag/sink"
	"github.com/chaosinthecrd/tag/internal/tag/timeline"
)

// Options are the flag options of a tag command.
type Options struct {
	*flags.Flags

	// Output are options controlling what a successful run writes.
	Output OptionsOutput

	// File are options specific to the file command.
	File OptionsFile

	// Process are options specific to the fork command.
	Process OptionsProcess

	// Network are options specific to the network command.
	Network OptionsNetwork

	// Playbook are options specific to the playbook command.
	Playbook OptionsPlaybook
}

// OptionsOutput is options for the activity log and its exports.
type OptionsOutput struct {
	// LogPath is the path the YAML activity log is written to.
	LogPath string

	// TimelineDB is the path of a SQLite timeline to export records to.
	TimelineDB string

	// TimelineDSN is a PostgreSQL connection string to export records to.
	TimelineDSN string

	// AttestationPath is the path an in-toto attestation of the log is
	// written to.
	AttestationPath string

	// SigningKeyPath is the PEM private key the attestation is signed with.
	SigningKeyPath string
}

type OptionsFile struct {
	// Path is the directory the file is created in.
	Path string

	// Extension is appended to the generated file name.
	Extension string

	// Modify writes to the file before it is deleted.
	Modify bool
}

type OptionsProcess struct {
	// Exec replaces the forked child with a program.
	Exec bool
}

type OptionsNetwork struct {
	// Target is the host:port connected to.
	Target string
}

type OptionsPlaybook struct {
	// Path is the playbook YAML file.
	Path string
}

// New returns options carrying only the output flags.
func New() *Options {
	o := new(Options)
	o.Flags = flags.New().
		Add("Output", o.addOutputFlags)

	return o
}

func (o *Options) WithFile() *Options {
	o.Flags.Add("File", o.addFileFlags)
	return o
}

func (o *Options) WithProcess() *Options {
	o.Flags.Add("Process", o.addProcessFlags)
	return o
}

func (o *Options) WithNetwork() *Options {
	o.Flags.Add("Network", o.addNetworkFlags)
	return o
}

func (o *Options) WithPlaybook() *Options {
	o.Flags.Add("Playbook", o.addPlaybookFlags)
	return o
}

// TimelineDriver returns the timeline driver and data source to export to.
// ok is false when no export was requested.
func (o *Options) TimelineDriver() (driver, dsn string, ok bool) {
	switch {
	case len(o.Output.TimelineDSN) > 0:
		return timeline.DriverPostgres, o.Output.TimelineDSN, true
	case len(o.Output.TimelineDB) > 0:
		return timeline.DriverSQLite, o.Output.TimelineDB, true
	default:
		return "", "", false
	}
}

func (o *Options) addOutputFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Output.LogPath, "log-path", sink.DefaultLogPath,
		"Path the activity log is written to.")
	fs.StringVar(&o.Output.TimelineDB, "timeline-db", "",
		"Path of a SQLite log2timeline database to export activity to.")
	fs.StringVar(&o.Output.TimelineDSN, "timeline-dsn", "",
		"PostgreSQL connection string of a log2timeline database to export activity to.")
	fs.StringVar(&o.Output.AttestationPath, "attestation", "",
		"Path an in-toto attestation of the activity log is written to.")
	fs.StringVar(&o.Output.SigningKeyPath, "signing-key", "",
		"Path to a PEM private key used to sign the attestation.")
}

func (o *Options) addFileFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.File.Path, "path", "",
		"Directory the file is created in.")
	fs.StringVar(&o.File.Extension, "extension", "",
		"Extension of the created file, for example .txt.")
	fs.BoolVar(&o.File.Modify, "modify", false,
		"Write to the file before deleting it.")
}

func (o *Options) addProcessFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&o.Process.Exec, "exec", false,
		"Replace the forked child with /bin/true.")
}

func (o *Options) addNetworkFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Network.Target, "target", network.DefaultTarget,
		"host:port to connect to.")
}

func (o *Options) addPlaybookFlags(fs *pflag.FlagSet) {
	fs.StringVar(&o.Playbook.Path, "playbook", "",
		"Path to the playbook YAML file.")
}
