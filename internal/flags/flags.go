package flags

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	cliflag "k8s.io/component-base/cli/flag"
	"k8s.io/component-base/term"
	"k8s.io/klog/v2"
	"k8s.io/klog/v2/klogr"
)

// EnvPrefix prefixes the environment variables flags can be set from.
const EnvPrefix = "TAG"

type RegisterFunc func(fs *pflag.FlagSet)

type section struct {
	name string
	fn   RegisterFunc
}

// Flags is a shared struct that stores and manages flags for an app.
type Flags struct {
	logLevel   string
	configPath string
	extra      []section
	fs         *pflag.FlagSet

	// Logr is a shared logger.
	Logr logr.Logger
}

func New() *Flags {
	return &Flags{Logr: logr.Discard()}
}

// Add registers a named section of flags, printed under name in help output.
func (f *Flags) Add(name string, fn RegisterFunc) *Flags {
	f.extra = append(f.extra, section{name: name, fn: fn})
	return f
}

// Prepare registers all flags on cmd and installs sectioned usage and help.
func (f *Flags) Prepare(cmd *cobra.Command) *Flags {
	nfs := f.addFlags(cmd)

	usageFmt := "Usage:\n  %s\n"
	cols, _, _ := term.TerminalSize(cmd.OutOrStdout())
	cmd.SetUsageFunc(func(cmd *cobra.Command) error {
		fmt.Fprintf(cmd.OutOrStderr(), usageFmt, cmd.UseLine())
		cliflag.PrintSections(cmd.OutOrStderr(), nfs, cols)
		return nil
	})

	cmd.SetHelpFunc(func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\n\n"+usageFmt, cmd.Long, cmd.UseLine())
		cliflag.PrintSections(cmd.OutOrStdout(), nfs, cols)
	})

	return f
}

// Complete overlays environment variables and the config file onto flags
// that were not set on the command line, then builds the logger.
func (f *Flags) Complete() error {
	if f.fs != nil {
		if err := f.overlay(); err != nil {
			return err
		}
	}

	klogFlags := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(klogFlags)
	if err := klogFlags.Set("v", f.logLevel); err != nil {
		return fmt.Errorf("invalid log level %q: %w", f.logLevel, err)
	}
	f.Logr = klogr.New()

	return nil
}

func (f *Flags) addFlags(cmd *cobra.Command) cliflag.NamedFlagSets {
	var nfs cliflag.NamedFlagSets

	for _, s := range f.extra {
		s.fn(nfs.FlagSet(s.name))
	}
	f.addLoggingFlags(nfs.FlagSet("Logging"))

	fs := cmd.Flags()
	for _, name := range nfs.Order {
		fs.AddFlagSet(nfs.FlagSets[name])
	}
	f.fs = fs

	return nfs
}

func (f *Flags) addLoggingFlags(fs *pflag.FlagSet) {
	fs.StringVarP(&f.logLevel, "log-level", "v", "0",
		"Log level (0-5).")
	fs.StringVar(&f.configPath, "config", "",
		"Path to a YAML file holding flag values, keyed by flag name.")
}

func (f *Flags) overlay() error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if !f.fs.Changed("config") {
		if path := v.GetString("config"); path != "" {
			f.configPath = path
		}
	}

	if f.configPath != "" {
		v.SetConfigFile(f.configPath)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("failed to read config file %q: %w", f.configPath, err)
		}
	}

	var errs []error
	f.fs.VisitAll(func(fl *pflag.Flag) {
		if fl.Changed || fl.Name == "config" || !v.IsSet(fl.Name) {
			return
		}
		if err := f.fs.Set(fl.Name, v.GetString(fl.Name)); err != nil {
			errs = append(errs, fmt.Errorf("invalid value for %q: %w", fl.Name, err))
		}
	})

	return errors.Join(errs...)
}
