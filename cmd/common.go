package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/template"

	"github.com/spf13/cobra"

	"github.com/joyautomation/synapse-go/config"
	"github.com/joyautomation/synapse-go/internal/build"
	"github.com/joyautomation/synapse-go/log"
)

// Flags shared by "node run" and "host run".
var (
	ConfigPath string
	Broker     string
	Username   string
	Password   string
	CertFile   string
	KeyFile    string
	LogLevel   string
	Watch      bool
)

// cfg holds the configuration loaded by the running subcommand's PreRunE,
// so RunE doesn't need to reload or re-thread it.
var cfg *config.Config

func addTransportFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.SortFlags = false
	f.StringVarP(&ConfigPath, "config", "c", "", "Path to config file or directory")
	f.StringVarP(&Broker, "broker", "b", "", "MQTT broker address, e.g. tcp://localhost:1883")
	f.StringVar(&Username, "username", "", "MQTT client username")
	f.StringVar(&Password, "password", "", "MQTT client password")
	f.StringVar(&CertFile, "cert", "", "MQTT TLS certificate file (PEM encoded)")
	f.StringVar(&KeyFile, "key", "", "MQTT TLS private key file (PEM encoded)")
	f.StringVarP(&LogLevel, "log", "l", "", "Log level")
	f.BoolVar(&Watch, "watch", false, "Reload configuration when the config file changes")

	cmd.MarkFlagFilename("config", "yaml", "yml")
	cmd.MarkFlagDirname("config")
}

func findConfig() string {
	if ConfigPath != "" {
		return ConfigPath
	}

	return config.DefaultPath()
}

const banner = `+----------------------------------------------------------+
|                                                            |
|   synapse-go -- Sparkplug B edge node / host application  |
|                                                            |
|   Version:    {{printf "%%-18.18s" .Version}}                          |
|   Build Time: %-26.26s                      |
|                                                            |
+----------------------------------------------------------+
`

// BannerTemplate returns the string used for templating the version banner.
func BannerTemplate() string {
	return fmt.Sprintf(banner, build.BuildTime())
}

// PrintBanner prints the version banner to cmd's output.
func PrintBanner(cmd *cobra.Command) error {
	t := template.New("banner")

	template.Must(t.Parse(BannerTemplate()))

	return t.Execute(cmd.OutOrStdout(), cmd.Root())
}

const fullDocsFooter = `Full documentation is available at:
https://pkg.go.dev/github.com/joyautomation/synapse-go`

// ExitError is an error that should cause the program to exit with Code.
type ExitError struct {
	Err  error
	Code int
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func applyTransportFlags(t *config.TransportConfig) error {
	if Broker != "" {
		t.Broker = Broker
	}
	if Username != "" {
		t.Username = Username
	}
	if Password != "" {
		t.Password = Password
	}
	if CertFile != "" {
		t.CertFile = CertFile
	}
	if KeyFile != "" {
		t.KeyFile = KeyFile
	}

	return nil
}

func flagsToLogLevel(l *log.Level) error {
	if LogLevel == "" {
		return nil
	}

	return l.UnmarshalText([]byte(LogLevel))
}

// setLogHandler wires cfg's logging configuration into the log package,
// raising the effective level to at least minLevel.
func setLogHandler(lcfg *config.LogConfig, minLevel log.Level) {
	var w io.Writer

	switch strings.ToLower(lcfg.Output) {
	case "", "stderr":
	case "stdout":
		w = os.Stdout
	case "discard":
		log.SetHandler(log.DiscardHandler)
		return
	default:
		f, err := os.Create(lcfg.Output)
		if err != nil {
			log.Error("unable to open log file, deferring to stderr", err, "path", lcfg.Output)
			break
		}

		w = f

		AddCleanup(func() { f.Close() })
	}

	level := lcfg.Level
	if level < minLevel {
		level = minLevel
	}

	log.SetLogLevel(level)

	switch strings.ToLower(lcfg.Format) {
	case "json":
		if w == nil {
			w = os.Stderr
		}

		log.SetJSONHandler(w)
	case "text":
		if w == nil {
			w = os.Stderr
		}

		log.SetTextHandler(w)
	default:
		if w != nil {
			log.SetOutput(w)
		}
	}
}
