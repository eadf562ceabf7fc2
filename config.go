package libsandbox

import (
	"strings"

	E "github.com/sagernet/sing/common/exceptions"
	"github.com/sagernet/sing/common/json"
	"github.com/sagernet/sing/common/json/badoption"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

type Options struct {
	StartupTimeout badoption.Duration `json:"startup_timeout,omitempty"`
	VPNMode        bool               `json:"vpn_mode,omitempty"`
	LogLevel       string             `json:"log_level,omitempty"`
}

func parseOptions(content string) (Options, error) {
	if strings.TrimSpace(content) == "" {
		return Options{}, nil
	}
	options, err := json.UnmarshalExtended[Options]([]byte(content))
	if err != nil {
		return Options{}, E.Cause(err, "parse options")
	}
	if options.StartupTimeout < 0 {
		return Options{}, E.New("negative startup_timeout")
	}
	return options, nil
}

func parseLogLevel(level string) (log.Severity, error) {
	switch strings.ToLower(level) {
	case "", "info":
		return log.Severity_Info, nil
	case "debug", "trace":
		return log.Severity_Debug, nil
	case "warn", "warning":
		return log.Severity_Warning, nil
	case "error":
		return log.Severity_Error, nil
	default:
		return log.Severity_Unknown, E.New("unknown log level: ", level)
	}
}

func CheckOptions(content string) error {
	options, err := parseOptions(content)
	if err != nil {
		return err
	}
	_, err = parseLogLevel(options.LogLevel)
	return err
}
