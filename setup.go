package libsandbox

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime/debug"
	"strconv"
	"time"

	_ "github.com/sagernet/gomobile"
	E "github.com/sagernet/sing/common/exceptions"
	F "github.com/sagernet/sing/common/format"
)

var (
	sWorkingPath string
	sUserID      int
	sGroupID     int
)

func init() {
	debug.SetPanicOnFault(true)
	sUserID = os.Getuid()
	sGroupID = os.Getgid()
}

type SetupOptions struct {
	// WorkingPath holds the crash output of RedirectStderr.
	WorkingPath string
	// Username owns the working directory and the crash output. Empty means the
	// current user.
	Username string
}

func Setup(options *SetupOptions) error {
	if options.Username != "" {
		sUser, err := user.Lookup(options.Username)
		if err != nil {
			return err
		}
		sUserID, _ = strconv.Atoi(sUser.Uid)
		sGroupID, _ = strconv.Atoi(sUser.Gid)
	} else {
		sUserID = os.Getuid()
		sGroupID = os.Getgid()
	}
	sWorkingPath = options.WorkingPath
	if sWorkingPath == "" {
		return nil
	}
	err := os.MkdirAll(sWorkingPath, 0o777)
	if err != nil {
		return E.Cause(err, "create working directory")
	}
	if options.Username != "" {
		err = os.Chown(sWorkingPath, sUserID, sGroupID)
		if err != nil {
			return E.Cause(err, "chown working directory")
		}
	}
	return nil
}

// stderrPath resolves the crash output file, defaulting to stderr.log in the
// working directory.
func stderrPath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if sWorkingPath == "" {
		return "", E.New("missing stderr path and working directory")
	}
	return filepath.Join(sWorkingPath, "stderr.log"), nil
}

func Version() string {
	buildInfo, loaded := debug.ReadBuildInfo()
	if !loaded || buildInfo.Main.Version == "" {
		return "(devel)"
	}
	return buildInfo.Main.Version
}

func FormatDuration(durationInt int64) string {
	duration := time.Duration(durationInt) * time.Millisecond
	if duration < time.Second {
		return F.ToString(duration.Milliseconds(), "ms")
	} else if duration < time.Minute {
		return F.ToString(int64(duration.Seconds()), ".", int64(duration.Seconds()*100)%100, "s")
	} else {
		return F.ToString(int64(duration.Minutes()), "m", int64(duration.Seconds())%60, "s")
	}
}
