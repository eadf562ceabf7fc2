package libsandbox

import (
	"os"
	"runtime"

	"github.com/v2fly/v2ray-core/v5/common/log"
	"golang.org/x/sys/unix"
)

func init() {
	log.RegisterHandler((*stubLogger)(nil))
}

type platformLogger struct {
	iif   PlatformInterface
	level log.Severity
}

func (l *platformLogger) Handle(msg log.Message) {
	if generalMessage, isGeneral := msg.(*log.GeneralMessage); isGeneral && generalMessage.Severity > l.level {
		return
	}
	l.iif.WriteLog(msg.String())
}

type stubLogger struct{}

func (l *stubLogger) Handle(msg log.Message) {
}

var stderrFile *os.File

// RedirectStderr sends stderr, and with it Go crash output, to path. An empty
// path means stderr.log in the working directory given to Setup.
func RedirectStderr(path string) error {
	path, err := stderrPath(path)
	if err != nil {
		return err
	}
	if stats, err := os.Stat(path); err == nil && stats.Size() > 0 {
		_ = os.Rename(path, path+".old")
	}
	outputFile, err := os.Create(path)
	if err != nil {
		return err
	}
	if runtime.GOOS != "android" {
		err = outputFile.Chown(sUserID, sGroupID)
		if err != nil {
			outputFile.Close()
			os.Remove(outputFile.Name())
			return err
		}
	}
	err = unix.Dup2(int(outputFile.Fd()), int(os.Stderr.Fd()))
	if err != nil {
		outputFile.Close()
		os.Remove(outputFile.Name())
		return err
	}
	stderrFile = outputFile
	return nil
}
