package app

import (
	"github.com/coreos/go-systemd/v22/daemon"

	logx "formrelay/pkg/logx"
)

// sdNotify reports a state to systemd. Outside a notify-type unit
// (NOTIFY_SOCKET unset) it is a no-op.
func sdNotify(log logx.Logger, state string) {
	sent, err := daemon.SdNotify(false, state)
	switch {
	case err != nil:
		log.Warn("systemd notify failed", logx.String("state", state), logx.Err(err))
	case sent:
		log.Debug("systemd notified", logx.String("state", state))
	}
}
