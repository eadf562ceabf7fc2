package main

import (
	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
	F "github.com/sagernet/sing/common/format"
	"github.com/v2fly/v2ray-core/v5/common/log"
)

// zerologHandler writes v2ray log records through zerolog.
type zerologHandler struct{}

func (zerologHandler) Handle(msg log.Message) {
	generalMessage, isGeneral := msg.(*log.GeneralMessage)
	if !isGeneral {
		zlog.Info().Msg(msg.String())
		return
	}
	var event *zerolog.Event
	switch generalMessage.Severity {
	case log.Severity_Error:
		event = zlog.Error()
	case log.Severity_Warning:
		event = zlog.Warn()
	case log.Severity_Debug:
		event = zlog.Debug()
	default:
		event = zlog.Info()
	}
	event.Msg(F.ToString(generalMessage.Content))
}
