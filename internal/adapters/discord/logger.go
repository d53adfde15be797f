package discord

import (
	"fmt"

	"gatekeeper/internal/platform/logger"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

// routeLibraryLogs sends discordgo's internal log lines through zerolog
func routeLibraryLogs(l *logger.Logger) {
	discordgo.Logger = func(level, _ int, format string, a ...any) {
		var evt *zerolog.Event
		switch level {
		case discordgo.LogError:
			evt = l.Error()
		case discordgo.LogWarning:
			evt = l.Warn()
		case discordgo.LogInformational:
			evt = l.Info()
		default:
			evt = l.Debug()
		}
		evt.Msg(fmt.Sprintf(format, a...))
	}
}
