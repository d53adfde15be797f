package discord

import (
	"bytes"
	"testing"

	"gatekeeper/internal/platform/testkit"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"
)

func TestRouteLibraryLogs(t *testing.T) {
	testkit.Swap(t, &discordgo.Logger, discordgo.Logger)

	var buf bytes.Buffer
	l := zerolog.New(&buf)
	routeLibraryLogs(&l)

	discordgo.Logger(discordgo.LogWarning, 1, "heartbeat %d missed", 3)
	testkit.MustContain(t, buf.String(), `"level":"warn"`)
	testkit.MustContain(t, buf.String(), "heartbeat 3 missed")

	buf.Reset()
	discordgo.Logger(discordgo.LogDebug, 1, "noise")
	testkit.MustContain(t, buf.String(), `"level":"debug"`)
}
