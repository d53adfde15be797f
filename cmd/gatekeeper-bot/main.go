// Command gatekeeper-bot runs the moderation bot with its liveness server
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"gatekeeper/internal/adapters/discord"
	"gatekeeper/internal/core/version"
	"gatekeeper/internal/modkit"
	"gatekeeper/internal/modkit/module"
	"gatekeeper/internal/platform/config"
	"gatekeeper/internal/platform/logger"
	phttp "gatekeeper/internal/platform/net/http"
	"gatekeeper/internal/platform/store"

	cmdmod "gatekeeper/internal/services/commands/module"
	incmod "gatekeeper/internal/services/incidents/module"
	livemod "gatekeeper/internal/services/liveness/module"
	modmod "gatekeeper/internal/services/moderation/module"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

func main() {
	// .env is optional; real environment wins over it
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		_, _ = os.Stderr.WriteString("warning: .env not loaded: " + err.Error() + "\n")
	}
	logger.Init(logger.FromEnv())
	l := logger.Get()
	root := config.New()

	bi := version.Info("gatekeeper-bot")
	l.Info().Str("version", bi.Version).Str("commit", bi.Commit).Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	st, err := store.Open(ctx, store.FromConfig(root), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()
	if err := st.Guard(ctx); err != nil {
		l.Fatal().Err(err).Msg("database unreachable")
	}

	deps := modkit.Deps{Log: *l, Cfg: root, Metrics: reg}
	if st.Enabled() {
		deps.PG = st.PG
	}

	bot, err := discord.New(discord.FromConfig(root))
	if err != nil {
		l.Fatal().Err(err).Msg("discord setup failed")
	}

	// Build dependency modules first
	inc, err := incmod.New(ctx, deps)
	if err != nil {
		l.Fatal().Err(err).Msg("incidents module failed")
	}
	incPorts := module.MustPortsOf[incmod.Ports](inc)

	mod, err := modmod.New(deps, modmod.Options{}, modmod.Wiring{
		Actions: bot.Actions(),
		Journal: incPorts.Recorder,
	})
	if err != nil {
		l.Fatal().Err(err).Msg("moderation module failed")
	}

	cmdWiring := cmdmod.Wiring{Replier: bot.Actions()}
	if inc.Durable() {
		cmdWiring.Reader = incPorts.Reader
	}
	cmds, err := cmdmod.New(deps, cmdmod.Options{Prefix: mod.Options().CommandPrefix}, cmdWiring)
	if err != nil {
		l.Fatal().Err(err).Msg("commands module failed")
	}

	liveWiring := livemod.Wiring{Stats: bot, Ready: bot.Ready(), Gatherer: reg}
	if p, ok := st.PG.(store.Pinger); ok {
		liveWiring.DB = p
	}
	live := livemod.New(deps, livemod.Options{}, liveWiring)

	mods := []modkit.Module{inc, mod, cmds, live}
	for _, m := range mods {
		module.Register(m.Name(), m.Ports())
	}

	modPorts := module.MustPortsOf[modmod.Ports](mod)
	bot.Bind(modPorts.Handler, module.MustPortsOf[cmdmod.Ports](cmds).Dispatcher)

	srv := phttp.NewServer(root, live.ServerOptions())
	for _, m := range mods {
		m.MountRoutes(srv.Router())
	}

	var wg sync.WaitGroup
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			l.Error().Err(err).Msg("http server stopped")
			stop()
		}
	}()
	go func() {
		defer wg.Done()
		module.MustPortsOf[livemod.Ports](live).SelfPing.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		bot.Presence().Run(ctx)
	}()

	if err := bot.Open(ctx); err != nil {
		l.Error().Err(err).Msg("gateway connect failed")
		stop()
	} else {
		l.Info().Str("addr", srv.Addr()).Msg("gatekeeper running")
	}

	<-ctx.Done()
	l.Info().Msg("shutting down")

	if err := bot.Close(); err != nil {
		l.Warn().Err(err).Msg("gateway close")
	}
	// pending exempt-channel deletes fire now instead of after their grace
	modPorts.Waiter.Close()
	drained := make(chan struct{})
	go func() {
		modPorts.Waiter.Wait()
		wg.Wait()
		close(drained)
	}()
	select {
	case <-drained:
	case <-time.After(15 * time.Second):
		l.Warn().Msg("shutdown timed out")
	}
}
