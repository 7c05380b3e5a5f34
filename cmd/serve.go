package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"remotepad/internal/api"
	"remotepad/internal/auth"
	"remotepad/internal/config"
	"remotepad/internal/input"
	"remotepad/internal/logger"
	"remotepad/internal/network"
	"remotepad/internal/osutils"
	"remotepad/internal/session"
	"remotepad/internal/tray"
)

const shutdownTimeout = 5 * time.Second

// serveFlags maps each serve flag to the config key it overrides.
var serveFlags = map[string]string{
	"listen":    "server.listen",
	"secret":    "auth.secret",
	"speed":     "motion.speed",
	"layout":    "keyboard.layout",
	"policy":    "session.policy",
	"backend":   "device.backend",
	"log-level": "log.level",
	"tray":      "tray.enabled",
}

func newServeCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the control page and accept controllers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, opts)
		},
	}
	f := cmd.Flags()
	f.String("listen", "", "host:port to listen on")
	f.String("secret", "", "shared password (prefer REMOTEPAD_AUTH_SECRET)")
	f.Float64("speed", 0, "pointer speed multiplier")
	f.String("layout", "", "keyboard layout")
	f.String("policy", "", `session policy, "exclusive" or "shared"`)
	f.String("backend", "", `input backend, "system" or "log"`)
	f.String("log-level", "", "log level")
	f.Bool("tray", false, "show a system tray icon")
	return cmd
}

func runServe(cmd *cobra.Command, opts *rootOptions) error {
	cfgMgr := config.NewManager(opts.configPath, zerolog.Nop())
	for name, key := range serveFlags {
		if err := cfgMgr.BindFlag(key, cmd.Flags().Lookup(name)); err != nil {
			return err
		}
	}
	if err := cfgMgr.Load(); err != nil {
		return err
	}
	defer auth.Purge()

	cfg := cfgMgr.Get()
	log, err := logger.New(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfgMgr.SetLogger(log)
	log.Info().Str("version", version).Str("config", cfgMgr.File()).Msg("remotepad starting")

	open, err := input.NewOpener(cfg.Device.Backend, log)
	if err != nil {
		return err
	}
	probeDevice(open, log)

	registry := session.NewRegistry(cfg.Session.Policy)
	settings := func() (session.Settings, error) {
		return session.SettingsFromConfig(cfgMgr.Get(), cfgMgr.Secret())
	}
	acceptor := session.NewAcceptor(registry, open, settings, log)

	server, err := api.NewServer(cfgMgr.Secret, registry, acceptor, log)
	if err != nil {
		return err
	}

	cfgMgr.RegisterChangeCallback(func(c config.Config) {
		registry.SetPolicy(c.Session.Policy)
	})
	cfgMgr.Watch()

	ln, err := server.Listen(cfg.Server.Listen)
	if err != nil {
		return err
	}

	if runtime.GOOS == "windows" && cfg.Server.FirewallRule {
		go func() {
			port, err := network.Port(ln.Addr().String())
			if err != nil {
				log.Warn().Err(err).Msg("cannot determine port for firewall rule")
				return
			}
			if err := osutils.EnsureFirewallRule(port, log); err != nil {
				log.Warn().Err(err).Msg("firewall rule not installed")
			}
		}()
	}

	printBanner(cmd, ln.Addr().String(), log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- server.Serve(ln)
		stop()
	}()

	if cfg.Tray.Enabled {
		runTray(ctx, stop, registry, log)
	}
	<-ctx.Done()

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("HTTP shutdown")
	}
	if n := registry.DisconnectAll(); n > 0 {
		log.Info().Int("sessions", n).Msg("disconnected controllers")
	}
	if err := registry.Wait(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("controllers did not finish in time")
	}

	select {
	case err := <-serveErr:
		return err
	default:
		return nil
	}
}

// probeDevice opens and closes the device once so a missing permission shows
// up at startup instead of on the first connection.
func probeDevice(open input.Opener, log zerolog.Logger) {
	dev, err := open()
	if err != nil {
		log.Warn().Err(err).Msg("input device unavailable, controllers will be disconnected")
		return
	}
	_ = dev.Close()
}

func printBanner(cmd *cobra.Command, addr string, log zerolog.Logger) {
	ips, err := network.GetLocalIPs()
	if err != nil {
		log.Debug().Err(err).Msg("listing local addresses")
	}
	urls, err := network.ControlURLs(addr, ips)
	if err != nil {
		log.Warn().Err(err).Msg("cannot build control URLs")
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Open one of these addresses on your phone:")
	for _, u := range urls {
		fmt.Fprintf(out, "  %s\n", u)
	}
}

// runTray blocks on the tray event loop until ctx ends or Quit is chosen.
func runTray(ctx context.Context, stop context.CancelFunc, registry *session.Registry, log zerolog.Logger) {
	t := tray.New()
	t.AddMenuItem("Disconnect controllers", func() {
		n := registry.DisconnectAll()
		log.Info().Int("sessions", n).Msg("disconnected from tray")
	})
	t.AddSeparator()
	t.AddMenuItem("Quit", stop)
	registry.OnChange(t.SetSessionCount)

	go func() {
		<-ctx.Done()
		t.Stop()
	}()
	t.Run()
	stop()
}
