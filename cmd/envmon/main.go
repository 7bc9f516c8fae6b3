package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"envmon-go/errcode"
	"envmon-go/internal/app"
	"envmon-go/internal/config"
	"envmon-go/internal/logging"
	"envmon-go/internal/platform"
)

func main() {
	time.Sleep(bootDelay)

	var args []string
	if len(os.Args) > 1 {
		args = os.Args[1:]
	}
	cfg, err := config.FromFlags(args)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	board, err := platform.Default(platform.Options{
		I2CBus:        cfg.I2CBus,
		Sim:           cfg.Sim,
		SensorAddress: cfg.Address,
		Drift:         cfg.SimDrift,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("no board")
	}
	logging.Init(board.LogSink(), cfg.LogLevel)
	log.Info().Str("board", board.Name()).Dur("interval", cfg.Interval).Stringer("on_failure", cfg.OnFailure).Msg("boot")

	ctx, stop := rootContext()
	err = run(ctx, app.New(board, cfg))
	stop()
	if err != nil {
		log.Fatal().Err(err).Str("code", string(errcode.Of(err))).Msg("monitor stopped")
	}
}

// run brings the monitor up and loops until ctx ends. The app is closed on
// every path; nil means a clean shutdown.
func run(ctx context.Context, a *app.App) error {
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("close")
		}
	}()

	if err := a.BringUp(ctx); err != nil {
		if errcode.Of(err) == errcode.Canceled {
			return nil
		}
		return err
	}
	err := a.Run(ctx)
	if errcode.Of(err) == errcode.Canceled {
		log.Info().Msg("shutdown")
		return nil
	}
	return err
}
