package server

import (
	"context"
	"fmt"
	"net"

	"github.com/gin-gonic/gin"
	cli "github.com/urfave/cli/v3"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"slidefit/paginate"
	"slidefit/state"
)

// Run is serve subcommand action.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log

	if env.Cfg.Logging.ConsoleLogger.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := env.PrepareFonts(); err != nil {
		return err
	}
	engine, err := paginate.NewEngine(env.Cfg, env.Fonts, log.Named("paginate"))
	if err != nil {
		return fmt.Errorf("unable to prepare pagination: %w", err)
	}
	client, cache, err := paginate.NewClient(&env.Cfg.Generation, log)
	if err != nil {
		return fmt.Errorf("unable to prepare generation client: %w", err)
	}
	defer func() {
		if er := cache.Close(); er != nil {
			err = multierr.Append(err, fmt.Errorf("unable to close response cache: %w", er))
		}
	}()

	listen := env.Cfg.Server.Listen
	if addr := cmd.String("listen"); len(addr) > 0 {
		listen = addr
	}
	ln, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("unable to listen on %s: %w", listen, err)
	}

	log.Info("Serving slides", zap.String("listen", listen), zap.String("generation", env.Cfg.Generation.Endpoint))
	return New(&env.Cfg.Server, engine, client, log).Serve(ctx, ln)
}
