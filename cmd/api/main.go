package main

import (
	"os"

	"github.com/urfave/cli/v2"

	"github.com/yigit/coursepath/internal/bootstrap"
	"github.com/yigit/coursepath/internal/config"
	"github.com/yigit/coursepath/internal/pkg/logger"
	"github.com/yigit/coursepath/internal/server"
)

// @title CoursePath LMS API
// @version 1.0
// @description Course catalog, enrollment and module progress for CoursePath

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token for authorization

func main() {
	app := &cli.App{
		Name:  "coursepath",
		Usage: "CoursePath LMS backend",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   config.DefaultPath,
				Usage:   "path to the YAML configuration file",
				EnvVars: []string{"COURSEPATH_CONFIG"},
			},
		},
		Action: serve,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the HTTP API (default)",
				Action: serve,
			},
			{
				Name:   "migrate",
				Usage:  "apply database migrations and exit",
				Action: migrate,
			},
			{
				Name:   "seed",
				Usage:  "create the default users and sample courses and exit",
				Action: seedData,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		logger.Error().Err(err).Msg("Application failed")
		os.Exit(1)
	}
}

func serve(c *cli.Context) error {
	srv, err := server.NewServer(c.Context, c.String("config"))
	if err != nil {
		return err
	}
	if err := srv.Run(); err != nil {
		return err
	}
	logger.Info().Msg("Application finished gracefully.")
	return nil
}

func migrate(c *cli.Context) error {
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	database, err := bootstrap.SetupDatabase(c.Context, cfg, lgr)
	if err != nil {
		return err
	}
	database.Close()
	return nil
}

func seedData(c *cli.Context) error {
	ctx := c.Context
	cfg, lgr, err := bootstrap.LoadConfigAndSetupLogger(c.String("config"))
	if err != nil {
		return err
	}
	database, err := bootstrap.SetupDatabase(ctx, cfg, lgr)
	if err != nil {
		return err
	}
	deps, err := bootstrap.BuildDependencies(ctx, cfg, database, lgr)
	if err != nil {
		database.Close()
		return err
	}
	defer deps.Close()
	return bootstrap.SeedDefaultData(ctx, deps)
}
