package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/castleos/internal/app"
	"github.com/dokzlo13/castleos/internal/castleos"
	"github.com/dokzlo13/castleos/internal/config"
)

const usage = `Usage: castlectl [flags] <command> [args]

Commands:
  token                          obtain and store a fresh session token
  logout                         forget the stored session token
  sessions                       list stored sessions
  devices                        list devices
  groups                         list groups
  scenes                         list scenes
  group-devices <groupId>        list the devices of a group
  on|off <device|group|scene> <id>
  dim <deviceId> [percent]       dim by 10, or to percent
  colour <deviceId> <h> <s> <b>  set hue, saturation and brightness
  ct <deviceId> <kelvin>         set colour temperature
  run [script.lua] [args...]     run a Lua script (default from config)
  history [n] [target]           show recent commands

Flags:
`

func main() {
	// Support both -c and --config for config path
	var configPath string
	flag.StringVar(&configPath, "config", "config.yaml", "Path to configuration file")
	flag.StringVar(&configPath, "c", "config.yaml", "Path to configuration file (shorthand)")
	host := flag.String("host", "", "Controller host[:port], overrides config")
	user := flag.String("user", "", "Controller username, overrides config")
	password := flag.String("password", "", "Controller password, overrides config")
	debug := flag.Bool("debug", false, "Enable debug logging")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	// Load configuration; a missing default file is not an error
	cfg, err := config.Load(configPath)
	if errors.Is(err, os.ErrNotExist) && !isFlagSet("config") && !isFlagSet("c") {
		cfg, err = config.Default(), nil
	}
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if *host != "" {
		cfg.CastleOS.Host = *host
	}
	if *user != "" {
		cfg.CastleOS.Username = *user
	}
	if *password != "" {
		cfg.CastleOS.Password = *password
	}
	if *debug {
		cfg.Log.Level = "debug"
	}

	// Setup logging
	setupLogging(cfg.Log.GetLevel(), cfg.Log.UseJSON, cfg.Log.Colors)

	application, err := app.New(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create application")
	}

	// Create context that cancels on shutdown signal
	ctx := app.SignalContext()

	err = runCommand(ctx, application, flag.Arg(0), flag.Args()[1:])
	application.Close()

	if err != nil {
		var uerr usageError
		if errors.As(err, &uerr) {
			fmt.Fprintln(os.Stderr, uerr.Error())
			flag.Usage()
			os.Exit(2)
		}
		log.Error().Err(err).Str("kind", castleos.KindOf(err).String()).Msg("Command failed")
		os.Exit(1)
	}
}

type usageError string

func (e usageError) Error() string { return string(e) }

func runCommand(ctx context.Context, a *app.App, cmd string, args []string) error {
	out := newPrinter(os.Stdout)

	switch cmd {
	case "token":
		token, err := a.Authenticate(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(os.Stdout, token)
		return nil

	case "logout":
		forgot, err := a.Logout()
		if err != nil {
			return err
		}
		if !forgot {
			log.Info().Msg("No stored session")
		}
		return nil

	case "sessions":
		sessions, err := a.Sessions()
		if err != nil {
			return err
		}
		return out.sessions(sessions)

	case "devices":
		devices, err := a.Devices(ctx)
		if err != nil {
			return err
		}
		return out.devices(devices)

	case "groups":
		groups, err := a.Groups(ctx)
		if err != nil {
			return err
		}
		return out.groups(groups)

	case "scenes":
		scenes, err := a.Scenes(ctx)
		if err != nil {
			return err
		}
		return out.scenes(scenes)

	case "group-devices":
		if len(args) != 1 {
			return usageError("group-devices needs a group id")
		}
		devices, err := a.GroupDevices(ctx, args[0])
		if err != nil {
			return err
		}
		return out.devices(devices)

	case "on", "off":
		if len(args) != 2 {
			return usageError(cmd + " needs a kind (device, group, scene) and an id")
		}
		switch args[0] {
		case app.TargetDevice, app.TargetGroup, app.TargetScene:
		default:
			return usageError("unknown kind " + strconv.Quote(args[0]))
		}
		return a.Power(ctx, args[0], args[1], cmd == "on")

	case "dim":
		if len(args) < 1 || len(args) > 2 {
			return usageError("dim needs a device id and an optional percent")
		}
		if len(args) == 1 {
			return a.Dim(ctx, args[0], nil)
		}
		percent, err := parseFloats(args[1:])
		if err != nil {
			return err
		}
		return a.Dim(ctx, args[0], &percent[0])

	case "colour", "color":
		if len(args) != 4 {
			return usageError(cmd + " needs a device id, hue, saturation and brightness")
		}
		v, err := parseFloats(args[1:])
		if err != nil {
			return err
		}
		return a.Colour(ctx, args[0], v[0], v[1], v[2])

	case "ct":
		if len(args) != 2 {
			return usageError("ct needs a device id and a kelvin value")
		}
		kelvin, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError("invalid kelvin " + strconv.Quote(args[1]))
		}
		return a.ColourTemperature(ctx, args[0], kelvin)

	case "run":
		var path string
		if len(args) > 0 {
			path, args = args[0], args[1:]
		}
		return a.RunScript(ctx, path, args)

	case "history":
		limit := 20
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return usageError("invalid count " + strconv.Quote(args[0]))
			}
			limit = n
		}
		if len(args) > 1 {
			entries, err := a.TargetHistory(args[1], limit)
			if err != nil {
				return err
			}
			return out.history(entries)
		}
		entries, err := a.History(limit)
		if err != nil {
			return err
		}
		return out.history(entries)

	default:
		return usageError("unknown command " + strconv.Quote(cmd))
	}
}

func parseFloats(args []string) ([]float64, error) {
	values := make([]float64, len(args))
	for i, a := range args {
		v, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return nil, usageError("invalid number " + strconv.Quote(a))
		}
		values[i] = v
	}
	return values, nil
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

func setupLogging(level string, useJSON bool, colors bool) {
	// ISO 8601 format with timezone
	zerolog.TimeFieldFormat = time.RFC3339

	if useJSON {
		// JSON output for production
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	} else {
		// Text output (with optional colors)
		log.Logger = log.Output(zerolog.ConsoleWriter{
			Out:        os.Stderr,
			TimeFormat: "2006-01-02T15:04:05.000Z07:00",
			NoColor:    !colors,
		})
	}

	switch level {
	case "trace":
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
