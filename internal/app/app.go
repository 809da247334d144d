package app

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/dokzlo13/castleos/internal/castleos"
	"github.com/dokzlo13/castleos/internal/config"
	"github.com/dokzlo13/castleos/internal/ledger"
	"github.com/dokzlo13/castleos/internal/storage"
)

// ErrLedgerDisabled is returned by history queries when the ledger is off.
var ErrLedgerDisabled = errors.New("command ledger is disabled (set ledger.enabled)")

// Target kinds accepted by Power.
const (
	TargetDevice = "device"
	TargetGroup  = "group"
	TargetScene  = "scene"
)

// App is the main application container. Each castlectl invocation creates
// one, runs a single command through it and closes it.
type App struct {
	cfg      *config.Config
	services *Services
}

// New creates a new App instance with all services initialized.
func New(cfg *config.Config) (*App, error) {
	services, err := NewServices(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:      cfg,
		services: services,
	}, nil
}

// Client returns the controller client.
func (a *App) Client() *castleos.Client {
	return a.services.Castle.Client
}

// Close releases all resources.
func (a *App) Close() error {
	if a.services != nil {
		a.services.Close()
	}
	return nil
}

// Authenticate obtains and persists a fresh session token.
func (a *App) Authenticate(ctx context.Context) (string, error) {
	if err := a.services.Castle.Authenticate(ctx); err != nil {
		return "", err
	}
	return a.Client().Token(), nil
}

// Logout forgets the session token for the configured host and user.
func (a *App) Logout() (bool, error) {
	return a.services.Castle.Logout()
}

// Devices lists all devices.
func (a *App) Devices(ctx context.Context) ([]*castleos.Device, error) {
	return a.Client().Devices(ctx)
}

// Groups lists all groups.
func (a *App) Groups(ctx context.Context) ([]*castleos.Group, error) {
	return a.Client().Groups(ctx)
}

// Scenes lists all scenes.
func (a *App) Scenes(ctx context.Context) ([]*castleos.Scene, error) {
	return a.Client().Scenes(ctx)
}

// GroupDevices lists the members of a group.
func (a *App) GroupDevices(ctx context.Context, groupID string) ([]*castleos.Device, error) {
	g, err := a.Client().Group(ctx, groupID)
	if err != nil {
		return nil, err
	}
	return g.Devices(ctx)
}

// Power switches a device, group or scene on or off.
func (a *App) Power(ctx context.Context, kind, id string, on bool) error {
	command := kind + ".off"
	if on {
		command = kind + ".on"
	}

	var err error
	switch kind {
	case TargetDevice:
		var d *castleos.Device
		if d, err = a.Client().Device(ctx, id); err == nil {
			err = togglePower(ctx, d, on)
		}
	case TargetGroup:
		var g *castleos.Group
		if g, err = a.Client().Group(ctx, id); err == nil {
			err = togglePower(ctx, g, on)
		}
	case TargetScene:
		var s *castleos.Scene
		if s, err = a.Client().Scene(ctx, id); err == nil {
			err = togglePower(ctx, s, on)
		}
	default:
		return fmt.Errorf("unknown target kind %q", kind)
	}

	return a.record(command, id, nil, err)
}

type switchable interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

func togglePower(ctx context.Context, s switchable, on bool) error {
	if on {
		return s.TurnOn(ctx)
	}
	return s.TurnOff(ctx)
}

// Dim lowers a device by one step, or sets it to percent when given.
func (a *App) Dim(ctx context.Context, id string, percent *float64) error {
	d, err := a.Client().Device(ctx, id)
	if err != nil {
		return a.record("device.dim", id, nil, err)
	}

	var payload map[string]any
	if percent == nil {
		err = d.Dim(ctx)
	} else {
		payload = map[string]any{"percent": *percent}
		err = d.DimTo(ctx, *percent)
	}
	return a.record("device.dim", id, payload, err)
}

// Colour sets a device's hue, saturation and brightness.
func (a *App) Colour(ctx context.Context, id string, hue, saturation, brightness float64) error {
	payload := map[string]any{"hue": hue, "saturation": saturation, "brightness": brightness}

	d, err := a.Client().Device(ctx, id)
	if err == nil {
		err = d.Colour(ctx, hue, saturation, brightness)
	}
	return a.record("device.colour", id, payload, err)
}

// ColourTemperature sets a device's colour temperature in Kelvin.
func (a *App) ColourTemperature(ctx context.Context, id string, kelvin int) error {
	payload := map[string]any{"kelvin": kelvin}

	d, err := a.Client().Device(ctx, id)
	if err == nil {
		payload["kelvin"] = d.ClampColourTemperature(kelvin)
		err = d.ColourTemperature(ctx, kelvin)
	}
	return a.record("device.colour_temperature", id, payload, err)
}

// RunScript runs a Lua script, or the configured one when path is empty.
func (a *App) RunScript(ctx context.Context, path string, args []string) error {
	return a.services.Lua.Run(ctx, path, args)
}

// History returns the most recent ledger entries, newest first.
func (a *App) History(limit int) ([]*ledger.Entry, error) {
	if a.services.Ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return a.services.Ledger.Recent(limit)
}

// TargetHistory returns the most recent ledger entries for one target.
func (a *App) TargetHistory(target string, limit int) ([]*ledger.Entry, error) {
	if a.services.Ledger == nil {
		return nil, ErrLedgerDisabled
	}
	return a.services.Ledger.ForTarget(target, limit)
}

// Sessions lists the stored session tokens without the tokens themselves.
func (a *App) Sessions() ([]storage.StoredToken, error) {
	return a.services.Tokens.Sessions()
}

// record appends the command outcome to the ledger when enabled and passes
// cmdErr through. Failures are left to the caller to report.
func (a *App) record(command, target string, payload map[string]any, cmdErr error) error {
	outcome := ledger.OutcomeCompleted
	if cmdErr != nil {
		outcome = ledger.OutcomeFailed
	}

	ev := log.Info()
	if a.services.Ledger != nil {
		requestID, err := a.services.Ledger.Record(a.Client().Host(), command, target, payload, cmdErr)
		if err != nil {
			log.Warn().Err(err).Str("command", command).Msg("Failed to record command")
		}
		ev = ev.Str("request_id", requestID)
	}
	ev.Str("command", command).
		Str("target", target).
		Str("outcome", string(outcome)).
		Msg("Command sent")

	return cmdErr
}

// SignalContext creates a context that is cancelled when SIGINT or SIGTERM is received.
func SignalContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Warn().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	return ctx
}
