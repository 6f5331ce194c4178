package client

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/smart-home/internal/config"
	"github.com/oshokin/smart-home/internal/logger"
	"github.com/oshokin/smart-home/internal/service/common"
)

// Options configures a home-ctl call.
type Options struct {
	// ConfigPath to YAML settings file, defaults to standard filename if empty.
	ConfigPath string

	// ServerAddress overrides server address from config when specified.
	ServerAddress string

	// Action is applied before printing the state. Empty means status only.
	Action string

	// Wait keeps retrying while the hub is unreachable.
	Wait bool

	// Out receives the printed state.
	Out io.Writer
}

// defaultRetryInterval is the delay between two attempts while waiting for the hub.
const defaultRetryInterval = 1 * time.Second

// Run connects to the hub, applies the action when one is given and prints the state.
func Run(ctx context.Context, opts *Options) error {
	// Set context with logger name for tracking.
	ctx = logger.WithName(ctx, "home-ctl")

	// Load settings from configuration file.
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return err
	}

	// Use server address from options if provided, otherwise use config.
	serverAddress := cfg.ServerAddress
	if opts.ServerAddress != "" {
		serverAddress = opts.ServerAddress
	}

	// Identify current user and hostname for the hub logs.
	actor, err := common.DetectActor()
	if err != nil {
		return err
	}

	client, err := common.Dial(ctx, serverAddress, common.WithCallTimeout(cfg.Timeout), common.WithActor(actor))
	if err != nil {
		return err
	}

	// Close connection on function exit.
	defer func() {
		_ = client.Close()
	}()

	logger.DebugKV(ctx, "Calling home hub", "server_address", serverAddress, "action", opts.Action)

	return Execute(ctx, client, opts)
}

// Execute performs the call with an already connected client.
func Execute(ctx context.Context, client *common.Client, opts *Options) error {
	call := func() (*structpb.Struct, error) {
		if opts.Action == "" {
			return client.GetState(ctx)
		}

		return client.Toggle(ctx, opts.Action)
	}

	state, err := call()

	// Only a hub that never received the request is retried, a toggle must
	// not be applied twice.
	for err != nil && opts.Wait && status.Code(err) == codes.Unavailable {
		logger.WarnKV(ctx, "Home hub unreachable, retrying", "error", err)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(defaultRetryInterval):
		}

		state, err = call()
	}

	if err != nil {
		return err
	}

	if opts.Out == nil {
		logger.Info(ctx, FormatState(state))

		return nil
	}

	_, err = io.WriteString(opts.Out, FormatState(state))

	return err
}

// FormatState renders the state one "key: value" line per field, sorted by key.
func FormatState(state *structpb.Struct) string {
	fields := state.GetFields()

	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}

	slices.Sort(keys)

	var builder strings.Builder

	for _, key := range keys {
		builder.WriteString(key)
		builder.WriteString(": ")
		builder.WriteString(formatValue(fields[key]))
		builder.WriteByte('\n')
	}

	return builder.String()
}

func formatValue(v *structpb.Value) string {
	switch kind := v.GetKind().(type) {
	case *structpb.Value_BoolValue:
		if kind.BoolValue {
			return "on"
		}

		return "off"
	case *structpb.Value_NumberValue:
		return strconv.FormatFloat(kind.NumberValue, 'f', 2, 64)
	case *structpb.Value_StringValue:
		return kind.StringValue
	default:
		return fmt.Sprint(v.AsInterface())
	}
}
