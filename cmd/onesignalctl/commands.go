package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/tinywideclouds/go-onesignal/pkg/onesignal"
)

var errUsage = errors.New("usage error")

// api is the subset of *onesignal.Client driven by the commands.
type api interface {
	SendToAll(ctx context.Context, msg onesignal.Message, extra map[string]any, scheduledTime string) (map[string]any, error)
	SendToUsers(ctx context.Context, userIDs []string, msg onesignal.Message, extra map[string]any, scheduledTime string) (map[string]any, error)
	SendToSegment(ctx context.Context, segment string, msg onesignal.Message, extra map[string]any, scheduledTime string) (map[string]any, error)
	ListSegments(ctx context.Context) ([]onesignal.Segment, error)
	CreateSegment(ctx context.Context, name, value string) (*onesignal.SegmentCreation, error)
	UpdateSegment(ctx context.Context, segmentID, name string, filters []onesignal.Filter) (map[string]any, error)
	DeleteSegment(ctx context.Context, segmentID string) (bool, error)
	SubscribeToSegments(ctx context.Context, playerID string, segments []string) (bool, error)
	UnsubscribeFromSegments(ctx context.Context, playerID string, segments []string) (bool, error)
	GetDevices(ctx context.Context, limit, offset int) ([]onesignal.Player, error)
	UsersSegments(ctx context.Context, segment string, limit, offset int) ([]onesignal.Player, error)
}

type command struct {
	summary string
	run     func(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error)
}

var commands = map[string]command{
	"send-all":       {"notify every subscribed device", runSendAll},
	"send-users":     {"notify devices of external user ids", runSendUsers},
	"send-segment":   {"notify the members of a segment", runSendSegment},
	"segments":       {"list segments", runListSegments},
	"create-segment": {"create a tag-based segment unless it exists", runCreateSegment},
	"update-segment": {"replace a segment's name and filters", runUpdateSegment},
	"delete-segment": {"delete a segment", runDeleteSegment},
	"subscribe":      {"tag a player into segments", runSubscribe},
	"unsubscribe":    {"clear a player's segment tags", runUnsubscribe},
	"devices":        {"list one page of devices", runDevices},
	"segment-users":  {"list devices of one page tagged into a segment", runSegmentUsers},
}

// run dispatches args[0] to its command and writes the result to stdout as indented JSON.
func run(ctx context.Context, c api, args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		printUsage(stderr)
		return fmt.Errorf("%w: missing command", errUsage)
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(stderr)
		return fmt.Errorf("%w: unknown command %q", errUsage, args[0])
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)
	fs.SetOutput(stderr)
	result, err := cmd.run(ctx, c, fs, args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func printUsage(w io.Writer) {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Fprintln(w, "usage: onesignalctl [-config file.yaml] <command> [flags]")
	fmt.Fprintln(w, "\ncommands:")
	for _, name := range names {
		fmt.Fprintf(w, "  %-15s %s\n", name, commands[name].summary)
	}
}

// parse wraps flag parsing errors as usage errors.
func parse(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return err
		}
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("%w: unexpected arguments %v", errUsage, fs.Args())
	}
	return nil
}

func required(name, value string) error {
	if value == "" {
		return fmt.Errorf("%w: -%s is required", errUsage, name)
	}
	return nil
}

// splitList turns "a, b,,c" into [a b c].
func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// --- Notifications ---

type messageFlags struct {
	subject    string
	body       string
	url        string
	icon       string
	image      string
	schedule   string
	extra      string
	idempotent bool
}

func (m *messageFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&m.subject, "subject", "", "notification heading")
	fs.StringVar(&m.body, "body", "", "notification content")
	fs.StringVar(&m.url, "url", "", "URL opened on click")
	fs.StringVar(&m.icon, "icon", "", "icon URL (defaults to the configured icon)")
	fs.StringVar(&m.image, "image", "", "large image URL")
	fs.StringVar(&m.schedule, "send-after", "", "delivery time understood by the provider, e.g. \"2024-09-24 14:00:00 GMT-0700\"")
	fs.StringVar(&m.extra, "extra", "", "JSON object merged into the request")
	fs.BoolVar(&m.idempotent, "idempotent", false, "attach a random external_id so a retried send is delivered once")
}

func (m *messageFlags) message() onesignal.Message {
	return onesignal.Message{Subject: m.subject, Body: m.body, URL: m.url, Icon: m.icon, ImageURL: m.image}
}

func (m *messageFlags) extraFields() (map[string]any, error) {
	var extra map[string]any
	if m.extra != "" {
		if err := json.Unmarshal([]byte(m.extra), &extra); err != nil {
			return nil, fmt.Errorf("%w: -extra must be a JSON object: %w", errUsage, err)
		}
	}
	if m.idempotent {
		if extra == nil {
			extra = map[string]any{}
		}
		if _, set := extra["external_id"]; !set {
			extra["external_id"] = uuid.NewString()
		}
	}
	return extra, nil
}

func runSendAll(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	var m messageFlags
	m.register(fs)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	extra, err := m.extraFields()
	if err != nil {
		return nil, err
	}
	return c.SendToAll(ctx, m.message(), extra, m.schedule)
}

func runSendUsers(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	var m messageFlags
	m.register(fs)
	users := fs.String("users", "", "comma separated external user ids")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	extra, err := m.extraFields()
	if err != nil {
		return nil, err
	}
	return c.SendToUsers(ctx, splitList(*users), m.message(), extra, m.schedule)
}

func runSendSegment(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	var m messageFlags
	m.register(fs)
	segment := fs.String("segment", "", "segment name")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	extra, err := m.extraFields()
	if err != nil {
		return nil, err
	}
	return c.SendToSegment(ctx, *segment, m.message(), extra, m.schedule)
}

// --- Segments ---

func runListSegments(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return c.ListSegments(ctx)
}

func runCreateSegment(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	name := fs.String("name", "", "segment name")
	value := fs.String("value", "true", "tag value members must carry")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if err := required("name", *name); err != nil {
		return nil, err
	}
	return c.CreateSegment(ctx, *name, *value)
}

func runUpdateSegment(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	id := fs.String("id", "", "segment id")
	name := fs.String("name", "", "new segment name")
	rawFilters := fs.String("filters", "", `JSON array of filters, e.g. [{"field":"tag","key":"vip","relation":"=","value":"true"}]`)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	if err := required("filters", *rawFilters); err != nil {
		return nil, err
	}
	var filters []onesignal.Filter
	if err := json.Unmarshal([]byte(*rawFilters), &filters); err != nil {
		return nil, fmt.Errorf("%w: -filters must be a JSON array: %w", errUsage, err)
	}
	return c.UpdateSegment(ctx, *id, *name, filters)
}

func runDeleteSegment(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	id := fs.String("id", "", "segment id")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	ok, err := c.DeleteSegment(ctx, *id)
	if err != nil {
		return nil, err
	}
	return map[string]bool{"deleted": ok}, nil
}

// --- Players ---

func runSubscribe(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	return runMembership(ctx, fs, args, c.SubscribeToSegments)
}

func runUnsubscribe(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	return runMembership(ctx, fs, args, c.UnsubscribeFromSegments)
}

func runMembership(ctx context.Context, fs *flag.FlagSet, args []string, op func(context.Context, string, []string) (bool, error)) (any, error) {
	player := fs.String("player", "", "player id")
	segments := fs.String("segments", "", "comma separated segment names")
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	ok, err := op(ctx, *player, splitList(*segments))
	if err != nil {
		return nil, err
	}
	return map[string]bool{"success": ok}, nil
}

func pageFlags(fs *flag.FlagSet) (limit, offset *int) {
	limit = fs.Int("limit", onesignal.DefaultDeviceLimit, fmt.Sprintf("page size (1-%d)", onesignal.MaxDeviceLimit))
	offset = fs.Int("offset", 0, "page offset")
	return limit, offset
}

func runDevices(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	limit, offset := pageFlags(fs)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return c.GetDevices(ctx, *limit, *offset)
}

func runSegmentUsers(ctx context.Context, c api, fs *flag.FlagSet, args []string) (any, error) {
	segment := fs.String("segment", "", "segment name")
	limit, offset := pageFlags(fs)
	if err := parse(fs, args); err != nil {
		return nil, err
	}
	return c.UsersSegments(ctx, *segment, *limit, *offset)
}
