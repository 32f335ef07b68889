// Package console implements the line-oriented maintenance console of the
// door controller: reading settings and input levels and changing timeouts,
// debounce delays and the log level at runtime.
package console

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/comalice/hsm/door"
	"github.com/comalice/hsm/hal"
	"github.com/comalice/hsm/internal/logger"
	"github.com/comalice/hsm/internal/production"
)

// ErrUnknownCommand is returned for a command name that is not registered.
var ErrUnknownCommand = errors.New("unknown command")

// Debouncer is the part of hal.Debouncer the console changes.
type Debouncer interface {
	SetDelay(in hal.Input, d time.Duration) error
	Delay(in hal.Input) time.Duration
}

// Deps are what the console reads and changes. Debounce and Store may be
// nil; the matching commands then only change the controller.
type Deps struct {
	Controller *door.Controller
	Inputs     hal.Inputs
	Debounce   Debouncer
	Store      production.SettingsStore
	Settings   production.Settings
	Version    string
	BuildDate  string

	// SetLevel and Level default to the shared logger level.
	SetLevel func(zapcore.Level)
	Level    func() zapcore.Level
}

type command struct {
	name  string
	usage string
	help  string
	flags func(fs *pflag.FlagSet)
	run   func(c *Console, fs *pflag.FlagSet) error
}

// Console executes one command per line.
type Console struct {
	mu       sync.Mutex
	deps     Deps
	settings production.Settings
	out      io.Writer
	log      *zap.SugaredLogger
	commands map[string]*command
}

// New creates a console writing command output to out.
func New(deps Deps, out io.Writer, log *zap.SugaredLogger) *Console {
	if deps.SetLevel == nil {
		deps.SetLevel = logger.SetLevel
	}
	if deps.Level == nil {
		deps.Level = logger.Level
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	c := &Console{
		deps:     deps,
		settings: deps.Settings,
		out:      out,
		log:      log,
		commands: make(map[string]*command),
	}
	for _, cmd := range commands() {
		c.commands[cmd.name] = cmd
	}
	return c
}

// Settings returns the settings as changed so far.
func (c *Console) Settings() production.Settings {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.settings
}

// Serve executes lines from r until it is exhausted or ctx is done. Command
// errors are reported on the output and do not stop the loop.
func (c *Console) Serve(ctx context.Context, r io.Reader) error {
	lines := make(chan string)
	scanErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		scanErr <- sc.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				select {
				case err := <-scanErr:
					return errors.Wrap(err, "reading console input")
				default:
					return nil
				}
			}
			if err := c.Execute(line); err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
			}
		}
	}
}

// Execute runs one command line. Blank lines are ignored.
func (c *Console) Execute(line string) error {
	args := strings.Fields(line)
	if len(args) == 0 {
		return nil
	}
	cmd, ok := c.commands[args[0]]
	if !ok {
		c.log.Infof("Unknown command %q", args[0])
		c.printHelp()
		return errors.Wrapf(ErrUnknownCommand, "%q", args[0])
	}

	fs := pflag.NewFlagSet(cmd.name, pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	if cmd.flags != nil {
		cmd.flags(fs)
	}
	if err := fs.Parse(args[1:]); err != nil {
		return errors.Wrapf(err, "usage: %s", cmd.usage)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	return cmd.run(c, fs)
}

func commands() []*command {
	return []*command{
		{
			name:  "info",
			usage: "info",
			help:  "Get software information",
			run:   (*Console).info,
		},
		{
			name:  "log",
			usage: "log <level (0..6 or name)>",
			help:  "Set the log level",
			run:   (*Console).setLogLevel,
		},
		{
			name:  "timer",
			usage: "timer -u <unlock timeout (s)> -o <open timeout (min)> -b <blink interval (ms)>",
			help:  "Set the door timeouts and the LED blink interval",
			flags: func(fs *pflag.FlagSet) {
				fs.Uint32P("unlock", "u", 0, "unlock timeout in seconds")
				fs.Uint32P("open", "o", 0, "open timeout in minutes")
				fs.Uint32P("blink", "b", 0, "LED blink interval in milliseconds")
			},
			run: (*Console).setTimer,
		},
		{
			name:  "dbc",
			usage: "dbc -i <input index (0..3)> -t <debounce time (ms)>",
			help:  "Set the debounce time of one input",
			flags: func(fs *pflag.FlagSet) {
				fs.IntP("input", "i", -1, "input index")
				fs.Uint32P("time", "t", 0, "debounce time in milliseconds")
			},
			run: (*Console).setDebounce,
		},
		{
			name:  "inputs",
			usage: "inputs",
			help:  "Get the state of all buttons and switches",
			run:   (*Console).inputs,
		},
		{
			name:  "help",
			usage: "help",
			help:  "Show the help",
			run: func(c *Console, _ *pflag.FlagSet) error {
				c.printHelp()
				return nil
			},
		},
	}
}

func (c *Console) newTable(header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader(header)
	return table
}

func (c *Console) printHelp() {
	names := make([]string, 0, len(c.commands))
	for name := range c.commands {
		names = append(names, name)
	}
	sort.Strings(names)

	table := c.newTable("Command", "Usage", "Description")
	for _, name := range names {
		cmd := c.commands[name]
		table.Append([]string{cmd.name, cmd.usage, cmd.help})
	}
	table.Render()
}

func (c *Console) info(_ *pflag.FlagSet) error {
	snap := c.deps.Controller.Snapshot()
	table := c.newTable("Setting", "Value")
	table.Append([]string{"Version", c.deps.Version})
	table.Append([]string{"Build date", c.deps.BuildDate})
	table.Append([]string{"Log level", levelName(c.deps.Level())})
	table.Append([]string{"State", snap.State.String()})
	table.Append([]string{"Door unlock timeout", fmt.Sprintf("%d s", c.settings.UnlockTimeoutS)})
	table.Append([]string{"Door open timeout", fmt.Sprintf("%d min", c.settings.OpenTimeoutMin)})
	table.Append([]string{"Led blink interval", fmt.Sprintf("%d ms", c.settings.BlinkIntervalMs)})
	for i, ms := range c.settings.DebounceMs {
		table.Append([]string{"Debounce delay " + hal.Input(i).String(), fmt.Sprintf("%d ms", ms)})
	}
	for i, t := range snap.Timers {
		if t.Running() {
			table.Append([]string{door.TimerType(i).String() + " timer left", snap.Remaining[i].String()})
		}
	}
	table.Render()
	return nil
}

func (c *Console) setLogLevel(fs *pflag.FlagSet) error {
	current := c.deps.Level()
	if fs.NArg() == 0 {
		return errors.Newf("no log level specified, remaining at %s", levelName(current))
	}
	lvl, ok := logger.ParseLevel(fs.Arg(0))
	if !ok {
		return errors.Newf("invalid log level %q, remaining at %s", fs.Arg(0), levelName(current))
	}
	c.log.Infof("Setting log level from %s to %s", levelName(current), levelName(lvl))
	c.deps.SetLevel(lvl)
	return nil
}

func (c *Console) setTimer(fs *pflag.FlagSet) error {
	if fs.NFlag() == 0 {
		return errors.New("nothing to set, use -u, -o or -b")
	}
	if fs.Changed("blink") {
		ms, _ := fs.GetUint32("blink")
		if ms == 0 {
			return errors.New("blink interval must be positive")
		}
	}

	if fs.Changed("unlock") {
		s, _ := fs.GetUint32("unlock")
		if err := c.deps.Controller.SetDoorTimer(door.TimerUnlock, s); err != nil {
			return err
		}
		c.settings.UnlockTimeoutS = s
		c.log.Infof("Door unlock timeout set to %d s", s)
	}
	if fs.Changed("open") {
		m, _ := fs.GetUint32("open")
		if err := c.deps.Controller.SetDoorTimer(door.TimerOpen, m); err != nil {
			return err
		}
		c.settings.OpenTimeoutMin = m
		c.log.Infof("Door open timeout set to %d min", m)
	}
	if fs.Changed("blink") {
		ms, _ := fs.GetUint32("blink")
		c.deps.Controller.SetBlinkInterval(time.Duration(ms) * time.Millisecond)
		c.settings.BlinkIntervalMs = ms
		c.log.Infof("Led blink interval set to %d ms", ms)
	}
	return c.save()
}

func (c *Console) setDebounce(fs *pflag.FlagSet) error {
	idx, _ := fs.GetInt("input")
	if !fs.Changed("input") || !fs.Changed("time") {
		return errors.New("both -i and -t are required")
	}
	in := hal.Input(idx)
	if !in.Valid() {
		return errors.Newf("invalid input index: %d", idx)
	}
	ms, _ := fs.GetUint32("time")
	if c.deps.Debounce != nil {
		if err := c.deps.Debounce.SetDelay(in, time.Duration(ms)*time.Millisecond); err != nil {
			return err
		}
	}
	c.settings.DebounceMs[in] = ms
	c.log.Infof("Debounce delay for input %s set to %d ms", in, ms)
	return c.save()
}

func (c *Console) inputs(_ *pflag.FlagSet) error {
	if c.deps.Inputs == nil {
		return errors.New("no inputs attached")
	}
	table := c.newTable("Input", "State", "Debounce")
	for in := hal.Button1; in < hal.NumInputs; in++ {
		st := c.deps.Inputs.Status(in)
		table.Append([]string{in.String(), st.State.String(), st.Debounce.String()})
	}
	table.Render()
	return nil
}

func (c *Console) save() error {
	if c.deps.Store == nil {
		return nil
	}
	if err := c.deps.Store.Save(c.settings); err != nil {
		return errors.Wrap(err, "saving settings")
	}
	return nil
}

func levelName(l zapcore.Level) string {
	if l > zapcore.FatalLevel {
		return "silent"
	}
	return l.String()
}
