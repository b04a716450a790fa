package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ryan-gang/outreach-send/internal/augment"
	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/logger"
	"github.com/ryan-gang/outreach-send/internal/mail"
	"github.com/ryan-gang/outreach-send/internal/pacer"
	"github.com/ryan-gang/outreach-send/internal/recipients"
	"github.com/ryan-gang/outreach-send/internal/template"
	"github.com/ryan-gang/outreach-send/internal/util"
)

var (
	// ErrNotRunning is returned by Status and Stop when no daemon is running.
	ErrNotRunning = errors.New("daemon is not running")
	// ErrAlreadyRunning is returned by Start when another send or daemon
	// holds the PID file.
	ErrAlreadyRunning = errors.New("outreach-send is already running")
)

// Options selects the run mode. The remaining fields replace the components
// built from configuration and are meant for tests.
type Options struct {
	// Follow keeps running at the cap and on an empty sheet.
	Follow bool

	Logger *logger.Logger
	Store  recipients.Store
	Sender mail.Sender
	Clock  pacer.Clock
	Jitter func() time.Duration
}

type Daemon struct {
	ctx    context.Context
	cancel context.CancelFunc
	cfg    *config.Config
	logger *logger.Logger
	follow bool

	store  recipients.Store
	sender mail.Sender
	budget *pacer.Budget
	pacer  *pacer.Pacer
	reset  *pacer.ResetJob
}

func NewDaemon(cfg *config.Config, opts Options) (*Daemon, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration not provided")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		var err error
		loggerInstance, err = logger.NewLogger(cfg)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	d := &Daemon{
		ctx:    ctx,
		cancel: cancel,
		cfg:    cfg,
		logger: loggerInstance,
		follow: opts.Follow,
	}
	if err := d.build(opts); err != nil {
		cancel()
		loggerInstance.Close()
		return nil, err
	}
	return d, nil
}

func (d *Daemon) build(opts Options) error {
	cfg := d.cfg
	log := d.logger.Logger

	tmpl, err := template.Load(cfg.TemplatePath)
	if err != nil {
		return err
	}

	d.store = opts.Store
	if d.store == nil {
		if d.store, err = recipients.Open(d.ctx, cfg.Store); err != nil {
			return fmt.Errorf("failed to open recipient store: %w", err)
		}
	}

	d.sender = opts.Sender
	if d.sender == nil {
		if d.sender, err = mail.New(cfg.Mail, log); err != nil {
			return err
		}
	}

	clock := opts.Clock
	if clock == nil {
		clock = pacer.RealClock()
	}

	schedule, err := pacer.ParseSchedule(cfg.ResetSchedule)
	if err != nil {
		return err
	}
	interval := time.Duration(cfg.IntervalMinutes) * time.Minute
	d.budget, err = pacer.NewBudget(cfg.DailyLimit, interval, schedule, clock, NewStateFile(cfg.StatePath))
	if err != nil {
		return err
	}

	d.reset, err = pacer.NewResetJob(cfg.ResetSchedule, d.budget, log)
	if err != nil {
		return err
	}

	d.pacer = pacer.New(d.store, tmpl, augment.New(cfg.Augmenter, log), d.sender, d.budget, clock, log, pacer.Options{
		StatusField:     cfg.StatusField,
		AddressField:    cfg.AddressField,
		CategoryField:   cfg.CategoryField,
		DateField:       cfg.DateField,
		SuggestionField: cfg.SuggestionField,
		DefaultSubject:  cfg.Subject,
		Follow:          d.follow,
		PollInterval:    time.Duration(cfg.PollMinutes) * time.Minute,
	})
	if opts.Jitter != nil {
		d.pacer.Jitter = opts.Jitter
	}
	return nil
}

// Start runs the send loop until it is done or a signal arrives.
func (d *Daemon) Start() (pacer.Result, error) {
	defer d.logger.Close()

	if isRunning(d.cfg.PidFile) {
		pid, _ := readPid(d.cfg.PidFile)
		return pacer.Result{}, fmt.Errorf("%w (PID: %d)", ErrAlreadyRunning, pid)
	}
	if err := writePidFile(d.cfg.PidFile); err != nil {
		return pacer.Result{}, fmt.Errorf("failed to write PID file: %w", err)
	}
	defer d.cleanup()

	stopSignals := d.setupSignalHandling()
	defer stopSignals()

	d.reset.Start()
	d.logStartupInfo()

	res, err := d.pacer.Run(d.ctx)

	stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if serr := d.reset.Stop(stopCtx); serr != nil {
		d.logger.Warn("reset scheduler did not stop in time", slog.String("error", serr.Error()))
	}

	d.logResult(res, err)
	return res, err
}

// Stop cancels a running Start.
func (d *Daemon) Stop() {
	d.logger.Info("stopping")
	d.cancel()
}

func (d *Daemon) setupSignalHandling() func() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigChan:
			d.logger.Info("received signal", slog.String("signal", sig.String()))
			util.Cyan.Printf("Received signal: %v\n", sig)
			d.cancel()
		case <-d.ctx.Done():
		}
	}()
	return func() {
		signal.Stop(sigChan)
	}
}

func (d *Daemon) logStartupInfo() {
	state := d.budget.Snapshot()
	mode := "single pass"
	if d.follow {
		mode = "follow"
	}

	util.GreenBold.Printf("outreach-send started (%s), %d/%d emails sent today\n", mode, state.SentToday, d.cfg.DailyLimit)
	util.Cyan.Printf("Mail provider: %s\n", d.sender.Name())
	util.Cyan.Printf("Interval: %s, next reset: %s\n",
		d.budget.Interval(), d.reset.Next(time.Now()).Format("2006-01-02 15:04"))
	if d.cfg.LogPath != "" {
		util.Cyan.Printf("Log file: %s\n", d.cfg.LogPath)
	}

	d.logger.Info("started",
		slog.Int("pid", os.Getpid()),
		slog.String("mode", mode),
		slog.String("mail_provider", d.sender.Name()),
		slog.String("store_provider", d.cfg.Store.Provider),
		slog.Int("daily_limit", d.cfg.DailyLimit),
		slog.Duration("interval", d.budget.Interval()),
		slog.Int("sent_today", state.SentToday))
}

func (d *Daemon) logResult(res pacer.Result, err error) {
	d.logger.Info("finished",
		slog.Int("sent", res.Sent),
		slog.Int("failed", res.Failed),
		slog.String("stop", res.Stop))

	if err != nil {
		d.logger.Error("run aborted", slog.String("error", err.Error()))
		return
	}
	util.GreenBold.Printf("Sent %d emails, %d failed", res.Sent, res.Failed)
	if res.Stop != "" {
		util.GreenBold.Printf(" (%s)", res.Stop)
	}
	fmt.Println()
}

// Preview renders the next limit unsent recipients without sending or
// writing anything.
func (d *Daemon) Preview(limit int) ([]mail.Message, error) {
	defer d.logger.Close()

	pending, err := d.store.List(d.ctx, d.cfg.StatusField, recipients.NotSent)
	if err != nil {
		return nil, fmt.Errorf("reading recipients: %w", err)
	}
	if limit > 0 && len(pending) > limit {
		pending = pending[:limit]
	}

	msgs := make([]mail.Message, 0, len(pending))
	for _, r := range pending {
		msg, err := d.pacer.Render(d.ctx, r)
		if err != nil {
			util.Red.Printf("Row %d: %v\n", r.Row, err)
			continue
		}
		msgs = append(msgs, msg)
	}
	return msgs, nil
}

func (d *Daemon) cleanup() {
	if d.cfg.PidFile != "" {
		os.Remove(d.cfg.PidFile)
	}
}

func readPid(pidFile string) (int, error) {
	if pidFile == "" {
		return 0, ErrNotRunning
	}
	pidData, err := os.ReadFile(pidFile)
	if err != nil {
		return 0, ErrNotRunning
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(pidData)))
	if err != nil {
		return 0, fmt.Errorf("invalid PID file %s: %w", pidFile, err)
	}
	return pid, nil
}

func isRunning(pidFile string) bool {
	pid, err := readPid(pidFile)
	if err != nil {
		return false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 checks that the process exists.
	return process.Signal(syscall.Signal(0)) == nil
}

func writePidFile(pidFile string) error {
	if pidFile == "" {
		return fmt.Errorf("PID file path is not configured")
	}
	return os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())), 0o644)
}

// Status prints whether a daemon is running and the saved budget.
func Status(cfg *config.Config) error {
	state, _ := NewStateFile(cfg.StatePath).Load()
	schedule, err := pacer.ParseSchedule(cfg.ResetSchedule)
	if err != nil {
		util.LogError(util.ConfigError, "parsing RESET_SCHEDULE", err)
	} else {
		now := time.Now()
		sent := state.SentToday
		if state.Expired(schedule, now) {
			sent = 0
		}
		util.Cyan.Printf("Emails sent since last reset: %d/%d\n", sent, cfg.DailyLimit)
		util.Cyan.Printf("Next reset: %s\n", schedule.Next(now).Format("2006-01-02 15:04"))
	}
	if state.LastSent != nil {
		util.Cyan.Printf("Last email sent: %s\n", state.LastSent.Local().Format("2006-01-02 15:04:05"))
	}

	if !isRunning(cfg.PidFile) {
		util.Red.Println("Daemon is not running")
		return ErrNotRunning
	}
	pid, _ := readPid(cfg.PidFile)
	util.Green.Printf("Daemon is running (PID: %d)\n", pid)
	return nil
}

// StopRunning sends SIGTERM to the daemon recorded in the PID file.
func StopRunning(cfg *config.Config) error {
	if !isRunning(cfg.PidFile) {
		return ErrNotRunning
	}
	pid, err := readPid(cfg.PidFile)
	if err != nil {
		return err
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return err
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to signal daemon: %w", err)
	}
	util.Green.Printf("Sent stop signal to daemon (PID: %d)\n", pid)
	return nil
}
