package daemon

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ryan-gang/outreach-send/internal/config"
	"github.com/ryan-gang/outreach-send/internal/logger"
	"github.com/ryan-gang/outreach-send/internal/pacer"
)

const emailTemplate = `<html><head><title>Idea for {sector}</title></head>
<body><p>Hello {name},</p><p>{suggestion}</p></body></html>`

func testConfig(t *testing.T, limit int) *config.Config {
	t.Helper()

	dir := t.TempDir()
	csvPath := filepath.Join(dir, "leads.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(
		"email,name,sector,Status,Date\n"+
			"ana@example.com,Ana,Law Firm,,\n"+
			"ben@example.com,Ben,Retail,Sent,3/1\n"+
			"cy@example.com,Cy,,,\n"+
			"di@example.com,Di,Retail,,\n"), 0o644))

	tmplPath := filepath.Join(dir, "email_template.html")
	require.NoError(t, os.WriteFile(tmplPath, []byte(emailTemplate), 0o644))

	cfg, err := config.LoadFrom(map[string]string{
		"STORE_PROVIDER":         "csv",
		"RECIPIENTS_CSV":         csvPath,
		"MAIL_PROVIDER":          "dryrun",
		"DRY_RUN_OUTBOX":         filepath.Join(dir, "outbox"),
		"EMAIL_TEMPLATE":         tmplPath,
		"DAILY_EMAIL_LIMIT":      strconv.Itoa(limit),
		"EMAIL_INTERVAL_MINUTES": "0",
		"STATE_FILE":             filepath.Join(dir, "budget.json"),
		"PID_FILE":               filepath.Join(dir, "outreach-send.pid"),
	})
	require.NoError(t, err)
	return cfg
}

func newTestDaemon(t *testing.T, cfg *config.Config) *Daemon {
	t.Helper()

	l, err := logger.New(logger.Options{})
	require.NoError(t, err)

	d, err := NewDaemon(cfg, Options{
		Logger: l,
		Jitter: func() time.Duration { return 0 },
	})
	require.NoError(t, err)
	return d
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return rows
}

func TestDaemon_SinglePassPersistsBudget(t *testing.T) {
	cfg := testConfig(t, 2)

	res, err := newTestDaemon(t, cfg).Start()
	require.NoError(t, err)
	assert.Equal(t, pacer.Result{Sent: 2, Stop: pacer.StopCapReached}, res)

	rows := readCSV(t, cfg.Store.CSVPath)
	assert.Equal(t, "Sent", rows[1][3])
	assert.Equal(t, "Sent", rows[2][3])
	assert.Equal(t, "3/1", rows[2][4])
	assert.Equal(t, "Sent", rows[3][3])
	assert.Equal(t, "", rows[4][3])

	outbox, err := os.ReadDir(cfg.Mail.Outbox)
	require.NoError(t, err)
	assert.Len(t, outbox, 2)

	state, err := NewStateFile(cfg.StatePath).Load()
	require.NoError(t, err)
	assert.Equal(t, 2, state.SentToday)
	assert.Equal(t, time.Now().Format("2006-01-02"), state.Day)

	res, err = newTestDaemon(t, cfg).Start()
	require.NoError(t, err)
	assert.Equal(t, pacer.Result{Stop: pacer.StopCapReached}, res, "a restart on the same day keeps the count")
	assert.Equal(t, "", readCSV(t, cfg.Store.CSVPath)[4][3])

	_, err = os.Stat(cfg.PidFile)
	assert.True(t, os.IsNotExist(err), "PID file is removed when the run ends")
}

func TestDaemon_RefusesConcurrentRun(t *testing.T) {
	cfg := testConfig(t, 10)
	require.NoError(t, writePidFile(cfg.PidFile))

	res, err := newTestDaemon(t, cfg).Start()
	require.ErrorIs(t, err, ErrAlreadyRunning)
	assert.Equal(t, pacer.Result{}, res)

	rows := readCSV(t, cfg.Store.CSVPath)
	assert.Equal(t, "", rows[1][3], "nothing is sent while another run holds the PID file")
	_, err = os.Stat(cfg.Mail.Outbox)
	assert.True(t, os.IsNotExist(err))
	assert.FileExists(t, cfg.PidFile, "the other run's PID file is left alone")
}

func TestDaemon_Preview(t *testing.T) {
	cfg := testConfig(t, 10)

	msgs, err := newTestDaemon(t, cfg).Preview(2)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "ana@example.com", msgs[0].To)
	assert.Equal(t, "Idea for Law Firm", msgs[0].Subject)
	assert.Contains(t, msgs[0].HTML, "<p>Hello Ana,</p>")
	assert.Equal(t, "cy@example.com", msgs[1].To)

	rows := readCSV(t, cfg.Store.CSVPath)
	assert.Equal(t, "", rows[1][3], "preview writes nothing")
	_, err = os.Stat(cfg.StatePath)
	assert.True(t, os.IsNotExist(err))
}

func TestNewDaemon_RejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(t, 10)
	cfg.DailyLimit = 0
	_, err := NewDaemon(cfg, Options{})
	require.Error(t, err)

	cfg = testConfig(t, 10)
	cfg.TemplatePath = filepath.Join(t.TempDir(), "missing.html")
	l, _ := logger.New(logger.Options{})
	_, err = NewDaemon(cfg, Options{Logger: l})
	require.Error(t, err)

	_, err = NewDaemon(nil, Options{})
	require.Error(t, err)
}

func TestStatusAndStop(t *testing.T) {
	cfg := testConfig(t, 10)

	require.ErrorIs(t, Status(cfg), ErrNotRunning)
	require.ErrorIs(t, StopRunning(cfg), ErrNotRunning)

	require.NoError(t, writePidFile(cfg.PidFile))
	assert.True(t, isRunning(cfg.PidFile))
	require.NoError(t, Status(cfg))

	require.NoError(t, os.WriteFile(cfg.PidFile, []byte("garbage"), 0o644))
	assert.False(t, isRunning(cfg.PidFile))
}

func TestStateFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state", "budget.json")
	sf := NewStateFile(path)

	state, err := sf.Load()
	require.NoError(t, err)
	assert.Equal(t, pacer.State{}, state)

	last := time.Date(2026, 3, 9, 10, 30, 0, 0, time.UTC)
	require.NoError(t, sf.Save(pacer.State{SentToday: 3, Day: "2026-03-09", LastSent: &last}))

	state, err = sf.Load()
	require.NoError(t, err)
	assert.Equal(t, 3, state.SentToday)
	assert.Equal(t, "2026-03-09", state.Day)
	require.NotNil(t, state.LastSent)
	assert.True(t, state.LastSent.Equal(last))

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	state, err = sf.Load()
	require.NoError(t, err)
	assert.Equal(t, pacer.State{}, state)
}
