package cli

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/V4T54L/grabbag/internal/sqlclause"
)

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

// isolateEnv runs the test in an empty directory with every variable that
// would attach a remote sink cleared.
func isolateEnv(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, key := range []string{"CRITICAL_EMAIL_FROM", "CRITICAL_EMAIL_TO", "REDIS_URL", "POSTGRES_URL"} {
		t.Setenv(key, "")
	}
	t.Setenv("CONSOLE_COLOR", "never")
	return dir
}

func stubOpenDB(t *testing.T, db *sql.DB) {
	t.Helper()
	orig := openDB
	openDB = func(string) (*sql.DB, error) { return db, nil }
	t.Cleanup(func() { openDB = orig })
}

func TestSelectCmd(t *testing.T) {
	out, _, err := execute(t, "select", "DATETIME", "ARG_WORKS", "LOCATION", "CHECK2", "ARG_WORKS")
	require.NoError(t, err)
	assert.Equal(t, "SELECT DATETIME, ARG_WORKS, LOCATION, CHECK2, ARG_WORKS\n", out)

	_, _, err = execute(t, "select")
	assert.ErrorIs(t, err, sqlclause.ErrNoColumns)
}

func TestWhereCmd(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    string
		wantErr error
	}{
		{
			name: "ordered connectors",
			args: []string{"where", "MATER = 'Howdy Pardner'", "and=fog = 'low'", "or=LOCATION = 1"},
			want: "WHERE MATER = 'Howdy Pardner' AND fog = 'low' OR LOCATION = 1\n",
		},
		{
			name: "legacy keys",
			args: []string{"where", "a = 1", "W_OR=b = 2", "w_and=c = 3"},
			want: "WHERE a = 1 OR b = 2 AND c = 3\n",
		},
		{
			name: "base only",
			args: []string{"where", "x > 0"},
			want: "WHERE x > 0\n",
		},
		{
			name:    "unknown connector",
			args:    []string{"where", "a = 1", "xor=b = 2"},
			wantErr: sqlclause.ErrUnrecognizedConnector,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, tt.args...)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, out)
		})
	}
}

func TestWhereCmd_Validation(t *testing.T) {
	_, _, err := execute(t, "where")
	require.Error(t, err)

	_, _, err = execute(t, "where", "a = 1", "no-separator")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONNECTOR=CLAUSE")
}

func TestFiledateCmd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "report.csv")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	mtime := time.Date(2023, 4, 5, 12, 0, 0, 0, time.Local)
	require.NoError(t, os.Chtimes(path, mtime, mtime))

	out, _, err := execute(t, "filedate", path)
	require.NoError(t, err)
	assert.Equal(t, "2023-04-05\n", out)

	out, _, err = execute(t, "filedate", "--mode", "created", path, path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasSuffix(lines[0], "\t"+path))

	_, _, err = execute(t, "filedate", filepath.Join(dir, "missing"))
	require.Error(t, err)

	_, _, err = execute(t, "filedate", "--mode", "accessed", path)
	require.Error(t, err)
}

func TestLogdemoCmd_ConsoleAndJSONFile(t *testing.T) {
	dir := isolateEnv(t)
	t.Setenv("LOG_FILE_MODE", "json")
	t.Setenv("LOG_FILE_PATH", filepath.Join(dir, "demo"))

	out, stderr, err := execute(t, "logdemo", "--message", "checkpoint")
	require.NoError(t, err)
	assert.Contains(t, out, "logger general_log ran 1 round(s) of 5 severities through console,file in ")

	consoleLines := strings.Split(strings.TrimSpace(stderr), "\n")
	require.Len(t, consoleLines, 5)
	for i, level := range []string{"DEBUG", "INFO", "WARNING", "ERROR", "CRITICAL"} {
		assert.True(t, strings.HasPrefix(consoleLines[i], level+"|"), consoleLines[i])
		assert.Contains(t, consoleLines[i], "|general_log| checkpoint")
	}

	data, err := os.ReadFile(filepath.Join(dir, "demo.json"))
	require.NoError(t, err)
	fileLines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, fileLines, 4)
	for i, level := range []string{"INFO", "WARNING", "ERROR", "CRITICAL"} {
		var obj map[string]any
		require.NoError(t, json.Unmarshal([]byte(fileLines[i]), &obj))
		assert.Equal(t, level, obj["level"])
		assert.Equal(t, "checkpoint", obj["message"])
	}
}

func TestLogdemoCmd_FlagOverrides(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_FILE_MODE", "log")

	out, stderr, err := execute(t, "logdemo", "--name", "billing", "--file-mode", "none", "--repeat", "2", "--rps", "1000")
	require.NoError(t, err)
	assert.Contains(t, out, "logger billing ran 2 round(s) of 5 severities through console in ")
	assert.Len(t, strings.Split(strings.TrimSpace(stderr), "\n"), 10)

	entries, err := os.ReadDir(".")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestLogdemoCmd_InvalidInput(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "logdemo", "--repeat", "0")
	require.Error(t, err)

	t.Setenv("CONSOLE_LOG_LEVEL", "loud")
	_, _, err = execute(t, "logdemo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "CONSOLE_LOG_LEVEL")

	t.Setenv("CONSOLE_LOG_LEVEL", "debug")
	t.Setenv("MAIL_STARTTLS", "sometimes")
	_, _, err = execute(t, "logdemo")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "MAIL_STARTTLS")
}

func TestLogdemoCmd_SummaryCountsRounds(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_FILE_MODE", "none")
	t.Setenv("CONSOLE_LOG_LEVEL", "error")

	out, stderr, err := execute(t, "logdemo", "--repeat", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "ran 3 round(s) of 5 severities through console in ")
	assert.Len(t, strings.Split(strings.TrimSpace(stderr), "\n"), 6, "only ERROR and CRITICAL reach the console")
}

func TestLogdemoCmd_ForwardsToRedis(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_FILE_MODE", "none")
	mr := miniredis.RunT(t)
	t.Setenv("REDIS_URL", "redis://"+mr.Addr())
	t.Setenv("FORWARD_LOG_LEVEL", "error")

	out, _, err := execute(t, "logdemo")
	require.NoError(t, err)
	assert.Contains(t, out, "console,redis")

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	n, err := client.XLen(context.Background(), "log_records").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestLogdemoCmd_SkipsUnreachablePostgres(t *testing.T) {
	isolateEnv(t)
	t.Setenv("LOG_FILE_MODE", "none")
	t.Setenv("POSTGRES_URL", "postgres://example.invalid/logs")

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS").WillReturnError(errors.New("connection refused"))
	mock.ExpectClose()
	stubOpenDB(t, db)

	out, stderr, err := execute(t, "logdemo")
	require.NoError(t, err)
	assert.Contains(t, out, "through console in ")
	assert.Contains(t, stderr, "postgres forwarding disabled")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogqCmd(t *testing.T) {
	isolateEnv(t)

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT level, message FROM "log_records" WHERE level = 'ERROR' OR level = 'CRITICAL'`)).
		WillReturnRows(sqlmock.NewRows([]string{"level", "message"}).
			AddRow("ERROR", "disk full").
			AddRow("CRITICAL", "db down"))
	mock.ExpectClose()
	stubOpenDB(t, db)

	out, _, err := execute(t, "logq", "--dsn", "postgres://localhost/logs", "--table", "log_records",
		"--columns", "level,message", "level = 'ERROR'", "or=level = 'CRITICAL'")
	require.NoError(t, err)
	assert.Equal(t, "{\"level\":\"ERROR\",\"message\":\"disk full\"}\n{\"level\":\"CRITICAL\",\"message\":\"db down\"}\n", out)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLogqCmd_RequiresDSN(t *testing.T) {
	isolateEnv(t)

	_, _, err := execute(t, "logq")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "POSTGRES_URL")
}

func TestVersionCmd(t *testing.T) {
	out, _, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "grabbag version dev (commit: none)\n", out)

	_, _, err = execute(t, "version", "extra")
	require.Error(t, err)
}
