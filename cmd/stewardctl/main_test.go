package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/datasteward/steward/internal/app"
	"github.com/datasteward/steward/internal/config"
	"github.com/datasteward/steward/internal/infra/auth"
	"github.com/datasteward/steward/internal/infra/logger"
)

// setupEnv points the CLI at a seeded SQLite file
func setupEnv(t *testing.T) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "steward.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", path)
	t.Setenv("DEFAULT_SCHEMA", "")
	t.Setenv("DEFAULT_ACTOR", "cli-tester")
	t.Setenv("JWT_SECRET", "cli-secret")
	t.Setenv("REDIS_ENABLED", "false")

	cfg, err := config.Load()
	require.NoError(t, err)
	a, err := app.New(cfg, logger.Discard())
	require.NoError(t, err)
	defer a.Close()

	db, err := a.Provider.DB(context.Background())
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE products (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL, price REAL);
		INSERT INTO products (name, price) VALUES ('lamp', 19.5), ('desk', 120);
	`)
	require.NoError(t, err)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeSnapshot(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "edit.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestApplyAndAudit(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "Audit table ready in main")

	out, err = execute(t, "tables")
	require.NoError(t, err)
	assert.Contains(t, out, "products")
	assert.Contains(t, out, "📋 Data Steward Audit")

	file := writeSnapshot(t, `{
		"original": [{"data": {"id": 1, "name": "lamp", "price": 19.5}}, {"data": {"id": 2, "name": "desk", "price": 120}}],
		"rows":     [{"data": {"id": 1, "name": "lamp", "price": 21}}, {"data": {"id": "", "name": "chair", "price": 45}, "is_new": true}]
	}`)

	out, err = execute(t, "apply", "--table", "products", "--file", file, "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "Dry run")
	assert.Contains(t, out, "1 new rows inserted and 1 changes made and 1 rows deleted - all logged")

	out, err = execute(t, "audit")
	require.NoError(t, err)
	assert.Contains(t, out, "No audit entries found.")

	out, err = execute(t, "apply", "-t", "products", "-f", file)
	require.NoError(t, err)
	assert.Equal(t, "1 new rows inserted and 1 changes made and 1 rows deleted - all logged\n", out)

	out, err = execute(t, "audit", "--table", "products", "--record", "1")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	assert.Contains(t, lines[0], "UPDATE")
	assert.Contains(t, lines[0], "products[1].price  19.5 -> 21  by cli-tester")

	out, err = execute(t, "audit", "--table", "products")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 1+2+2)
}

func TestApply_RejectsAuditTable(t *testing.T) {
	setupEnv(t)
	file := writeSnapshot(t, `{"rows": []}`)

	_, err := execute(t, "apply", "-t", "data_steward_audit", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "VALID_4002")
}

func TestApply_RequiresRows(t *testing.T) {
	setupEnv(t)
	file := writeSnapshot(t, `{"original": []}`)

	_, err := execute(t, "apply", "-t", "products", "-f", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no rows")
}

func TestSchemas(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "schemas")
	require.NoError(t, err)
	assert.Equal(t, "main\n", out)
}

func TestTokenAndHashKey(t *testing.T) {
	setupEnv(t)

	out, err := execute(t, "token", "alice")
	require.NoError(t, err)
	tokens, err := auth.NewTokenService("cli-secret", 0, "data-steward")
	require.NoError(t, err)
	claims, err := tokens.Validate(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "alice", claims.Actor)
	assert.Equal(t, "steward", claims.Role)

	out, err = execute(t, "hash-key", "etl-bot", "s3cret", "--cost", strconv.Itoa(bcrypt.MinCost))
	require.NoError(t, err)
	keys, err := auth.NewAPIKeyAuthenticator([]string{strings.TrimSpace(out)})
	require.NoError(t, err)
	actor, err := keys.Authenticate("etl-bot:s3cret")
	require.NoError(t, err)
	assert.Equal(t, "etl-bot", actor)
}
