package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	db, err := New(path, Migrations())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func TestNewAppliesMigrations(t *testing.T) {
	db, _ := openTestDB(t)

	// Migration sonrası ana tablolar var olmalı
	for _, table := range []string{"users", "threads", "messages", "push_subscriptions"} {
		var name string
		err := db.Conn.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name = ?", table,
		).Scan(&name)
		assert.NoError(t, err, "table %s should exist", table)
	}
}

func TestSplitStatementsSkipsLineComments(t *testing.T) {
	// Yorum içindeki noktalı virgül statement sınırı DEĞİLDİR — aksi halde
	// yorumun geri kalanı SQL olarak çalıştırılmaya kalkılır.
	input := "-- başlık yorumu\n" +
		"CREATE TABLE a (\n" +
		"    x TEXT -- açıklama; devamı da aynı yorumun parçası\n" +
		");\n" +
		"INSERT INTO a (x) VALUES ('a;b');\n" +
		"-- dosya sonu serbest yorum"

	stmts := splitStatements(input)
	require.Len(t, stmts, 2)
	assert.Contains(t, stmts[0], "CREATE TABLE a")
	assert.Contains(t, stmts[0], "devamı da aynı yorumun parçası")
	assert.Equal(t, "INSERT INTO a (x) VALUES ('a;b')", stmts[1])
}

func TestMigrationCommentsSurviveSplitting(t *testing.T) {
	// Gömülü migration dosyaları splitter'dan geçtiğinde hiçbir parça
	// yorum ortasından başlamamalı — her statement bir SQL komutuyla açılmalı.
	for _, file := range []string{"migrations/001_init.sql"} {
		content, err := migrationsEmbed.ReadFile(file)
		require.NoError(t, err)

		for i, stmt := range splitStatements(string(content)) {
			first := firstSQLLine(stmt)
			assert.Regexpf(t, "^(CREATE|INSERT|ALTER|DROP|UPDATE|DELETE|PRAGMA)",
				first, "%s statement %d starts mid-text: %q", file, i+1, first)
		}
	}
}

func firstSQLLine(stmt string) string {
	for _, line := range strings.Split(stmt, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "--") {
			continue
		}
		return line
	}
	return ""
}

func TestNewIsIdempotent(t *testing.T) {
	_, path := openTestDB(t)

	// Aynı dosyayı ikinci kez açmak migration'ları tekrar UYGULAMAZ
	db2, err := New(path, Migrations())
	require.NoError(t, err)
	defer db2.Close()

	var count int
	require.NoError(t, db2.Conn.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&count))
	assert.Greater(t, count, 0)
}

func TestForeignKeysEnforced(t *testing.T) {
	db, _ := openTestDB(t)

	// Var olmayan kullanıcılara thread açılamaz — FK pragma aktif olmalı
	_, err := db.Conn.Exec(
		"INSERT INTO threads (id, bounty_id, client_id, freelancer_id) VALUES ('t1', 'b1', 'ghost-1', 'ghost-2')",
	)
	assert.Error(t, err)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO users (id, username) VALUES ('u1', 'ayse')")
		return err
	})
	require.NoError(t, err)

	var count int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 1, count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	db, _ := openTestDB(t)
	ctx := context.Background()

	boom := errors.New("boom")
	err := db.WithTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO users (id, username) VALUES ('u1', 'ayse')"); err != nil {
			return err
		}
		return boom
	})
	assert.True(t, errors.Is(err, boom))

	// Hata döndü — insert geri alınmış olmalı
	var count int
	require.NoError(t, db.Conn.QueryRow("SELECT COUNT(*) FROM users").Scan(&count))
	assert.Equal(t, 0, count)
}
