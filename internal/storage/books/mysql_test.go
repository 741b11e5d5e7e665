package books

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bookshelf/internal/types"
)

func TestMySQLRepository_FailedCreateKeepsBook(t *testing.T) {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	// nothing listens on port 1
	cfg.Addr = "127.0.0.1:1"
	cfg.DBName = "bookshelf"
	cfg.ParseTime = true
	cfg.Timeout = time.Second

	connector, err := mysql.NewConnector(cfg)
	require.NoError(t, err)

	db := sql.OpenDB(connector)
	defer db.Close()

	repo := NewMySQLRepository(db, slog.New(slog.NewTextHandler(io.Discard, nil)))

	book := &types.Book{Title: "Dune"}
	assert.Error(t, repo.Create(context.Background(), book))
	assert.Empty(t, book.Id)
	assert.True(t, book.CreatedAt.IsZero())
}
