package books

import (
	"context"
	"database/sql"
	"log/slog"

	"github.com/doug-martin/goqu/v9"

	"bookshelf/internal/types"
)

// NewMySQLRepository expects db opened with parseTime=true
func NewMySQLRepository(db *sql.DB, l *slog.Logger) Repository {
	return &mysqlRepo{db: goqu.New("mysql", db), l: l}
}

type mysqlRepo struct {
	db *goqu.Database
	l  *slog.Logger
}

func (m *mysqlRepo) GetById(ctx context.Context, id string) (*types.Book, error) {
	var row sqlBook

	found, err := m.db.From("book").
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ScanStructContext(ctx, &row)
	if err != nil || !found {
		return nil, err
	}

	return row.intoCommon(m.l), nil
}

func (m *mysqlRepo) Search(ctx context.Context, filter Filter) ([]*types.Book, error) {
	return m.selectBooks(ctx, applyFilter(m.db.From("book").Prepared(true), filter))
}

func (m *mysqlRepo) Recent(ctx context.Context, limit int) ([]*types.Book, error) {
	return m.selectBooks(ctx, m.db.From("book").
		Prepared(true).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc()).
		Limit(uint(limit)))
}

func (m *mysqlRepo) selectBooks(ctx context.Context, qb *goqu.SelectDataset) ([]*types.Book, error) {
	var rows []sqlBook

	err := qb.ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon(m.l))
	}

	return ret, nil
}

func (m *mysqlRepo) Create(ctx context.Context, book *types.Book) error {
	n := prepareNew(book)

	_, err := m.db.Insert("book").
		Prepared(true).
		Rows(fromCommon(n)).
		Executor().
		ExecContext(ctx)
	if err != nil {
		return err
	}

	markStored(book, n)
	return nil
}

func (m *mysqlRepo) Update(ctx context.Context, book *types.Book) error {
	_, err := m.db.Update("book").
		Prepared(true).
		Set(updateRecord(book)).
		Where(goqu.C("id").Eq(book.Id)).
		Executor().
		ExecContext(ctx)
	return err
}

func (m *mysqlRepo) Delete(ctx context.Context, id string) error {
	_, err := m.db.Delete("book").
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		Executor().
		ExecContext(ctx)
	return err
}
