package books

import (
	"context"
	"errors"
	"log/slog"

	"github.com/doug-martin/goqu/v9"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf/internal/types"
)

func NewPGXRepository(pg *pgxpool.Pool, l *slog.Logger) Repository {
	return &pgxRepo{pg: pg, g: goqu.Dialect("postgres"), l: l}
}

type pgxRepo struct {
	pg *pgxpool.Pool
	g  goqu.DialectWrapper
	l  *slog.Logger
}

func (p *pgxRepo) GetById(ctx context.Context, id string) (*types.Book, error) {
	sql, params, err := p.g.From("book").
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	var row sqlBook

	err = pgxscan.Get(ctx, p.pg, &row, sql, params...)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = nil
		}
		return nil, err
	}

	return row.intoCommon(p.l), nil
}

func (p *pgxRepo) Search(ctx context.Context, filter Filter) ([]*types.Book, error) {
	sql, params, err := applyFilter(p.g.From("book").Prepared(true), filter).
		ToSQL()
	if err != nil {
		return nil, err
	}

	return p.selectBooks(ctx, sql, params)
}

func (p *pgxRepo) Recent(ctx context.Context, limit int) ([]*types.Book, error) {
	sql, params, err := p.g.From("book").
		Prepared(true).
		Order(goqu.C("created_at").Desc(), goqu.C("id").Asc()).
		Limit(uint(limit)).
		ToSQL()
	if err != nil {
		return nil, err
	}

	return p.selectBooks(ctx, sql, params)
}

func (p *pgxRepo) selectBooks(ctx context.Context, sql string, params []any) ([]*types.Book, error) {
	var rows []sqlBook

	err := pgxscan.Select(ctx, p.pg, &rows, sql, params...)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Book, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon(p.l))
	}

	return ret, nil
}

func (p *pgxRepo) Create(ctx context.Context, book *types.Book) error {
	n := prepareNew(book)

	sql, params, err := p.g.Insert("book").
		Prepared(true).
		Rows(fromCommon(n)).
		ToSQL()
	if err != nil {
		return err
	}

	if _, err = p.pg.Exec(ctx, sql, params...); err != nil {
		return err
	}

	markStored(book, n)
	return nil
}

func (p *pgxRepo) Update(ctx context.Context, book *types.Book) error {
	sql, params, err := p.g.Update("book").
		Prepared(true).
		Set(updateRecord(book)).
		Where(goqu.C("id").Eq(book.Id)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}

func (p *pgxRepo) Delete(ctx context.Context, id string) error {
	sql, params, err := p.g.Delete("book").
		Prepared(true).
		Where(goqu.C("id").Eq(id)).
		ToSQL()
	if err != nil {
		return err
	}

	_, err = p.pg.Exec(ctx, sql, params...)
	return err
}
