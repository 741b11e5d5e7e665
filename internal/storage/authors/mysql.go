package authors

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"

	"bookshelf/internal/types"
)

func NewMySQLRepository(db *sql.DB) Repository {
	return &mysqlRepo{db: goqu.New("mysql", db)}
}

type mysqlRepo struct {
	db *goqu.Database
}

func (m *mysqlRepo) GetById(ctx context.Context, id string) (*types.Author, error) {
	var row pgxAuthor

	found, err := m.db.From("author").
		Where(goqu.C("id").Eq(id)).
		ScanStructContext(ctx, &row)
	if err != nil || !found {
		return nil, err
	}

	return row.intoCommon(), nil
}

func (m *mysqlRepo) GetByIds(ctx context.Context, ids ...string) (map[string]*types.Author, error) {
	if len(ids) == 0 {
		return make(map[string]*types.Author), nil
	}

	var rows []pgxAuthor

	err := m.db.From("author").
		Where(goqu.C("id").In(ids)).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, err
	}

	ret := make(map[string]*types.Author, len(rows))
	for _, row := range rows {
		ret[row.Id] = row.intoCommon()
	}

	return ret, nil
}

func (m *mysqlRepo) GetAll(ctx context.Context) ([]*types.Author, error) {
	var rows []pgxAuthor

	err := m.db.From("author").
		Order(goqu.C("name").Asc(), goqu.C("id").Asc()).
		ScanStructsContext(ctx, &rows)
	if err != nil {
		return nil, err
	}

	ret := make([]*types.Author, 0, len(rows))
	for _, row := range rows {
		ret = append(ret, row.intoCommon())
	}

	return ret, nil
}

func (m *mysqlRepo) Save(ctx context.Context, authors ...*types.Author) error {
	if len(authors) == 0 {
		return nil
	}

	// mysql dialect renders DoUpdate as ON DUPLICATE KEY UPDATE, the target is ignored
	_, err := m.db.Insert("author").
		Rows(intoRows(authors)...).
		OnConflict(goqu.DoUpdate("id", goqu.Record{
			"name": goqu.L("VALUES(name)"),
		})).
		Executor().
		ExecContext(ctx)
	return err
}
