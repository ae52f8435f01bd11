package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// sqlRecorder captures the SQL gorm generates so dry-run sessions can
// be asserted on without a live database.
type sqlRecorder struct {
	sqls []string
}

func (r *sqlRecorder) LogMode(gormlogger.LogLevel) gormlogger.Interface { return r }
func (r *sqlRecorder) Info(context.Context, string, ...interface{})    {}
func (r *sqlRecorder) Warn(context.Context, string, ...interface{})    {}
func (r *sqlRecorder) Error(context.Context, string, ...interface{})   {}

func (r *sqlRecorder) Trace(_ context.Context, _ time.Time, fc func() (string, int64), _ error) {
	sql, _ := fc()
	r.sqls = append(r.sqls, sql)
}

func dryRunDB(t *testing.T, rec *sqlRecorder) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(postgres.Open("host=localhost user=app dbname=app"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               rec,
	})
	require.NoError(t, err)
	// DryRun keeps stmt.SQL between finishers, so a second query on a
	// reused chain would replay the first statement; clear it so each
	// query is rebuilt and recorded.
	err = db.Callback().Query().Before("gorm:query").
		Register("test:reset_dryrun_sql", func(tx *gorm.DB) {
			tx.Statement.SQL.Reset()
			tx.Statement.Vars = nil
		})
	require.NoError(t, err)
	return db
}

func TestTitleList_GenreFilterSelectsDistinctTitleRows(t *testing.T) {
	rec := &sqlRecorder{}
	repo := NewTitleRepository(dryRunDB(t, rec))

	_, _, err := repo.List(context.Background(), TitleFilter{GenreSlug: "fantasy"}, 1, 20)
	require.NoError(t, err)

	var pageSQL string
	for _, s := range rec.sqls {
		if strings.Contains(s, "LIMIT") {
			pageSQL = s
		}
	}
	require.NotEmpty(t, pageSQL, "no paged select was generated")

	// the genre join multiplies rows, so the distinct must cover the
	// title columns only, not the joined ones
	assert.Regexp(t, `SELECT DISTINCT "?titles"?\.\*`, pageSQL)
	assert.Contains(t, pageSQL, "title_genres")
}

func TestTitleList_CountDistinctTitleIDs(t *testing.T) {
	rec := &sqlRecorder{}
	repo := NewTitleRepository(dryRunDB(t, rec))

	_, _, err := repo.List(context.Background(), TitleFilter{GenreSlug: "fantasy"}, 1, 20)
	require.NoError(t, err)

	var countSQL string
	for _, s := range rec.sqls {
		if strings.Contains(s, "COUNT") {
			countSQL = s
		}
	}
	require.NotEmpty(t, countSQL, "no count select was generated")
	assert.Regexp(t, `COUNT\(DISTINCT\("?titles"?\."?id"?\)\)`, countSQL)
}
