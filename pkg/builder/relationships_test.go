package builder

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marshallshelly/pebble-shop/pkg/registry"
	"github.com/marshallshelly/pebble-shop/pkg/runtime"
	"github.com/marshallshelly/pebble-shop/pkg/schema"
)

type LibAuthor struct {
	ID    int64     `po:"id,primaryKey,autoIncrement"`
	Name  string    `po:"name,text,notNull"`
	Books []LibBook `po:"-,hasMany,foreignKey(author_id),references(id)"`
	Bio   *LibBio   `po:"-,hasOne,foreignKey(author_id),references(id)"`
}

type LibBook struct {
	ID       int64      `po:"id,primaryKey,autoIncrement"`
	AuthorID int64      `po:"author_id,integer,notNull,fk(lib_author.id)"`
	Title    string     `po:"title,text,notNull"`
	Author   *LibAuthor `po:"-,belongsTo,foreignKey(author_id),references(id)"`
}

type LibBio struct {
	ID       int64  `po:"id,primaryKey,autoIncrement"`
	AuthorID int64  `po:"author_id,integer,notNull"`
	Text     string `po:"text,text"`
}

func openLibrary(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	for _, model := range []any{LibAuthor{}, LibBook{}, LibBio{}} {
		require.NoError(t, registry.Register(model))
	}

	rdb, err := runtime.Open(ctx, &runtime.Config{URL: filepath.Join(t.TempDir(), "library.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = rdb.Close() })

	for _, ddl := range []string{
		`CREATE TABLE lib_author (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT NOT NULL)`,
		`CREATE TABLE lib_book (id INTEGER PRIMARY KEY AUTOINCREMENT, author_id INTEGER NOT NULL, title TEXT NOT NULL)`,
		`CREATE TABLE lib_bio (id INTEGER PRIMARY KEY AUTOINCREMENT, author_id INTEGER NOT NULL, text TEXT)`,
	} {
		_, err := rdb.Exec(ctx, ddl)
		require.NoError(t, err)
	}

	return New(rdb)
}

func seedLibrary(t *testing.T, db *DB) (ann, bob *LibAuthor) {
	t.Helper()
	ctx := context.Background()

	ann = &LibAuthor{Name: "Ann"}
	bob = &LibAuthor{Name: "Bob"}
	require.NoError(t, InsertModel(ctx, db, ann))
	require.NoError(t, InsertModel(ctx, db, bob))

	for _, b := range []*LibBook{
		{AuthorID: ann.ID, Title: "First"},
		{AuthorID: bob.ID, Title: "Second"},
		{AuthorID: ann.ID, Title: "Third"},
	} {
		require.NoError(t, InsertModel(ctx, db, b))
	}
	require.NoError(t, InsertModel(ctx, db, &LibBio{AuthorID: bob.ID, Text: "bio"}))

	return ann, bob
}

func TestInsertModel_AssignsIDs(t *testing.T) {
	db := openLibrary(t)
	ann, bob := seedLibrary(t, db)

	assert.Equal(t, int64(1), ann.ID)
	assert.Equal(t, int64(2), bob.ID)

	err := InsertModel(context.Background(), db, LibAuthor{Name: "by value"})
	assert.True(t, errors.Is(err, runtime.ErrInvalidModel), "got %v", err)
}

func TestPreload_BelongsTo(t *testing.T) {
	db := openLibrary(t)
	seedLibrary(t, db)

	books, err := Select[LibBook](db).OrderByPrimaryKey().Preload("Author").All(context.Background())
	require.NoError(t, err)
	require.Len(t, books, 3)

	got := make([]string, len(books))
	for i, b := range books {
		require.NotNil(t, b.Author, "book %d has no author", b.ID)
		got[i] = b.Title + "/" + b.Author.Name
	}
	assert.Equal(t, []string{"First/Ann", "Second/Bob", "Third/Ann"}, got)
}

func TestPreload_HasManyAndHasOne(t *testing.T) {
	db := openLibrary(t)
	seedLibrary(t, db)

	authors, err := Select[LibAuthor](db).OrderByPrimaryKey().Preload("Books", "Bio").All(context.Background())
	require.NoError(t, err)
	require.Len(t, authors, 2)

	ann, bob := authors[0], authors[1]
	require.Len(t, ann.Books, 2)
	assert.Equal(t, "First", ann.Books[0].Title)
	assert.Equal(t, "Third", ann.Books[1].Title)
	assert.Nil(t, ann.Bio)

	require.Len(t, bob.Books, 1)
	require.NotNil(t, bob.Bio)
	assert.Equal(t, "bio", bob.Bio.Text)
}

func TestPreload_UnknownRelationship(t *testing.T) {
	db := openLibrary(t)
	seedLibrary(t, db)

	_, err := Select[LibAuthor](db).Preload("Nope").All(context.Background())
	assert.Error(t, err)
}

func TestFirstCountUpdateDelete(t *testing.T) {
	db := openLibrary(t)
	ctx := context.Background()
	ann, _ := seedLibrary(t, db)

	book, err := Select[LibBook](db).Where(Eq("title", "Third")).First(ctx)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, book.AuthorID)

	_, err = Select[LibBook](db).Where(Eq("title", "missing")).First(ctx)
	assert.ErrorIs(t, err, runtime.ErrNotFound)

	book.Title = "Third, revised"
	n, err := UpdateModel(ctx, db, book)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	revised, err := Select[LibBook](db).Where(Eq("title", "Third, revised")).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), revised)

	table, err := registry.GetOrRegister(LibBook{})
	require.NoError(t, err)

	count, err := CountWhere(ctx, db, table, Eq("author_id", ann.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	deleted, err := DeleteFrom(ctx, db, table, Eq("author_id", ann.ID))
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)

	total, err := Select[LibBook](db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestRelationshipMetadata(t *testing.T) {
	table, err := registry.GetOrRegister(LibBook{})
	require.NoError(t, err)

	rel := table.GetRelationship("Author")
	require.NotNil(t, rel)
	assert.Equal(t, schema.BelongsTo, rel.Type)
	assert.Equal(t, "AuthorID", fieldForColumn(table, rel.ForeignKey))
}

func TestToPascalCase(t *testing.T) {
	tests := map[string]string{
		"customer_id": "CustomerID",
		"item_id":     "ItemID",
		"name":        "Name",
		"api_url":     "APIURL",
		"":            "",
	}
	for in, want := range tests {
		if got := toPascalCase(in); got != want {
			t.Errorf("toPascalCase(%q) = %q, want %q", in, got, want)
		}
	}
}
