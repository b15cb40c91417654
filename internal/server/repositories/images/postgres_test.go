package images

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/mealbook/mealbook/internal/common"
	"github.com/mealbook/mealbook/internal/server/models"
)

func newRepoWithMock(t *testing.T) (*PostgresRepository, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return NewPostgresRepository(db), mock, db
}

const insertQuery = `(?s)^INSERT\s+INTO\s+images\s*\(id,\s*meal_id,\s*filename,\s*storage_key,\s*thumb_key,\s*width,\s*height,\s*sort_index,\s*is_key\)\s*VALUES\s*\(\$1,\s*\$2,\s*\$3,\s*\$4,\s*\$5,\s*\$6,\s*\$7,\s*\$8,\s*\$9\)\s*$`

func TestCreate_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WithArgs("img-1", "meal-1", "soup.jpg", "orig/img-1", "thumb/img-1", 800, 600, 3, false).
		WillReturnResult(sqlmock.NewResult(0, 1))

	img := &models.Image{
		ID: "img-1", MealID: "meal-1", Filename: "soup.jpg",
		StorageKey: "orig/img-1", ThumbKey: "thumb/img-1",
		Width: 800, Height: 600, SortIndex: 3,
	}
	if err := repo.Create(context.Background(), img); err != nil {
		t.Fatalf("Create error: %v", err)
	}
}

func TestCreate_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(insertQuery).
		WillReturnError(errors.New("db down"))

	err := repo.Create(context.Background(), &models.Image{ID: "img-1", MealID: "meal-1"})
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const selectByIDQuery = `(?s)^SELECT\s+id,\s*meal_id,\s*filename,\s*storage_key,\s*thumb_key,\s*width,\s*height,\s*sort_index,\s*is_key,\s*deleted,\s*created_at\s+FROM\s+images\s+WHERE\s+id\s*=\s*\$1\s*$`

func imageColumns() []string {
	return []string{"id", "meal_id", "filename", "storage_key", "thumb_key",
		"width", "height", "sort_index", "is_key", "deleted", "created_at"}
}

func TestGetByID_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(imageColumns()).
		AddRow("img-1", "meal-1", "soup.jpg", "orig/img-1", "thumb/img-1", 800, 600, 0, true, false, created)
	mock.ExpectQuery(selectByIDQuery).
		WithArgs("img-1").
		WillReturnRows(rows)

	got, err := repo.GetByID(context.Background(), "img-1")
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if got.ID != "img-1" || got.Filename != "soup.jpg" || !got.IsKey {
		t.Fatalf("unexpected image: %+v", got)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(selectByIDQuery).
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestListByMeal_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	q := `(?s)^SELECT\s+id,\s*meal_id,\s*filename,\s*storage_key,\s*thumb_key,\s*width,\s*height,\s*sort_index,\s*is_key,\s*deleted,\s*created_at\s+FROM\s+images\s+WHERE\s+meal_id\s*=\s*\$1\s+AND\s+NOT\s+deleted\s+ORDER\s+BY\s+sort_index,\s*created_at\s*$`

	created := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows(imageColumns()).
		AddRow("img-1", "meal-1", "soup.jpg", "orig/img-1", "thumb/img-1", 800, 600, 0, true, false, created).
		AddRow("img-2", "meal-1", "stew.jpg", "orig/img-2", "thumb/img-2", 800, 600, 1, false, false, created)
	mock.ExpectQuery(q).
		WithArgs("meal-1").
		WillReturnRows(rows)

	got, err := repo.ListByMeal(context.Background(), "meal-1")
	if err != nil {
		t.Fatalf("ListByMeal error: %v", err)
	}
	if len(got) != 2 || got[0].ID != "img-1" || got[1].ID != "img-2" {
		t.Fatalf("unexpected list: %+v", got)
	}
}

const clearKeyQuery = `(?s)^UPDATE\s+images\s+SET\s+is_key\s*=\s*FALSE\s+WHERE\s+meal_id\s*=\s*\$1\s+AND\s+is_key\s*$`
const setKeyQuery = `(?s)^UPDATE\s+images\s+SET\s+is_key\s*=\s*TRUE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+meal_id\s*=\s*\$2\s+AND\s+NOT\s+deleted\s*$`

func TestSetKey_MovesDesignation(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	// The old key flag drops before the new one is set, so the meal never
	// holds two keys.
	mock.ExpectExec(clearKeyQuery).
		WithArgs("meal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setKeyQuery).
		WithArgs("img-2", "meal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetKey(context.Background(), "meal-1", "img-2"); err != nil {
		t.Fatalf("SetKey error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetKey_ClearOnly(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(clearKeyQuery).
		WithArgs("meal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetKey(context.Background(), "meal-1", ""); err != nil {
		t.Fatalf("SetKey error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestSetKey_UnknownImage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(clearKeyQuery).
		WithArgs("meal-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(setKeyQuery).
		WithArgs("ghost", "meal-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetKey(context.Background(), "meal-1", "ghost")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

func TestSetKey_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(clearKeyQuery).
		WithArgs("meal-1").
		WillReturnError(errors.New("db down"))

	err := repo.SetKey(context.Background(), "meal-1", "img-2")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}

const setSortQuery = `(?s)^UPDATE\s+images\s+SET\s+sort_index\s*=\s*\$1\s+WHERE\s+id\s*=\s*\$2\s+AND\s+NOT\s+deleted\s*$`

func TestSetSortIndex_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(setSortQuery).
		WithArgs(4, "img-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetSortIndex(context.Background(), "img-1", 4); err != nil {
		t.Fatalf("SetSortIndex error: %v", err)
	}
}

func TestSetSortIndex_UnknownImage(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(setSortQuery).
		WithArgs(4, "ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetSortIndex(context.Background(), "ghost", 4)
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

const markDeletedQuery = `(?s)^UPDATE\s+images\s+SET\s+deleted\s*=\s*TRUE,\s*is_key\s*=\s*FALSE\s+WHERE\s+id\s*=\s*\$1\s+AND\s+NOT\s+deleted\s*$`

func TestMarkDeleted_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(markDeletedQuery).
		WithArgs("img-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkDeleted(context.Background(), "img-1"); err != nil {
		t.Fatalf("MarkDeleted error: %v", err)
	}
}

func TestMarkDeleted_AlreadyDeleted(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectExec(markDeletedQuery).
		WithArgs("img-1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkDeleted(context.Background(), "img-1")
	if !errors.Is(err, common.ErrorNotFound) {
		t.Fatalf("want common.ErrorNotFound, got %v", err)
	}
}

const nextSortQuery = `(?s)^SELECT\s+COALESCE\(MAX\(sort_index\)\s*\+\s*1,\s*0\)\s+FROM\s+images\s+WHERE\s+meal_id\s*=\s*\$1\s+AND\s+NOT\s+deleted\s*$`

func TestNextSortIndex_Success(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"coalesce"}).AddRow(5)
	mock.ExpectQuery(nextSortQuery).
		WithArgs("meal-1").
		WillReturnRows(rows)

	got, err := repo.NextSortIndex(context.Background(), "meal-1")
	if err != nil {
		t.Fatalf("NextSortIndex error: %v", err)
	}
	if got != 5 {
		t.Fatalf("unexpected index: %d", got)
	}
}

func TestNextSortIndex_DBError(t *testing.T) {
	repo, mock, db := newRepoWithMock(t)
	defer db.Close()

	mock.ExpectQuery(nextSortQuery).
		WithArgs("meal-1").
		WillReturnError(errors.New("db down"))

	_, err := repo.NextSortIndex(context.Background(), "meal-1")
	if err == nil || !regexp.MustCompile(`db error: .*db down`).MatchString(err.Error()) {
		t.Fatalf("expected wrapped db error, got %v", err)
	}
}
