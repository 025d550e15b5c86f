package postgres

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/techmart/store-assistant/internal/core/domain"
)

func TestRecentTurnsReturnsChronologicalOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	// Query reads newest first.
	rows := sqlmock.NewRows([]string{"role", "content"}).
		AddRow("assistant", "second answer").
		AddRow("user", "second question").
		AddRow("assistant", "first answer").
		AddRow("user", "first question")

	mock.ExpectQuery("FROM session_turns").
		WithArgs("s-1", 4).
		WillReturnRows(rows)

	turns, err := repo.RecentTurns(context.Background(), "s-1", 4)
	if err != nil {
		t.Fatalf("RecentTurns() error = %v", err)
	}
	if len(turns) != 4 {
		t.Fatalf("turns = %d", len(turns))
	}
	if turns[0].Content != "first question" || turns[3].Content != "second answer" {
		t.Fatalf("turns not reversed to chronological order: %+v", turns)
	}
	if turns[0].Role != domain.RoleUser {
		t.Fatalf("role = %s", turns[0].Role)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPreferredLanguageMapsMissingSession(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectQuery("FROM sessions").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"preferred_language"}))

	_, err = repo.PreferredLanguage(context.Background(), "missing")
	if !domain.IsKind(err, domain.ErrSessionNotFound) {
		t.Fatalf("err = %v, want session not found kind", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestEnsureSessionIsIdempotent(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectExec("INSERT INTO sessions").
		WithArgs("s-1", "ar", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.EnsureSession(context.Background(), "s-1", domain.LanguageArabic); err != nil {
		t.Fatalf("EnsureSession() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestAppendTurnInsertsRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New() error = %v", err)
	}
	defer db.Close()

	repo := NewSessionRepository(db)
	mock.ExpectExec("INSERT INTO session_turns").
		WithArgs(sqlmock.AnyArg(), "s-1", "user", "hello", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.AppendTurn(context.Background(), "s-1", domain.Turn{Role: domain.RoleUser, Content: "hello"}); err != nil {
		t.Fatalf("AppendTurn() error = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
