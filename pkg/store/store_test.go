package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jknair0/beforeeach"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	db   *sql.DB
	mock sqlmock.Sqlmock
	s    *Store
)

func setUp() {
	db, mock, _ = sqlmock.New()
	s = New(db)
}

func tearDown() {
	db.Close()
}

var it = beforeeach.Create(setUp, tearDown)

func TestInit(t *testing.T) {
	it(func() {
		mock.ExpectExec("CREATE TABLE IF NOT EXISTS interactions").
			WillReturnResult(sqlmock.NewResult(0, 0))

		require.NoError(t, s.Init(context.Background()))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLogInteraction(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO interactions").
			WithArgs(
				sqlmock.AnyArg(), "u1", "vocabulary", sqlmock.AnyArg(),
				"text", `{"word":"cat"}`,
				"json", `{"word":"cat","meaning":"a small animal"}`,
				int64(812), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := s.LogInteraction(context.Background(), Interaction{
			UserID:            "u1",
			AgentName:         "vocabulary",
			UserInputType:     "text",
			UserInputContent:  `{"word":"cat"}`,
			AIResponseType:    "json",
			AIResponseContent: `{"word":"cat","meaning":"a small animal"}`,
			DurationMS:        812,
			Metadata:          map[string]any{"operation": "explain_word"},
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestLogInteractionAssignsID(t *testing.T) {
	it(func() {
		mock.ExpectExec("INSERT INTO interactions").
			WillReturnResult(sqlmock.NewResult(1, 1))

		require.NoError(t, s.LogInteraction(context.Background(), Interaction{UserID: "u1", AgentName: "grammar"}))
	})
}

func TestUserHistory(t *testing.T) {
	it(func() {
		now := time.Now()
		rows := sqlmock.NewRows([]string{
			"id", "user_id", "agent_name", "created_at", "user_input_type", "user_input_content",
			"ai_response_type", "ai_response_content", "duration_ms", "metadata",
		}).
			AddRow("i2", "u1", "grammar", now, "text", "he go", "text", "he goes", int64(500), `{"operation":"correct_text"}`).
			AddRow("i1", "u1", "vocabulary", now.Add(-time.Hour), "text", "cat", "json", `{"word":"cat"}`, int64(400), nil)

		mock.ExpectQuery("SELECT (.+) FROM interactions WHERE user_id = (.+) ORDER BY created_at DESC LIMIT").
			WithArgs("u1", 10).
			WillReturnRows(rows)

		history, err := s.UserHistory(context.Background(), "u1", 10)
		require.NoError(t, err)
		require.Len(t, history, 2)

		assert.Equal(t, "i2", history[0].ID, "most recent first")
		assert.Equal(t, "correct_text", history[0].Metadata["operation"])
		assert.Nil(t, history[1].Metadata)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUserHistoryDefaultLimit(t *testing.T) {
	it(func() {
		mock.ExpectQuery("SELECT (.+) FROM interactions").
			WithArgs("u1", 50).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "user_id", "agent_name", "created_at", "user_input_type", "user_input_content",
				"ai_response_type", "ai_response_content", "duration_ms", "metadata",
			}))

		history, err := s.UserHistory(context.Background(), "u1", 0)
		require.NoError(t, err)
		assert.Empty(t, history)
	})
}
