package postgres

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adanyl0v/go-task-delivery/internal/models"
	"github.com/adanyl0v/go-task-delivery/internal/storage"
)

const testDSNEnv = "POSTGRES_TEST_DSN"

// newTestStore connects to the database named by POSTGRES_TEST_DSN and
// migrates a fresh schema that is dropped when the test ends.
func newTestStore(t *testing.T) *Store {
	t.Helper()

	dsn := os.Getenv(testDSNEnv)
	if dsn == "" {
		t.Skipf("%s is not set", testDSNEnv)
	}

	ctx := context.Background()
	schema := "test_" + strings.ReplaceAll(uuid.NewString(), "-", "")
	quoted := pgx.Identifier{schema}.Sanitize()

	conn, err := pgx.Connect(ctx, dsn)
	require.NoError(t, err)
	_, err = conn.Exec(ctx, "CREATE SCHEMA "+quoted)
	require.NoError(t, err)
	t.Cleanup(func() {
		_, _ = conn.Exec(context.Background(), "DROP SCHEMA "+quoted+" CASCADE")
		_ = conn.Close(context.Background())
	})

	cfg, err := pgxpool.ParseConfig(dsn)
	require.NoError(t, err)
	cfg.ConnConfig.RuntimeParams["search_path"] = schema
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	require.NoError(t, err)

	s := New(pool)
	t.Cleanup(func() { _ = s.Close() })

	version, err := s.Migrate(ctx)
	require.NoError(t, err)
	require.Equal(t, len(migrations), version)
	return s
}

func createUser(t *testing.T, s *Store, username string, role models.Role) *models.User {
	t.Helper()
	user := &models.User{
		Username:     username,
		PasswordHash: "hash",
		Role:         role,
		CreatedAt:    time.Now(),
	}
	require.NoError(t, s.CreateUser(testContext(t), user))
	return user
}

func createTask(t *testing.T, s *Store, creatorID int64, title string) *models.Task {
	t.Helper()
	now := time.Now()
	task := &models.Task{
		Title:     title,
		Status:    models.StatusPending,
		CreatorID: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	require.NoError(t, s.CreateTask(testContext(t), task))
	return task
}

func TestStore_MigrateIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	version, err := s.Migrate(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, len(migrations), version)
}

func TestStore_Users(t *testing.T) {
	s := newTestStore(t)
	user := createUser(t, s, "ana", models.RoleMember)
	assert.NotZero(t, user.ID)

	err := s.CreateUser(testContext(t), &models.User{
		Username:     "ana",
		PasswordHash: "hash",
		Role:         models.RoleMember,
		CreatedAt:    time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	got, err := s.GetUserByUsername(testContext(t), "ana")
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, models.RoleMember, got.Role)

	_, err = s.GetUserByUsername(testContext(t), "nobody")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.UpdateUserPassword(testContext(t), user.ID, "new-hash"))
	got, err = s.GetUserByUsername(testContext(t), "ana")
	require.NoError(t, err)
	assert.Equal(t, "new-hash", got.PasswordHash)

	assert.ErrorIs(t, s.UpdateUserPassword(testContext(t), user.ID+100, "x"), storage.ErrNotFound)
}

func TestStore_Tasks(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "boss", models.RoleAdmin)
	member := createUser(t, s, "ana", models.RoleMember)

	first := createTask(t, s, admin.ID, "First")
	second := createTask(t, s, member.ID, "Second")

	all, err := s.ListTasks(testContext(t), models.TaskFilter{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)
	assert.Equal(t, "boss", all[1].CreatorUsername)

	own, err := s.ListTasks(testContext(t), models.TaskFilter{CreatorID: &member.ID})
	require.NoError(t, err)
	require.Len(t, own, 1)
	assert.Equal(t, second.ID, own[0].ID)

	first.Status = models.StatusCompleted
	first.UpdatedAt = time.Now()
	require.NoError(t, s.UpdateTaskStatus(testContext(t), first))
	got, err := s.GetTask(testContext(t), first.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	err = s.CreateTask(testContext(t), &models.Task{
		Title:     "Orphan",
		Status:    models.StatusPending,
		CreatorID: member.ID + 100,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, storage.ErrReferenceNotFound)

	_, err = s.GetTask(testContext(t), second.ID+100)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteTask(testContext(t), second.ID))
	assert.ErrorIs(t, s.DeleteTask(testContext(t), second.ID), storage.ErrNotFound)
}

func TestStore_Subtasks(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "boss", models.RoleAdmin)
	task := createTask(t, s, admin.ID, "Report")

	now := time.Now()
	subtask := &models.Subtask{
		TaskID:      task.ID,
		Description: "Outline",
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, s.CreateSubtask(testContext(t), subtask))
	assert.NotZero(t, subtask.ID)

	subtask.Description = "Outline v2"
	subtask.Status = models.StatusCompleted
	subtask.UpdatedAt = now.Add(time.Minute)
	require.NoError(t, s.UpdateSubtask(testContext(t), subtask))

	list, err := s.ListSubtasks(testContext(t), task.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Outline v2", list[0].Description)
	assert.Equal(t, models.StatusCompleted, list[0].Status)

	other := createTask(t, s, admin.ID, "Slides")
	assert.ErrorIs(t, s.DeleteSubtask(testContext(t), other.ID, subtask.ID), storage.ErrNotFound)
	require.NoError(t, s.DeleteSubtask(testContext(t), task.ID, subtask.ID))

	err = s.CreateSubtask(testContext(t), &models.Subtask{
		TaskID:      task.ID + 100,
		Description: "Lost",
		Status:      models.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	assert.ErrorIs(t, err, storage.ErrReferenceNotFound)
}

func TestStore_Submissions(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "boss", models.RoleAdmin)
	member := createUser(t, s, "ana", models.RoleMember)
	task := createTask(t, s, admin.ID, "Report")

	submittedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	submission := &models.Submission{TaskID: task.ID, UserID: member.ID, SubmittedAt: submittedAt}
	require.NoError(t, s.InsertSubmission(testContext(t), submission))
	assert.ErrorIs(t, s.InsertSubmission(testContext(t), submission), storage.ErrAlreadyExists)

	ref := "1_2_3_abcdef01.pdf"
	previous, err := s.UpsertSubmission(testContext(t), &models.Submission{
		TaskID:        task.ID,
		UserID:        member.ID,
		SubmittedAt:   submittedAt.Add(time.Hour),
		FileReference: &ref,
	})
	require.NoError(t, err)
	assert.Nil(t, previous)

	next := "1_2_4_abcdef02.pdf"
	previous, err = s.UpsertSubmission(testContext(t), &models.Submission{
		TaskID:        task.ID,
		UserID:        member.ID,
		SubmittedAt:   submittedAt.Add(2 * time.Hour),
		FileReference: &next,
	})
	require.NoError(t, err)
	require.NotNil(t, previous)
	assert.Equal(t, ref, *previous)

	got, err := s.GetSubmission(testContext(t), task.ID, member.ID)
	require.NoError(t, err)
	assert.Equal(t, "ana", got.Username)
	require.NotNil(t, got.FileReference)
	assert.Equal(t, next, *got.FileReference)
	assert.True(t, submittedAt.Add(2*time.Hour).Equal(got.SubmittedAt))

	_, err = s.UpsertSubmission(testContext(t), &models.Submission{
		TaskID:        task.ID + 100,
		UserID:        member.ID,
		SubmittedAt:   submittedAt,
		FileReference: &ref,
	})
	assert.ErrorIs(t, err, storage.ErrReferenceNotFound)

	list, err := s.ListSubmissions(testContext(t), task.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, s.DeleteTask(testContext(t), task.ID))
	_, err = s.GetSubmission(testContext(t), task.ID, member.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

// Every replaced reference must be reported exactly once, including
// when the first uploads of a pair race each other.
func TestStore_UpsertSubmission_ConcurrentFirstUploads(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "boss", models.RoleAdmin)
	member := createUser(t, s, "ana", models.RoleMember)
	task := createTask(t, s, admin.ID, "Report")

	const writers = 8
	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		replaced []string
		firsts   int
	)
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			ref := fmt.Sprintf("%d_%d_%d_abcdef%02d.pdf", task.ID, member.ID, i, i)
			previous, err := s.UpsertSubmission(context.Background(), &models.Submission{
				TaskID:        task.ID,
				UserID:        member.ID,
				SubmittedAt:   time.Now(),
				FileReference: &ref,
			})
			if err != nil {
				errs <- err
				return
			}
			mu.Lock()
			defer mu.Unlock()
			if previous == nil {
				firsts++
				return
			}
			replaced = append(replaced, *previous)
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	assert.Equal(t, 1, firsts)
	got, err := s.GetSubmission(testContext(t), task.ID, member.ID)
	require.NoError(t, err)
	require.NotNil(t, got.FileReference)

	seen := map[string]bool{*got.FileReference: true}
	for _, ref := range replaced {
		assert.False(t, seen[ref], ref)
		seen[ref] = true
	}
	assert.Len(t, seen, writers)
}

func TestStore_Stats(t *testing.T) {
	s := newTestStore(t)
	admin := createUser(t, s, "boss", models.RoleAdmin)
	member := createUser(t, s, "ana", models.RoleMember)
	idle := createUser(t, s, "luis", models.RoleMember)
	task := createTask(t, s, admin.ID, "Report")
	own := createTask(t, s, member.ID, "Notes")
	own.Status = models.StatusCompleted
	own.UpdatedAt = time.Now()
	require.NoError(t, s.UpdateTaskStatus(testContext(t), own))

	submittedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ref := "1_2_3_abcdef01.pdf"
	_, err := s.UpsertSubmission(testContext(t), &models.Submission{
		TaskID:        task.ID,
		UserID:        member.ID,
		SubmittedAt:   submittedAt,
		FileReference: &ref,
	})
	require.NoError(t, err)

	all, err := s.CountTasksByStatus(testContext(t), nil)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.StatusPending: 1, models.StatusCompleted: 1}, all)

	mine, err := s.CountTasksByStatus(testContext(t), &member.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.StatusCompleted: 1}, mine)

	none, err := s.CountTasksByStatus(testContext(t), &idle.ID)
	require.NoError(t, err)
	assert.Empty(t, none)

	members, err := s.MemberStats(testContext(t), nil)
	require.NoError(t, err)
	require.Len(t, members, 2)
	assert.Equal(t, "ana", members[0].Username)
	assert.Equal(t, 1, members[0].Submissions)
	assert.Equal(t, 1, members[0].Files)
	require.NotNil(t, members[0].LastSubmittedAt)
	assert.True(t, submittedAt.Equal(*members[0].LastSubmittedAt))
	assert.Equal(t, "luis", members[1].Username)
	assert.Zero(t, members[1].Submissions)
	assert.Nil(t, members[1].LastSubmittedAt)

	members, err = s.MemberStats(testContext(t), &idle.ID)
	require.NoError(t, err)
	require.Len(t, members, 1)
	assert.Equal(t, idle.ID, members[0].UserID)
}
