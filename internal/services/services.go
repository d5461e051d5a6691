package services

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/adanyl0v/go-task-delivery/internal/filestore"
	"github.com/adanyl0v/go-task-delivery/internal/models"
)

// TokenTTL is the fixed lifetime of an access token. Roles are read from
// the token, so a role change takes effect within this window at most.
const TokenTTL = 8 * time.Hour

// SubmissionContentType is the only accepted upload type.
const SubmissionContentType = "application/pdf"

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrUserAlreadyExists    = errors.New("user already exists")
	ErrUserPasswordMismatch = errors.New("user password mismatch")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidToken         = errors.New("invalid token")

	ErrTaskNotFound      = errors.New("task not found")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrSubtaskNotFound   = errors.New("subtask not found")

	ErrSubmissionAlreadyExists = errors.New("submission already exists")
	ErrUnsupportedMediaType    = errors.New("only application/pdf files are accepted")
	ErrFileNotFound            = errors.New("file not found")
	ErrForbidden               = errors.New("forbidden")
)

type TokenService interface {
	// Issue signs an access token for the identity, valid for TokenTTL.
	Issue(identity models.Identity) (string, time.Time, error)

	// Verify returns the identity embedded in the token or an error
	// wrapping ErrInvalidToken when the signature, payload, issuer or
	// expiry doesn't check out.
	Verify(token string) (*models.Identity, error)
}

type AuthService interface {
	// Register creates a user with a hashed password.
	//
	// The role defaults to models.RoleMember. It returns ErrInvalidRole
	// for an unknown role or ErrUserAlreadyExists if the username is taken.
	Register(ctx context.Context, params RegisterParams) (*models.User, error)

	// Login authenticates the user by username and password and issues
	// an access token.
	//
	// It returns ErrUserNotFound if the user doesn't exist or
	// ErrUserPasswordMismatch if the password doesn't match. Legacy
	// bcrypt hashes are upgraded to argon2id on success.
	Login(ctx context.Context, params LoginParams) (*LoginResult, error)
}

type TaskService interface {
	CreateTask(ctx context.Context, params CreateTaskParams) (*models.Task, error)

	// GetTasks lists every task for an admin and the tasks created by
	// the requester otherwise.
	GetTasks(ctx context.Context, requester models.Identity) ([]*models.Task, error)

	// UpdateTask replaces the editable fields. An empty status keeps the
	// current one.
	UpdateTask(ctx context.Context, params UpdateTaskParams) (*models.Task, error)

	// UpdateTaskStatus returns ErrInvalidTaskStatus, without touching the
	// task, for a status outside models.TaskStatuses.
	UpdateTaskStatus(ctx context.Context, params UpdateTaskStatusParams) (*models.Task, error)

	DeleteTask(ctx context.Context, taskID int64) error
}

type SubtaskService interface {
	GetSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error)
	CreateSubtask(ctx context.Context, params CreateSubtaskParams) (*models.Subtask, error)
	UpdateSubtask(ctx context.Context, params UpdateSubtaskParams) (*models.Subtask, error)
	DeleteSubtask(ctx context.Context, taskID, subtaskID int64) error
}

type SubmissionService interface {
	// RecordSubmission registers a submission without a file. A second
	// call for the same pair returns ErrSubmissionAlreadyExists.
	RecordSubmission(ctx context.Context, taskID, userID int64) (*models.Submission, error)

	// UploadSubmission stores a PDF and points the pair's submission at
	// it, creating the submission or overwriting the previous file.
	UploadSubmission(ctx context.Context, params UploadSubmissionParams) (*models.Submission, error)

	GetSubmissions(ctx context.Context, taskID int64) ([]*models.Submission, error)

	// OpenSubmissionFile opens the file of the pair's submission. Members
	// may only open their own. It returns ErrFileNotFound when either the
	// submission has no file or the file is gone from the store.
	OpenSubmissionFile(ctx context.Context, params OpenSubmissionFileParams) (*filestore.Object, error)

	// OpenFile opens a stored file by reference without ownership checks.
	OpenFile(ctx context.Context, name string) (*filestore.Object, error)
}

type StatsService interface {
	// GetStats aggregates over every task and member for an admin. Any
	// other requester only sees the tasks it created and its own
	// submissions.
	GetStats(ctx context.Context, requester models.Identity) (*models.Stats, error)
}

type UserRepository interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateUserPassword(ctx context.Context, userID int64, passwordHash string) error
}

type TaskRepository interface {
	CreateTask(ctx context.Context, task *models.Task) error
	GetTask(ctx context.Context, taskID int64) (*models.Task, error)
	ListTasks(ctx context.Context, filter models.TaskFilter) ([]*models.Task, error)
	UpdateTask(ctx context.Context, task *models.Task) error
	UpdateTaskStatus(ctx context.Context, task *models.Task) error
	DeleteTask(ctx context.Context, taskID int64) error
}

type SubtaskRepository interface {
	ListSubtasks(ctx context.Context, taskID int64) ([]*models.Subtask, error)
	CreateSubtask(ctx context.Context, subtask *models.Subtask) error
	UpdateSubtask(ctx context.Context, subtask *models.Subtask) error
	DeleteSubtask(ctx context.Context, taskID, subtaskID int64) error
}

type SubmissionRepository interface {
	InsertSubmission(ctx context.Context, submission *models.Submission) error
	UpsertSubmission(ctx context.Context, submission *models.Submission) (*string, error)
	GetSubmission(ctx context.Context, taskID, userID int64) (*models.Submission, error)
	ListSubmissions(ctx context.Context, taskID int64) ([]*models.Submission, error)
}

type StatsRepository interface {
	CountTasksByStatus(ctx context.Context, creatorID *int64) (map[string]int, error)
	MemberStats(ctx context.Context, userID *int64) ([]*models.MemberStats, error)
}

// Store is implemented by every relational backend.
type Store interface {
	UserRepository
	TaskRepository
	SubtaskRepository
	SubmissionRepository
	StatsRepository

	Migrate(ctx context.Context) (int, error)
	Close() error
}

type RegisterParams struct {
	Username string
	Password string
	Role     models.Role
}

type LoginParams struct {
	Username string
	Password string
}

type LoginResult struct {
	User                 *models.User
	AccessToken          string
	AccessTokenExpiresAt time.Time
}

type CreateTaskParams struct {
	CreatorID   int64
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Category    string
}

type UpdateTaskParams struct {
	ID          int64
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Category    string
	Status      string
}

type UpdateTaskStatusParams struct {
	ID     int64
	Status string
}

type CreateSubtaskParams struct {
	TaskID      int64
	Description string
}

type UpdateSubtaskParams struct {
	ID          int64
	TaskID      int64
	Description string
	Status      string
}

type UploadSubmissionParams struct {
	TaskID      int64
	UserID      int64
	Filename    string
	ContentType string
	Content     io.Reader
}

type OpenSubmissionFileParams struct {
	TaskID    int64
	UserID    int64
	Requester models.Identity
}
