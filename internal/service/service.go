package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Dan9191/todo-service/internal/models"
	"github.com/Dan9191/todo-service/internal/repository"
	"github.com/sirupsen/logrus"
)

// SampleTaskLabel is the label of the task every new user starts with.
const SampleTaskLabel = "sample task"

// ValidationError reports a request that was rejected before touching the store.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

// Service handles business logic
type Service struct {
	repo *repository.Repository
	log  *logrus.Logger
}

// NewService initializes a new service
func NewService(repo *repository.Repository, log *logrus.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// ListUsernames returns the username of every user
func (s *Service) ListUsernames(ctx context.Context) ([]string, error) {
	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(users))
	for _, user := range users {
		names = append(names, user.Serialize().Username)
	}
	return names, nil
}

// CreateUser creates the user together with its sample task.
// repository.ErrDuplicate is returned when the username is taken.
func (s *Service) CreateUser(ctx context.Context, username string) (*models.User, error) {
	if strings.TrimSpace(username) == "" {
		return nil, &ValidationError{Msg: "You must include a username in the URL of the request"}
	}

	user := &models.User{Username: username}
	sample := &models.Todo{Label: SampleTaskLabel, Done: false}
	if err := s.repo.CreateUser(ctx, user, []*models.Todo{sample}); err != nil {
		return nil, err
	}

	s.log.WithField("user_id", user.ID).Infof("User created: %s", user.Username)
	return user, nil
}

// ListTodos returns the todos of the named user
func (s *Service) ListTodos(ctx context.Context, username string) ([]models.Todo, error) {
	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.repo.ListTodos(ctx, user.ID)
}

// ReplaceTodos validates the submitted tasks and swaps them in for every
// existing task of the user. It returns how many tasks were stored.
func (s *Service) ReplaceTodos(ctx context.Context, username string, tasks []models.TaskInput) (int, error) {
	todos, err := toTodos(tasks)
	if err != nil {
		return 0, err
	}

	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return 0, err
	}

	if err := s.repo.ReplaceTodos(ctx, user.ID, todos); err != nil {
		return 0, err
	}

	s.log.WithField("user_id", user.ID).Infof("Tasks replaced for %s: %d", user.Username, len(todos))
	return len(todos), nil
}

// DeleteUser removes the user and all of its tasks
func (s *Service) DeleteUser(ctx context.Context, username string) error {
	if strings.TrimSpace(username) == "" {
		return &ValidationError{Msg: "You must include a username in the URL of the request"}
	}

	user, err := s.repo.FindUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteUser(ctx, user.ID); err != nil {
		return err
	}

	s.log.WithField("user_id", user.ID).Infof("User deleted: %s", user.Username)
	return nil
}

// Stats returns store row counts
func (s *Service) Stats(ctx context.Context) (models.StoreStats, error) {
	return s.repo.Stats(ctx)
}

// Ping checks the store connection
func (s *Service) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func toTodos(tasks []models.TaskInput) ([]*models.Todo, error) {
	if len(tasks) == 0 {
		return nil, &ValidationError{Msg: "You must send at least one task"}
	}

	todos := make([]*models.Todo, 0, len(tasks))
	for i, task := range tasks {
		if task.Label == nil || strings.TrimSpace(*task.Label) == "" {
			return nil, &ValidationError{Msg: fmt.Sprintf("Task %d is missing a label", i)}
		}
		if task.Done == nil {
			return nil, &ValidationError{Msg: fmt.Sprintf("Task %d is missing the done flag", i)}
		}
		todos = append(todos, &models.Todo{Label: *task.Label, Done: *task.Done})
	}
	return todos, nil
}
