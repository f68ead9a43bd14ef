package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/rl1809/catalog/internal/core/domain"
	"github.com/rl1809/catalog/internal/core/result"
	"github.com/rl1809/catalog/internal/port"
)

type UserService struct {
	users  port.UserRepository
	logger *slog.Logger
	opts   []domain.Option
}

func NewUserService(users port.UserRepository, logger *slog.Logger, opts ...domain.Option) *UserService {
	return &UserService{users: users, logger: orDiscard(logger), opts: opts}
}

type RegisterUserInput struct {
	Name  string
	Email string
}

// Register fails with AlreadyExists when the email is taken.
func (s *UserService) Register(ctx context.Context, in RegisterUserInput) (UserDTO, error) {
	u, err := domain.NewUser(domain.NewUserParams{Email: in.Email, Name: in.Name}, s.opts...).Get()
	if err != nil {
		return UserDTO{}, err
	}
	if err := s.ensureEmailFree(ctx, u); err != nil {
		return UserDTO{}, err
	}
	if _, err := s.users.Save(ctx, u); err != nil {
		return UserDTO{}, wrapSave(err)
	}
	s.logger.Info("user.registered", "user_id", u.ID())
	return ToUserDTO(u), nil
}

func (s *UserService) Get(ctx context.Context, id string) (UserDTO, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return UserDTO{}, err
	}
	return ToUserDTO(u), nil
}

func (s *UserService) List(ctx context.Context, filter port.UserFilter) ([]UserDTO, error) {
	users, err := s.users.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return mapSlice(users, ToUserDTO), nil
}

// UpdateUserInput is a patch: nil fields are left unchanged.
type UpdateUserInput struct {
	Name  *string
	Email *string
}

func (s *UserService) Update(ctx context.Context, id string, in UpdateUserInput) (UserDTO, error) {
	current, err := s.load(ctx, id)
	if err != nil {
		return UserDTO{}, err
	}

	r := result.Ok[domain.User, error](current)
	if in.Name != nil {
		r = result.FlatMap(r, func(u domain.User) result.Result[domain.User, error] { return u.UpdateName(*in.Name) })
	}
	if in.Email != nil {
		r = result.FlatMap(r, func(u domain.User) result.Result[domain.User, error] { return u.UpdateEmail(*in.Email) })
	}

	updated, err := r.Get()
	if err != nil {
		return UserDTO{}, err
	}
	if !updated.Email().Equals(current.Email()) {
		if err := s.ensureEmailFree(ctx, updated); err != nil {
			return UserDTO{}, err
		}
	}
	if _, err := s.users.Save(ctx, updated); err != nil {
		return UserDTO{}, wrapSave(err)
	}
	s.logger.Info("user.updated", "user_id", id)
	return ToUserDTO(updated), nil
}

// Delete reports NotFound for an unknown id.
func (s *UserService) Delete(ctx context.Context, id string) error {
	exists, err := s.users.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}
	if !exists {
		return domain.NewNotFound("user", id)
	}
	if err := s.users.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("user.deleted", "user_id", id)
	return nil
}

func (s *UserService) ensureEmailFree(ctx context.Context, u domain.User) error {
	owner, err := s.users.FindByEmail(ctx, u.Email())
	if err != nil {
		return fmt.Errorf("load user by email: %w", err)
	}
	if owner != nil && owner.ID() != u.ID() {
		return domain.NewAlreadyExists("user", "email", u.Email().String())
	}
	return nil
}

func (s *UserService) load(ctx context.Context, id string) (domain.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if u == nil {
		return domain.User{}, domain.NewNotFound("user", id)
	}
	return *u, nil
}

// wrapSave keeps domain errors from the store, e.g. a unique-email race,
// unwrapped so callers can classify them.
func wrapSave(err error) error {
	if domain.KindOf(err) != domain.KindUnknown {
		return err
	}
	return fmt.Errorf("save user: %w", err)
}
