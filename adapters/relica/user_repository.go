package relica

import (
	"context"
	"database/sql"
	"errors"

	"github.com/coregx/livechat"
	"github.com/coregx/livechat/model"
	"github.com/coregx/relica"
)

// UserRepository implements livechat.UserRepository using Relica.
// The users table belongs to the account service and is read-only here.
type UserRepository struct {
	db *relica.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(sqlDB *sql.DB, driverName string) *UserRepository {
	return &UserRepository{db: relica.WrapDB(sqlDB, driverName)}
}

// Load retrieves a user by ID.
func (r *UserRepository) Load(ctx context.Context, id int64) (model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Select("*").From(model.User{}.TableName()).Where("id = ?", id).One(&user)
	if errors.Is(err, sql.ErrNoRows) {
		return user, livechat.ErrNoData
	}
	if err != nil {
		return user, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to load user", err)
	}
	return user, nil
}

// Save inserts a user. Used by seeding tools and tests.
func (r *UserRepository) Save(ctx context.Context, user model.User) (model.User, error) {
	err := r.db.WithContext(ctx).Model(&user).Table(user.TableName()).Insert()
	if err != nil {
		return user, livechat.NewErrorWithCause(livechat.ErrCodeDatabase, "failed to insert user", err)
	}
	return user, nil
}
