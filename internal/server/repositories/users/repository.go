package users

import (
	"context"

	"github.com/dmitrijs2005/barangayconnect/internal/server/models"
)

// Repository stores registered users. Lookups that find nothing return
// common.ErrorNotFound; a second user with the same contact yields
// common.ErrorAlreadyExists.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByContact(ctx context.Context, contact string) (*models.User, error)
	// ExistsByName compares first and last name case-insensitively.
	ExistsByName(ctx context.Context, firstName, lastName string) (bool, error)
	List(ctx context.Context) ([]*models.User, error)
	Update(ctx context.Context, user *models.User) (*models.User, error)
	SetStatus(ctx context.Context, id int64, status string) (*models.User, error)
	Delete(ctx context.Context, id int64) error
}
