package repo

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"donationhub/internal/domain"
	"donationhub/internal/infra"
	"donationhub/internal/sqlinline"
)

const (
	constraintUserEmail = "users_email_key"
	constraintUserCode  = "users_connection_code_key"
)

// UserRepositoryPG implements domain.UserRepository backed by PostgreSQL.
type UserRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewUserRepository creates a new UserRepositoryPG.
func NewUserRepository(sql infra.SQLExecutor) *UserRepositoryPG {
	return &UserRepositoryPG{sql: sql}
}

// Create inserts a user. Unique violations are reported as ErrEmailTaken or
// ErrCodeTaken depending on the index that rejected the row.
func (r *UserRepositoryPG) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	role := user.Role
	if role == "" {
		role = domain.UserRoleUser
	}
	plan := user.Plan
	if plan == "" {
		plan = domain.UserPlanFree
	}
	row := r.sql.QueryRow(ctx, sqlinline.QInsertUser,
		user.Email,
		user.Name,
		string(role),
		string(plan),
		user.ConnectionCode,
		user.PasswordHash,
	)
	created, err := scanUser(row)
	if err != nil {
		if constraint, ok := infra.UniqueViolation(err); ok {
			switch constraint {
			case constraintUserEmail:
				return nil, fmt.Errorf("create user: %w: %w", domain.ErrEmailTaken, err)
			case constraintUserCode:
				return nil, fmt.Errorf("create user: %w: %w", domain.ErrCodeTaken, err)
			}
		}
		return nil, infra.ClassifyPgError("create user", err)
	}
	return created, nil
}

// GetByID fetches a user by UUID.
func (r *UserRepositoryPG) GetByID(ctx context.Context, id string) (*domain.User, error) {
	u, err := scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByID, id))
	if err != nil {
		return nil, infra.ClassifyPgError("get user", err)
	}
	return u, nil
}

// GetByEmail fetches a user by e-mail address, case-insensitively.
func (r *UserRepositoryPG) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	u, err := scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByEmail, email))
	if err != nil {
		return nil, infra.ClassifyPgError("get user by email", err)
	}
	return u, nil
}

func (r *UserRepositoryPG) GetByConnectionCode(ctx context.Context, code string) (*domain.User, error) {
	u, err := scanUser(r.sql.QueryRow(ctx, sqlinline.QSelectUserByConnectionCode, code))
	if err != nil {
		return nil, infra.ClassifyPgError("get user by code", err)
	}
	return u, nil
}

// List returns every user, newest first.
func (r *UserRepositoryPG) List(ctx context.Context) ([]domain.User, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListUsers)
	if err != nil {
		return nil, infra.ClassifyPgError("list users", err)
	}
	defer rows.Close()

	var items []domain.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, infra.ClassifyPgError("list users", err)
		}
		items = append(items, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.ClassifyPgError("list users", err)
	}
	return items, nil
}

func (r *UserRepositoryPG) UpdatePlan(ctx context.Context, id string, plan domain.UserPlan) (*domain.User, error) {
	u, err := scanUser(r.sql.QueryRow(ctx, sqlinline.QUpdateUserPlan, id, string(plan)))
	if err != nil {
		return nil, infra.ClassifyPgError("update plan", err)
	}
	return u, nil
}

func (r *UserRepositoryPG) UpdateRole(ctx context.Context, id string, role domain.UserRole) (*domain.User, error) {
	u, err := scanUser(r.sql.QueryRow(ctx, sqlinline.QUpdateUserRole, id, string(role)))
	if err != nil {
		return nil, infra.ClassifyPgError("update role", err)
	}
	return u, nil
}

func (r *UserRepositoryPG) UpdateName(ctx context.Context, id, name string) (*domain.User, error) {
	u, err := scanUser(r.sql.QueryRow(ctx, sqlinline.QUpdateUserName, id, name))
	if err != nil {
		return nil, infra.ClassifyPgError("update name", err)
	}
	return u, nil
}

// Delete removes the user together with its donations.
func (r *UserRepositoryPG) Delete(ctx context.Context, id string) error {
	var users, donations int
	if err := r.sql.QueryRow(ctx, sqlinline.QDeleteUser, id).Scan(&users, &donations); err != nil {
		return infra.ClassifyPgError("delete user", err)
	}
	if users == 0 {
		return fmt.Errorf("delete user: %w", domain.ErrNotFound)
	}
	return nil
}

// ConsumeContact runs the locked check-and-increment for one contact reveal.
func (r *UserRepositoryPG) ConsumeContact(ctx context.Context, id string, limit int) (domain.ContactUsage, error) {
	var (
		plan     string
		usage    domain.ContactUsage
		consumed bool
	)
	row := r.sql.QueryRow(ctx, sqlinline.QConsumeContact, id, limit)
	if err := row.Scan(&plan, &usage.ContactCount, &consumed); err != nil {
		return domain.ContactUsage{}, infra.ClassifyPgError("consume contact", err)
	}
	usage.Plan = domain.UserPlan(plan)
	usage.Consumed = consumed
	return usage, nil
}

func scanUser(row pgx.Row) (*domain.User, error) {
	var (
		u          domain.User
		role, plan string
	)
	if err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&role,
		&plan,
		&u.DonationCount,
		&u.ContactCount,
		&u.ConnectionCode,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	); err != nil {
		return nil, err
	}
	u.Role = domain.UserRole(role)
	u.Plan = domain.UserPlan(plan)
	return &u, nil
}

var _ domain.UserRepository = (*UserRepositoryPG)(nil)
