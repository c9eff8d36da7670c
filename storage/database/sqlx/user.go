package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/aevoninc/horizonfit/core"
	"github.com/aevoninc/horizonfit/core/user"
)

const userColumns = `id, name, username, email, is_active, roles, password_hash, created_at, updated_at, last_login,
	current_zone, total_weeks_completed, program_completed, last_metrics_date, enrolled_at`

type userRow struct {
	ID                  string         `db:"id"`
	Name                null.String    `db:"name"`
	Username            null.String    `db:"username"`
	Email               null.String    `db:"email"`
	IsActive            null.Bool      `db:"is_active"`
	Roles               pq.StringArray `db:"roles"`
	PasswordHash        null.Bytes     `db:"password_hash"`
	CreatedAt           null.Time      `db:"created_at"`
	UpdatedAt           null.Time      `db:"updated_at"`
	LastLogin           null.Time      `db:"last_login"`
	CurrentZone         int            `db:"current_zone"`
	TotalWeeksCompleted int            `db:"total_weeks_completed"`
	ProgramCompleted    bool           `db:"program_completed"`
	LastMetricsDate     null.Time      `db:"last_metrics_date"`
	EnrolledAt          null.Time      `db:"enrolled_at"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:                  r.ID,
		Name:                r.Name.String,
		Username:            r.Username.String,
		Email:               r.Email.String,
		IsActive:            r.IsActive.Ptr(),
		Roles:               r.Roles,
		PasswordHash:        r.PasswordHash.Bytes,
		CreatedAt:           r.CreatedAt.Time,
		UpdatedAt:           r.UpdatedAt.Time,
		LastLogin:           r.LastLogin.Time,
		CurrentZone:         r.CurrentZone,
		TotalWeeksCompleted: r.TotalWeeksCompleted,
		ProgramCompleted:    r.ProgramCompleted,
		LastMetricsDate:     r.LastMetricsDate,
		EnrolledAt:          r.EnrolledAt,
	}
}

func users(rows []userRow) []user.User {
	usrs := make([]user.User, 0, len(rows))
	for _, r := range rows {
		usrs = append(usrs, r.user())
	}
	return usrs
}

type userRepository struct {
	exec core.DBExecutor
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{exec: exec}
}

func (repo userRepository) CheckUsernameUniqueness(ctx context.Context, username, email string, excludedUsers ...user.User) error {
	args := []interface{}{username, email}
	query := `SELECT username, email FROM "user" WHERE (username = $1 OR email = $2)`
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, usr := range excludedUsers {
			ids = append(ids, usr.ID)
		}
		args = append(args, pq.Array(ids))
		query += ` AND NOT (id = ANY($3))`
	}

	var row struct {
		Username null.String `db:"username"`
		Email    null.String `db:"email"`
	}
	if err := repo.exec.GetContext(ctx, &row, query+" LIMIT 1", args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil
		}
		return errors.Wrap(err, "checking username uniqueness")
	}
	if row.Username.String == username {
		return user.ErrUsernameExists
	}
	return user.ErrEmailExists
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.New().String()
	query := `
		INSERT INTO "user" (id, name, username, email, is_active, roles, password_hash, created_at, updated_at,
			current_zone, total_weeks_completed, program_completed, enrolled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := repo.exec.ExecContext(ctx, query,
		usr.ID, usr.Name, usr.Username, usr.Email, usr.IsActive, pq.StringArray(usr.Roles), usr.PasswordHash,
		usr.CreatedAt.UTC(), usr.UpdatedAt.UTC(),
		usr.CurrentZone, usr.TotalWeeksCompleted, usr.ProgramCompleted, usr.EnrolledAt,
	)
	if err != nil {
		return user.User{}, errors.Wrap(err, "creating user")
	}
	return usr, nil
}

func (repo userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	var rows []userRow
	query := fmt.Sprintf(`SELECT %s FROM "user" ORDER BY created_at`, userColumns)
	if err := repo.exec.SelectContext(ctx, &rows, query); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users(rows), nil
}

func (repo userRepository) getUser(ctx context.Context, where string, args ...interface{}) (user.User, error) {
	var row userRow
	query := fmt.Sprintf(`SELECT %s FROM "user" WHERE %s`, userColumns, where)
	if err := repo.exec.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "getting user")
	}
	return row.user(), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = $1", id)
}

func (repo userRepository) GetUserByUsername(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1", username)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = $1", email)
}

func (repo userRepository) GetUserByUsernameOrEmail(ctx context.Context, username string) (user.User, error) {
	return repo.getUser(ctx, "username = $1 OR email = $1", username)
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	filter.Clean()

	var conds []string
	var args []interface{}
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Search != "" {
		p := arg("%" + filter.Search + "%")
		conds = append(conds, fmt.Sprintf("(name ILIKE %[1]s OR username ILIKE %[1]s OR email ILIKE %[1]s)", p))
	}
	if filter.Roles != nil {
		prefixes := make([]string, 0, len(filter.Roles))
		for _, role := range filter.Roles {
			prefixes = append(prefixes, role+"%")
		}
		conds = append(conds, fmt.Sprintf(
			"EXISTS (SELECT 1 FROM unnest(roles) r WHERE r LIKE ANY(%s))", arg(pq.Array(prefixes))))
	}
	if filter.IsActive != nil {
		conds = append(conds, "is_active = "+arg(*filter.IsActive))
	}
	if !filter.CreatedFrom.IsZero() {
		conds = append(conds, "created_at >= "+arg(filter.CreatedFrom.UTC()))
	}
	if !filter.CreatedTo.IsZero() {
		conds = append(conds, "created_at <= "+arg(filter.CreatedTo.UTC()))
	}

	query := fmt.Sprintf(`SELECT %s FROM "user"`, userColumns)
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at"

	var rows []userRow
	if err := repo.exec.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, errors.Wrap(err, "filtering users")
	}
	return users(rows), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, isActive *bool) (user.User, error) {
	var sets []string
	var args []interface{}
	set := func(col string, v interface{}) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if usr.Name != "" {
		set("name", usr.Name)
	}
	if usr.Username != "" {
		set("username", usr.Username)
	}
	if usr.Email != "" {
		set("email", usr.Email)
	}
	if usr.Roles != nil {
		set("roles", pq.StringArray(usr.Roles))
	}
	if usr.PasswordHash != nil {
		set("password_hash", usr.PasswordHash)
	}
	if isActive != nil {
		set("is_active", *isActive)
	}
	if !usr.LastLogin.IsZero() {
		set("last_login", usr.LastLogin.UTC())
	}
	set("updated_at", usr.UpdatedAt.UTC())

	args = append(args, usr.ID)
	query := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(args), userColumns)

	var row userRow
	if err := repo.exec.GetContext(ctx, &row, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	return row.user(), nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	if len(ids) == 0 {
		return nil
	}
	query := `DELETE FROM "user" WHERE id = ANY($1)`
	if _, err := repo.exec.ExecContext(ctx, query, pq.Array(ids)); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

func (repo userRepository) setPatientField(ctx context.Context, id, assignment string, args ...interface{}) error {
	args = append(args, id)
	query := fmt.Sprintf(`UPDATE "user" SET %s WHERE id = $%d`, assignment, len(args))
	res, err := repo.exec.ExecContext(ctx, query, args...)
	if err != nil {
		return errors.Wrap(err, "updating patient program fields")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.ErrNotFound
	}
	return nil
}

func (repo userRepository) SetPatientZone(ctx context.Context, id string, zone int) error {
	return repo.setPatientField(ctx, id, "current_zone = $1", zone)
}

func (repo userRepository) MarkProgramCompleted(ctx context.Context, id string) error {
	return repo.setPatientField(ctx, id, "program_completed = true")
}

func (repo userRepository) IncrementTotalWeeks(ctx context.Context, id string) error {
	return repo.setPatientField(ctx, id, "total_weeks_completed = total_weeks_completed + 1")
}

func (repo userRepository) SetLastMetricsDate(ctx context.Context, id string, at time.Time) error {
	return repo.setPatientField(ctx, id, "last_metrics_date = $1", at.UTC())
}
