package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/capitalize-ai/sales-coach/internal/model"
)

// UserRepo persists user accounts and their skill profiles.
type UserRepo struct {
	db DBTX
}

// NewUserRepo creates a UserRepo over db.
func NewUserRepo(db DBTX) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, name, email, password_hash, external_id, completed_roleplays,
	skills, strengths, weaknesses, created_at, updated_at`

func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	skills, strengths, weaknesses, err := encodeProfile(u.SkillProfile)
	if err != nil {
		return err
	}

	query := `INSERT INTO users (` + userColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = r.db.ExecContext(ctx, query,
		u.ID,
		u.Name,
		u.Email,
		u.PasswordHash,
		nullableString(u.ExternalID),
		u.CompletedRoleplays,
		skills,
		strengths,
		weaknesses,
		formatTime(u.CreatedAt),
		formatTime(u.UpdatedAt),
	)
	return mapErr(err, "inserting user")
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return scanUser(row)
}

// GetByEmail looks a user up by e-mail, ignoring case.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email)
	return scanUser(row)
}

func (r *UserRepo) GetByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE external_id = ?`, externalID)
	return scanUser(row)
}

func (r *UserRepo) Update(ctx context.Context, u *model.User) error {
	skills, strengths, weaknesses, err := encodeProfile(u.SkillProfile)
	if err != nil {
		return err
	}

	query := `UPDATE users SET name = ?, email = ?, password_hash = ?, external_id = ?,
		completed_roleplays = ?, skills = ?, strengths = ?, weaknesses = ?, updated_at = ?
		WHERE id = ?`
	res, err := r.db.ExecContext(ctx, query,
		u.Name,
		u.Email,
		u.PasswordHash,
		nullableString(u.ExternalID),
		u.CompletedRoleplays,
		skills,
		strengths,
		weaknesses,
		formatTime(u.UpdatedAt),
		u.ID,
	)
	if err != nil {
		return mapErr(err, "updating user")
	}
	return requireAffected(res, "updating user")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*model.User, error) {
	var u model.User
	var externalID sql.NullString
	var skills, strengths, weaknesses, createdAt, updatedAt string

	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &externalID, &u.CompletedRoleplays,
		&skills, &strengths, &weaknesses, &createdAt, &updatedAt)
	if err != nil {
		return nil, mapErr(err, "scanning user")
	}
	u.ExternalID = externalID.String

	u.Scores = model.NewSkillScores()
	if err := json.Unmarshal([]byte(skills), &u.Scores); err != nil {
		return nil, fmt.Errorf("decoding skills: %w", err)
	}
	if err := json.Unmarshal([]byte(strengths), &u.Strengths); err != nil {
		return nil, fmt.Errorf("decoding strengths: %w", err)
	}
	if err := json.Unmarshal([]byte(weaknesses), &u.Weaknesses); err != nil {
		return nil, fmt.Errorf("decoding weaknesses: %w", err)
	}
	if u.Strengths == nil {
		u.Strengths = []string{}
	}
	if u.Weaknesses == nil {
		u.Weaknesses = []string{}
	}

	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, err
	}
	return &u, nil
}

func encodeProfile(p model.SkillProfile) (skills, strengths, weaknesses string, err error) {
	scores := p.Scores
	if scores == nil {
		scores = model.NewSkillScores()
	}
	if skills, err = toJSON(scores); err != nil {
		return "", "", "", fmt.Errorf("encoding skills: %w", err)
	}
	if strengths, err = toJSON(nonNil(p.Strengths)); err != nil {
		return "", "", "", fmt.Errorf("encoding strengths: %w", err)
	}
	if weaknesses, err = toJSON(nonNil(p.Weaknesses)); err != nil {
		return "", "", "", fmt.Errorf("encoding weaknesses: %w", err)
	}
	return skills, strengths, weaknesses, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
