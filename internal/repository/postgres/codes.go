package postgres

import (
	"context"
	"fmt"
	"time"

	squirrel "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/arklim/phone-auth-service/internal/core/domain"
	"github.com/arklim/phone-auth-service/internal/core/port"
	"github.com/arklim/phone-auth-service/internal/repository"
)

// CodeRepository implements port.CodeRepository using PostgreSQL.
type CodeRepository struct {
	exec    pgExecutor
	builder squirrel.StatementBuilderType
}

// NewCodeRepository wires a PostgreSQL-backed verification code repository.
func NewCodeRepository(exec pgExecutor) *CodeRepository {
	return &CodeRepository{
		exec:    exec,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new verification code row.
func (r *CodeRepository) Create(ctx context.Context, code domain.VerificationCode) error {
	stmt, args, err := r.builder.Insert("verification_codes").
		Columns("id", "phone", "code", "purpose", "expires_at", "used", "created_at").
		Values(code.ID, code.Phone, code.Code, code.Purpose, code.ExpiresAt, code.Used, code.CreatedAt).
		ToSql()
	if err != nil {
		return fmt.Errorf("build insert code sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("insert code: %w", err)
	}

	return nil
}

// LatestByPhonePurpose returns the most recently created code for the
// (phone, purpose) pair, regardless of used/expired state.
func (r *CodeRepository) LatestByPhonePurpose(ctx context.Context, phone string, purpose domain.Purpose) (*domain.VerificationCode, error) {
	stmt, args, err := r.builder.
		Select("id", "phone", "code", "purpose", "expires_at", "used", "created_at").
		From("verification_codes").
		Where(squirrel.Eq{"phone": phone, "purpose": purpose}).
		OrderBy("created_at DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select latest code sql: %w", err)
	}

	return r.scanOne(r.exec.QueryRow(ctx, stmt, args...))
}

// FindValid matches an unused, unexpired code by phone, value, and purpose.
func (r *CodeRepository) FindValid(ctx context.Context, phone, code string, purpose domain.Purpose, now time.Time) (*domain.VerificationCode, error) {
	stmt, args, err := r.builder.
		Select("id", "phone", "code", "purpose", "expires_at", "used", "created_at").
		From("verification_codes").
		Where(squirrel.Eq{"phone": phone, "code": code, "purpose": purpose, "used": false}).
		Where(squirrel.Gt{"expires_at": now}).
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build select valid code sql: %w", err)
	}

	return r.scanOne(r.exec.QueryRow(ctx, stmt, args...))
}

// MarkUsed consumes the code. Irreversible; a consumed code never matches again.
func (r *CodeRepository) MarkUsed(ctx context.Context, id string) error {
	stmt, args, err := r.builder.Update("verification_codes").
		Set("used", true).
		Where(squirrel.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build mark code used sql: %w", err)
	}

	ct, err := r.exec.Exec(ctx, stmt, args...)
	if err != nil {
		return fmt.Errorf("mark code used: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DeleteByPhone hard-deletes every code stored for the phone, across purposes.
func (r *CodeRepository) DeleteByPhone(ctx context.Context, phone string) error {
	stmt, args, err := r.builder.Delete("verification_codes").
		Where(squirrel.Eq{"phone": phone}).
		ToSql()
	if err != nil {
		return fmt.Errorf("build delete codes sql: %w", err)
	}

	if _, err := r.exec.Exec(ctx, stmt, args...); err != nil {
		return fmt.Errorf("delete codes: %w", err)
	}

	return nil
}

func (r *CodeRepository) scanOne(row pgx.Row) (*domain.VerificationCode, error) {
	var code domain.VerificationCode

	if err := row.Scan(
		&code.ID,
		&code.Phone,
		&code.Code,
		&code.Purpose,
		&code.ExpiresAt,
		&code.Used,
		&code.CreatedAt,
	); err != nil {
		if err == pgx.ErrNoRows {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("scan code: %w", err)
	}

	return &code, nil
}

var _ port.CodeRepository = (*CodeRepository)(nil)
