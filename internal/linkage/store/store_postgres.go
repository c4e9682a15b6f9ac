package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"linkage/internal/linkage/models"
	"linkage/internal/linkage/service"
	"linkage/pkg/platform/sentinel"
)

var _ service.Store = (*PostgresStore)(nil)

//go:embed migrations/*.sql
var migrations embed.FS

const personColumns = `aadhaar_linkage_key, hashed_aadhaar_number, hashed_pan_number, hashed_voter_id,
	hashed_dl_number, hashed_forename, hashed_secondname, hashed_lastname, hashed_dob,
	hashed_address, gender`

// compositeColumns is the search tuple in canonical order; it must line up
// with CompositeKey.Members.
var compositeColumns = [4]string{"hashed_aadhaar_number", "hashed_dob", "hashed_forename", "hashed_lastname"}

// PostgresStore persists identity records in PostgreSQL.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed identity store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Migrate applies the embedded schema files in name order. Every statement is
// idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	names, err := fs.Glob(migrations, "migrations/*.sql")
	if err != nil {
		return fmt.Errorf("list migrations: %w", err)
	}
	sort.Strings(names)
	for _, name := range names {
		body, err := migrations.ReadFile(name)
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if _, err := db.ExecContext(ctx, string(body)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func (s *PostgresStore) Save(ctx context.Context, record *models.PersonIdentity) error {
	if record.LinkageKey.IsZero() {
		record.LinkageKey = NewLinkageKey()
	}
	query := `
		INSERT INTO person_identity (` + personColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (aadhaar_linkage_key) DO UPDATE SET
			hashed_aadhaar_number = EXCLUDED.hashed_aadhaar_number,
			hashed_pan_number     = EXCLUDED.hashed_pan_number,
			hashed_voter_id       = EXCLUDED.hashed_voter_id,
			hashed_dl_number      = EXCLUDED.hashed_dl_number,
			hashed_forename       = EXCLUDED.hashed_forename,
			hashed_secondname     = EXCLUDED.hashed_secondname,
			hashed_lastname       = EXCLUDED.hashed_lastname,
			hashed_dob            = EXCLUDED.hashed_dob,
			hashed_address        = EXCLUDED.hashed_address,
			gender                = EXCLUDED.gender
	`
	_, err := s.db.ExecContext(ctx, query,
		record.LinkageKey.String(),
		nullString(record.HashedAadhaarNumber),
		nullString(record.HashedPanNumber),
		nullString(record.HashedVoterID),
		nullString(record.HashedDLNumber),
		nullString(record.HashedForename),
		nullString(record.HashedSecondname),
		nullString(record.HashedLastname),
		nullString(record.HashedDOB),
		nullString(record.HashedAddress),
		nullString(record.Gender),
	)
	if err != nil {
		return fmt.Errorf("save person identity: %w", err)
	}
	return nil
}

func (s *PostgresStore) Update(ctx context.Context, record *models.PersonIdentity) error {
	query := `
		UPDATE person_identity SET
			hashed_aadhaar_number = $2,
			hashed_pan_number     = $3,
			hashed_voter_id       = $4,
			hashed_dl_number      = $5,
			hashed_forename       = $6,
			hashed_secondname     = $7,
			hashed_lastname       = $8,
			hashed_dob            = $9,
			hashed_address        = $10,
			gender                = $11
		WHERE aadhaar_linkage_key = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		record.LinkageKey.String(),
		nullString(record.HashedAadhaarNumber),
		nullString(record.HashedPanNumber),
		nullString(record.HashedVoterID),
		nullString(record.HashedDLNumber),
		nullString(record.HashedForename),
		nullString(record.HashedSecondname),
		nullString(record.HashedLastname),
		nullString(record.HashedDOB),
		nullString(record.HashedAddress),
		nullString(record.Gender),
	)
	if err != nil {
		return fmt.Errorf("update person identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update person identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, key models.LinkageKey) (*models.PersonIdentity, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+personColumns+` FROM person_identity WHERE aadhaar_linkage_key = $1`,
		key.String())
	record, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person identity by key: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Delete(ctx context.Context, record *models.PersonIdentity) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM person_identity WHERE aadhaar_linkage_key = $1`,
		record.LinkageKey.String())
	if err != nil {
		return fmt.Errorf("delete person identity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete person identity: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

// FindByCompositeKey matches all four columns at once. Absent members become
// IS NULL predicates so present members can still use the composite index.
func (s *PostgresStore) FindByCompositeKey(ctx context.Context, key models.CompositeKey) (*models.PersonIdentity, error) {
	where, args := compositePredicate(key)
	query := `SELECT ` + personColumns + ` FROM person_identity WHERE ` + where +
		` ORDER BY aadhaar_linkage_key LIMIT 1`
	record, err := scanPerson(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find person identity by composite key: %w", err)
	}
	return record, nil
}

// Ping reports database reachability for health checks.
func (s *PostgresStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func compositePredicate(key models.CompositeKey) (string, []any) {
	members := key.Members()
	clauses := make([]string, 0, len(members))
	args := make([]any, 0, len(members))
	for i, member := range members {
		if member == nil {
			clauses = append(clauses, compositeColumns[i]+" IS NULL")
			continue
		}
		args = append(args, *member)
		clauses = append(clauses, fmt.Sprintf("%s = $%d", compositeColumns[i], len(args)))
	}
	return strings.Join(clauses, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*models.PersonIdentity, error) {
	var key string
	var aadhaar, pan, voter, dl, forename, secondname, lastname, dob, address, gender sql.NullString
	if err := row.Scan(&key, &aadhaar, &pan, &voter, &dl, &forename, &secondname,
		&lastname, &dob, &address, &gender); err != nil {
		return nil, err
	}
	return &models.PersonIdentity{
		LinkageKey:          models.LinkageKey(key),
		HashedAadhaarNumber: fromNull(aadhaar),
		HashedPanNumber:     fromNull(pan),
		HashedVoterID:       fromNull(voter),
		HashedDLNumber:      fromNull(dl),
		HashedForename:      fromNull(forename),
		HashedSecondname:    fromNull(secondname),
		HashedLastname:      fromNull(lastname),
		HashedDOB:           fromNull(dob),
		HashedAddress:       fromNull(address),
		Gender:              fromNull(gender),
	}, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func fromNull(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	v := ns.String
	return &v
}
