package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// ProfileTables are the tables PostgresProfileStore reads, in creation order.
var ProfileTables = []string{"users", "user_profiles", "experiences", "education", "licenses", "certifications"}

const profileSchema = `
	CREATE TABLE IF NOT EXISTS users (
		id SERIAL PRIMARY KEY,
		email VARCHAR(255) UNIQUE NOT NULL,
		name VARCHAR(255),
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS user_profiles (
		user_id INTEGER PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
		first_name VARCHAR(100),
		last_name VARCHAR(100),
		full_name VARCHAR(255),
		phone VARCHAR(50),
		location_city VARCHAR(100),
		location_state VARCHAR(100),
		location_country VARCHAR(100),
		zip_code VARCHAR(20),
		current_job_title VARCHAR(255),
		current_company VARCHAR(255),
		years_of_experience INTEGER,
		skills TEXT,
		professional_summary TEXT,
		linkedin_url TEXT,
		portfolio_url TEXT,
		github_url TEXT,
		salary_expectation VARCHAR(100),
		notice_period VARCHAR(100),
		start_date_preference VARCHAR(100),
		work_authorized BOOLEAN,
		requires_sponsorship BOOLEAN,
		gender VARCHAR(100),
		race VARCHAR(100),
		ethnicity VARCHAR(100),
		veteran_status VARCHAR(100),
		disability_status VARCHAR(100),
		resume_url TEXT,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS experiences (
		id SERIAL PRIMARY KEY,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		job_title VARCHAR(255) NOT NULL,
		company VARCHAR(255) NOT NULL,
		location VARCHAR(255),
		start_date DATE,
		end_date DATE,
		currently_working BOOLEAN NOT NULL DEFAULT FALSE,
		description TEXT
	);

	CREATE TABLE IF NOT EXISTS education (
		id SERIAL PRIMARY KEY,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		school VARCHAR(255) NOT NULL,
		degree VARCHAR(255),
		field VARCHAR(255),
		start_date DATE,
		graduation_date DATE,
		currently_attending BOOLEAN DEFAULT FALSE
	);

	CREATE TABLE IF NOT EXISTS licenses (
		id SERIAL PRIMARY KEY,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		state VARCHAR(100),
		number VARCHAR(100),
		expires_at DATE
	);

	CREATE TABLE IF NOT EXISTS certifications (
		id SERIAL PRIMARY KEY,
		user_id INTEGER REFERENCES users(id) ON DELETE CASCADE,
		name VARCHAR(255) NOT NULL,
		issuer VARCHAR(255),
		issued_at DATE,
		expires_at DATE
	);
`

var profileIndexes = []string{
	"CREATE INDEX IF NOT EXISTS idx_experiences_user_id ON experiences(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_education_user_id ON education(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_licenses_user_id ON licenses(user_id)",
	"CREATE INDEX IF NOT EXISTS idx_certifications_user_id ON certifications(user_id)",
}

// Migrate creates the profile tables and their indexes. It is safe to run
// repeatedly.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, profileSchema); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	for _, stmt := range profileIndexes {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("error creating index: %w", err)
		}
	}
	return nil
}

// TableStatus describes one expected table as found in the database.
type TableStatus struct {
	Name    string
	Exists  bool
	Columns []string
}

// CheckTables reports which profile tables exist and what columns they have.
func CheckTables(ctx context.Context, db *sql.DB) ([]TableStatus, error) {
	out := make([]TableStatus, 0, len(ProfileTables))
	for _, name := range ProfileTables {
		st := TableStatus{Name: name}
		err := db.QueryRowContext(ctx,
			"SELECT EXISTS (SELECT FROM information_schema.tables WHERE table_schema = 'public' AND table_name = $1)",
			name).Scan(&st.Exists)
		if err != nil {
			return nil, fmt.Errorf("could not check table %s: %w", name, err)
		}
		if st.Exists {
			if st.Columns, err = tableColumns(ctx, db, name); err != nil {
				return nil, err
			}
		}
		out = append(out, st)
	}
	return out, nil
}

func tableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT column_name
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1
		ORDER BY ordinal_position
	`, table)
	if err != nil {
		return nil, fmt.Errorf("could not get structure of %s: %w", table, err)
	}
	defer rows.Close()

	var cols []string
	for rows.Next() {
		var c string
		if err := rows.Scan(&c); err != nil {
			return nil, err
		}
		cols = append(cols, c)
	}
	return cols, rows.Err()
}

// MaskDSN hides the password of a key/value connection string.
func MaskDSN(dsn string) string {
	fields := strings.Fields(dsn)
	for i, f := range fields {
		if k, v, ok := strings.Cut(f, "="); ok && k == "password" {
			masked := "***"
			if len(v) > 2 {
				masked = v[:2] + "***"
			}
			fields[i] = k + "=" + masked
		}
	}
	return strings.Join(fields, " ")
}
