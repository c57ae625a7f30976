package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strconv"
)

// ErrProfileNotFound is returned when no profile exists for a user.
var ErrProfileNotFound = errors.New("candidate profile not found")

// ProfileStore is the read-only profile collaborator.
type ProfileStore interface {
	GetProfile(ctx context.Context, userID int) (*CandidateProfile, error)
}

// PostgresProfileStore reads profiles from the job board's Postgres schema.
type PostgresProfileStore struct {
	DB *sql.DB
}

func NewPostgresProfileStore(db *sql.DB) *PostgresProfileStore {
	return &PostgresProfileStore{DB: db}
}

func (m *PostgresProfileStore) GetProfile(ctx context.Context, userID int) (*CandidateProfile, error) {
	p := &CandidateProfile{UserID: userID}
	var workAuth, sponsorship sql.NullBool
	query := `
		SELECT COALESCE(p.first_name, ''), COALESCE(p.last_name, ''),
		       COALESCE(p.full_name, ''), COALESCE(u.email, ''),
		       COALESCE(p.phone, ''), COALESCE(p.location_city, ''),
		       COALESCE(p.location_state, ''), COALESCE(p.location_country, ''),
		       COALESCE(p.zip_code, ''),
		       COALESCE(p.current_job_title, ''), COALESCE(p.current_company, ''),
		       COALESCE(p.years_of_experience, 0), COALESCE(p.skills, ''),
		       COALESCE(p.professional_summary, ''),
		       COALESCE(p.linkedin_url, ''), COALESCE(p.portfolio_url, ''),
		       COALESCE(p.github_url, ''), COALESCE(p.salary_expectation, ''),
		       COALESCE(p.notice_period, ''), COALESCE(p.start_date_preference, ''),
		       p.work_authorized, p.requires_sponsorship,
		       COALESCE(p.gender, ''), COALESCE(p.race, ''), COALESCE(p.ethnicity, ''),
		       COALESCE(p.veteran_status, ''), COALESCE(p.disability_status, ''),
		       COALESCE(p.resume_url, '')
		FROM user_profiles p
		JOIN users u ON u.id = p.user_id
		WHERE p.user_id = $1
	`
	err := m.DB.QueryRowContext(ctx, query, userID).Scan(
		&p.FirstName, &p.LastName, &p.FullName, &p.Email,
		&p.Phone, &p.City, &p.State, &p.Country, &p.ZipCode,
		&p.CurrentJobTitle, &p.CurrentCompany, &p.YearsOfExperience, &p.Skills,
		&p.ProfessionalSummary, &p.LinkedInURL, &p.PortfolioURL, &p.GithubURL,
		&p.SalaryExpectation, &p.NoticePeriod, &p.StartDatePreference,
		&workAuth, &sponsorship,
		&p.Gender, &p.Race, &p.Ethnicity, &p.VeteranStatus, &p.DisabilityStatus,
		&p.ResumeURL,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %d: %w", userID, err)
	}
	if workAuth.Valid {
		p.WorkAuthorized = &workAuth.Bool
	}
	if sponsorship.Valid {
		p.RequiresSponsorship = &sponsorship.Bool
	}

	if p.WorkExperience, err = m.experience(ctx, userID); err != nil {
		return nil, err
	}
	if p.Education, err = m.education(ctx, userID); err != nil {
		return nil, err
	}
	if p.Licenses, err = m.licenses(ctx, userID); err != nil {
		return nil, err
	}
	if p.Certifications, err = m.certifications(ctx, userID); err != nil {
		return nil, err
	}
	return p, nil
}

func (m *PostgresProfileStore) experience(ctx context.Context, userID int) ([]ExperienceEntry, error) {
	query := `
		SELECT job_title, company,
		       COALESCE(location, ''), COALESCE(description, ''),
		       COALESCE(start_date::text, ''), COALESCE(end_date::text, ''),
		       currently_working
		FROM experiences
		WHERE user_id = $1
		ORDER BY currently_working DESC, start_date DESC
	`
	rows, err := m.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load experience: %w", err)
	}
	defer rows.Close()

	out := []ExperienceEntry{}
	for rows.Next() {
		var e ExperienceEntry
		if err := rows.Scan(&e.Title, &e.Company, &e.Location, &e.Description,
			&e.StartDate, &e.EndDate, &e.IsCurrent); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (m *PostgresProfileStore) education(ctx context.Context, userID int) ([]EducationEntry, error) {
	query := `
		SELECT school, COALESCE(degree, ''), COALESCE(field, ''),
		       COALESCE(start_date::text, ''), COALESCE(graduation_date::text, ''),
		       COALESCE(currently_attending, false)
		FROM education
		WHERE user_id = $1
		ORDER BY graduation_date DESC NULLS FIRST
	`
	rows, err := m.DB.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("load education: %w", err)
	}
	defer rows.Close()

	out := []EducationEntry{}
	for rows.Next() {
		var e EducationEntry
		if err := rows.Scan(&e.School, &e.Degree, &e.FieldOfStudy,
			&e.StartDate, &e.EndDate, &e.IsCurrent); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (m *PostgresProfileStore) licenses(ctx context.Context, userID int) ([]License, error) {
	rows, err := m.DB.QueryContext(ctx, `
		SELECT name, COALESCE(state, ''), COALESCE(number, ''), COALESCE(expires_at::text, '')
		FROM licenses WHERE user_id = $1 ORDER BY name
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load licenses: %w", err)
	}
	defer rows.Close()

	out := []License{}
	for rows.Next() {
		var l License
		if err := rows.Scan(&l.Name, &l.State, &l.Number, &l.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (m *PostgresProfileStore) certifications(ctx context.Context, userID int) ([]Certification, error) {
	rows, err := m.DB.QueryContext(ctx, `
		SELECT name, COALESCE(issuer, ''), COALESCE(issued_at::text, ''), COALESCE(expires_at::text, '')
		FROM certifications WHERE user_id = $1 ORDER BY issued_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("load certifications: %w", err)
	}
	defer rows.Close()

	out := []Certification{}
	for rows.Next() {
		var c Certification
		if err := rows.Scan(&c.Name, &c.Issuer, &c.IssuedAt, &c.ExpiresAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// FileProfileStore serves profiles from <Dir>/<userID>.json, for local runs
// without a database.
type FileProfileStore struct {
	Dir string
}

func (s FileProfileStore) GetProfile(_ context.Context, userID int) (*CandidateProfile, error) {
	path := filepath.Join(s.Dir, strconv.Itoa(userID)+".json")
	p, err := LoadProfileFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrProfileNotFound
		}
		return nil, err
	}
	p.UserID = userID
	return p, nil
}
