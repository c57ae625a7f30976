package database

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"

	"jobfill/config"
)

func TestProfileSchema_CreatesEveryTable(t *testing.T) {
	created := regexp.MustCompile(`CREATE TABLE IF NOT EXISTS (\w+)`).FindAllStringSubmatch(profileSchema, -1)
	var names []string
	for _, m := range created {
		names = append(names, m[1])
	}
	assert.Equal(t, ProfileTables, names)
}

func TestProfileSchema_ColumnsReadByStore(t *testing.T) {
	for _, col := range []string{
		"location_city", "requires_sponsorship", "resume_url",
		"currently_working", "graduation_date", "currently_attending", "issued_at",
	} {
		assert.Contains(t, profileSchema, col)
	}
}

func TestMaskDSN(t *testing.T) {
	dsn := config.DatabaseConfig{Host: "db", Port: 5432, User: "app", Password: "hunter2", DBName: "jobfill", SSLMode: "disable"}.DSN()
	masked := MaskDSN(dsn)
	assert.Contains(t, masked, "password=hu***")
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, "dbname=jobfill")

	assert.Equal(t, "host=db password=***", MaskDSN("host=db password=x"))
}
