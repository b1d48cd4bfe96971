package main

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"example.com/sakila-migration/internal/migration"
	"example.com/sakila-migration/internal/models"
)

func TestExitCode(t *testing.T) {
	ok := &migration.Report{Phases: []migration.PhaseReport{{Name: models.PhaseKV}}}
	failed := &migration.Report{Fatal: models.NewConnectError(models.PhaseInit, errors.New("refused"))}

	tests := []struct {
		name   string
		strict bool
		report *migration.Report
		want   int
	}{
		{"best effort success", false, ok, 0},
		{"best effort failure", false, failed, 0},
		{"strict success", true, ok, 0},
		{"strict failure", true, failed, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.strict, tt.report))
		})
	}
}
