package cli

import (
	"testing"
)

// Every case here fails before any request is made, so no server is needed.
func TestArgumentValidation(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"visits rejects args", []string{"visits", "extra"}},
		{"visits bad category", []string{"visits", "--category", "marketing"}},
		{"visits bad month", []string{"visits", "--month", "13"}},
		{"visits month zero", []string{"visits", "--month", "0"}},
		{"visit add needs org", []string{"visit", "add", "--city", "Pune", "--phase", "Lead"}},
		{"visit add needs phase", []string{"visit", "add", "--org", "Acme", "--city", "Pune"}},
		{"visit add bad amount", []string{"visit", "add", "--org", "Acme", "--city", "Pune", "--phase", "Lead", "--students", "forty"}},
		{"visit add bad category", []string{"visit", "add", "--category", "x", "--org", "Acme", "--city", "Pune", "--phase", "Lead"}},
		{"visit show needs id", []string{"visit", "show"}},
		{"export bad category", []string{"export", "--category", "nope"}},
		{"code next bad category", []string{"code", "next", "--category", "nope"}},
		{"expenses bad category", []string{"expenses", "--category", "nope"}},
		{"expense add needs org", []string{"expense", "add", "--type", "Lead"}},
		{"expense add bad date", []string{"expense", "add", "--org", "Acme", "--type", "Lead", "--date", "12/03/2025"}},
		{"config set-server needs url", []string{"config", "set-server"}},
		{"serve rejects args", []string{"serve", "extra"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("TM_SERVER_URL", "http://127.0.0.1:1")
			_, err := executeCommand(tt.args...)
			if err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
