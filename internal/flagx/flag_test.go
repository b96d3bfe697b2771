package flagx

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		allowed []string
		want    []string
	}{
		{
			name:    "separate value",
			args:    []string{"-k", "a2V5", "-x", "1"},
			allowed: []string{"-k"},
			want:    []string{"-k", "a2V5"},
		},
		{
			name:    "equals form",
			args:    []string{"-config=cmcs.json", "-a", ":8080"},
			allowed: []string{"-c", "-config"},
			want:    []string{"-config=cmcs.json"},
		},
		{
			name:    "order is preserved",
			args:    []string{"-f", "/srv/uploads", "-z", "-a", ":8080"},
			allowed: []string{"-a", "-f"},
			want:    []string{"-f", "/srv/uploads", "-a", ":8080"},
		},
		{
			name:    "nothing allowed matches",
			args:    []string{"-x", "1", "--y=2", "positional"},
			allowed: []string{"-c"},
			want:    []string{},
		},
		{
			name:    "trailing flag without value",
			args:    []string{"-m"},
			allowed: []string{"-m"},
			want:    []string{"-m"},
		},
		{
			name:    "next token is a flag, not a value",
			args:    []string{"-m", "-a", ":8080"},
			allowed: []string{"-m", "-a"},
			want:    []string{"-m", "-a", ":8080"},
		},
		{
			name:    "equals value may start with a dash",
			args:    []string{"-config=-odd.json"},
			allowed: []string{"-config"},
			want:    []string{"-config=-odd.json"},
		},
		{
			name:    "repeated flag kept twice",
			args:    []string{"-c", "one.json", "-c", "two.json"},
			allowed: []string{"-c"},
			want:    []string{"-c", "one.json", "-c", "two.json"},
		},
		{
			name:    "empty input",
			args:    nil,
			allowed: []string{"-c"},
			want:    []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, tt.allowed))
		})
	}
}

func TestConfigPath(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"short", []string{"-c", "/etc/cmcs.json"}, "/etc/cmcs.json"},
		{"long", []string{"-config", "/etc/cmcs.json"}, "/etc/cmcs.json"},
		{"long with equals", []string{"-a", ":9", "-config=/tmp/x.json"}, "/tmp/x.json"},
		{"last one wins", []string{"-c", "1.json", "-config", "2.json"}, "2.json"},
		{"absent", []string{"-k", "key", "-d", "dsn"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ConfigPath(tt.args))
		})
	}
}
