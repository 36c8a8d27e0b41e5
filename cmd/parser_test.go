package cmd

import (
	"reflect"
	"testing"
)

func testFlagSet() *CommandFlagSet {
	return &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"all":   {Name: "all", Short: "a", Type: "bool"},
			"long":  {Name: "long", Short: "l", Type: "bool"},
			"steps": {Name: "steps", Short: "n", Type: "int", Default: int64(1)},
			"key":   {Name: "key", Short: "k", Type: "string"},
			"tag":   {Name: "tag", Short: "t", Type: "string", Multiple: true},
		},
	}
}

func TestParser_Parse(t *testing.T) {
	tests := []struct {
		name  string
		raw   []string
		args  []string
		flags map[string]any
	}{
		{
			name:  "defaults",
			raw:   []string{"docs"},
			args:  []string{"docs"},
			flags: map[string]any{"steps": int64(1)},
		},
		{
			name:  "combined short bools",
			raw:   []string{"-al", "docs"},
			args:  []string{"docs"},
			flags: map[string]any{"all": true, "long": true, "steps": int64(1)},
		},
		{
			name:  "short value attached",
			raw:   []string{"-n3"},
			flags: map[string]any{"steps": int64(3)},
		},
		{
			name:  "long value separate",
			raw:   []string{"--key", "/keys/id", "alice"},
			args:  []string{"alice"},
			flags: map[string]any{"key": "/keys/id", "steps": int64(1)},
		},
		{
			name:  "long value inline",
			raw:   []string{"--steps=2", "--all=false"},
			flags: map[string]any{"steps": int64(2), "all": false},
		},
		{
			name:  "multiple",
			raw:   []string{"-t", "a", "--tag=b"},
			flags: map[string]any{"tag": []string{"a", "b"}, "steps": int64(1)},
		},
		{
			name:  "terminator",
			raw:   []string{"-a", "--", "-l", "--all"},
			args:  []string{"-l", "--all"},
			flags: map[string]any{"all": true, "steps": int64(1)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args, err := NewParser(testFlagSet()).Parse(tt.raw)
			if err != nil {
				t.Fatalf("Parse(%v) failed: %v", tt.raw, err)
			}

			if !reflect.DeepEqual(args.Args, tt.args) {
				t.Errorf("expected args %v, got %v", tt.args, args.Args)
			}
			if !reflect.DeepEqual(args.Flags, tt.flags) {
				t.Errorf("expected flags %v, got %v", tt.flags, args.Flags)
			}
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := map[string][]string{
		"unknown long":  {"--color"},
		"unknown short": {"-x"},
		"missing value": {"--key"},
		"invalid int":   {"-n", "three"},
		"value is flag": {"-k", "-a"},
		"invalid bool":  {"--all=maybe"},
	}

	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := NewParser(testFlagSet()).Parse(raw); err == nil {
				t.Errorf("Parse(%v) succeeded", raw)
			}
		})
	}
}

func TestParser_Required(t *testing.T) {
	flags := &CommandFlagSet{
		Flags: map[string]*CommandFlag{
			"user": {Name: "user", Short: "u", Type: "string", Required: true, Default: "guest"},
		},
	}

	if _, err := NewParser(flags).Parse(nil); err == nil {
		t.Error("missing required flag was accepted")
	}

	args, err := NewParser(flags).Parse([]string{"-u", "alice"})
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if args.String("user") != "alice" {
		t.Errorf("unexpected user '%s'", args.String("user"))
	}
}

func TestParser_NilFlagSet(t *testing.T) {
	args, err := NewParser(nil).Parse([]string{"a", "b"})
	if err != nil {
		t.Fatalf("Parse() failed: %v", err)
	}
	if len(args.Args) != 2 || args.Arg(1) != "b" || args.Arg(2) != "" {
		t.Errorf("unexpected args %v", args.Args)
	}
}

func TestSplitLine(t *testing.T) {
	tests := []struct {
		line string
		want []string
	}{
		{"ls -a", []string{"ls", "-a"}},
		{"  cd   docs\t", []string{"cd", "docs"}},
		{`mv "old name.txt" 'new name.txt'`, []string{"mv", "old name.txt", "new name.txt"}},
		{`mkdir "it's"`, []string{"mkdir", "it's"}},
		{`login alice ""`, []string{"login", "alice", ""}},
		{"", nil},
	}

	for _, tt := range tests {
		got, err := SplitLine(tt.line)
		if err != nil {
			t.Fatalf("SplitLine(%q) failed: %v", tt.line, err)
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("SplitLine(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}

	if _, err := SplitLine(`cd "docs`); err == nil {
		t.Error("unterminated quote was accepted")
	}
}
