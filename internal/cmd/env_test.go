package cmd

import (
	"path/filepath"
	"testing"
)

func TestPathWithin(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		dir      string
		expected bool
	}{
		{
			name:     "identical paths",
			path:     "/tmp/packs",
			dir:      "/tmp/packs",
			expected: true,
		},
		{
			name:     "path below dir",
			path:     "/tmp/packs/out/pack.zip",
			dir:      "/tmp/packs",
			expected: true,
		},
		{
			name:     "dir below path",
			path:     "/tmp/packs",
			dir:      "/tmp/packs/extract",
			expected: false,
		},
		{
			name:     "completely separate paths",
			path:     "/tmp/packs",
			dir:      "/mnt/output",
			expected: false,
		},
		{
			name:     "sibling with common prefix",
			path:     "/tmp/packs-output/pack.zip",
			dir:      "/tmp/packs",
			expected: false,
		},
		{
			name:     "relative paths - within",
			path:     "extracts/pack/x.zip",
			dir:      "extracts",
			expected: true,
		},
		{
			name:     "relative paths - separate",
			path:     "output",
			dir:      "extracts",
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := pathWithin(tt.path, tt.dir)
			if result != tt.expected {
				t.Errorf("pathWithin(%q, %q) = %v, expected %v", tt.path, tt.dir, result, tt.expected)
			}
		})
	}
}

func TestPackInputDestination(t *testing.T) {
	tests := []struct {
		name     string
		pack     packInput
		output   string
		expected string
	}{
		{
			name:     "archive goes to the configured output",
			pack:     packInput{Root: "/w/pack", Name: "pack", Zipped: true},
			expected: filepath.Join("out", "pack.zip"),
		},
		{
			name:     "explicit output wins",
			pack:     packInput{Root: "/w/pack", Name: "pack", Zipped: true},
			output:   "/elsewhere",
			expected: filepath.Join("/elsewhere", "pack.zip"),
		},
		{
			name:     "directory stays in place",
			pack:     packInput{Root: "/packs/mine", Name: "mine"},
			expected: "",
		},
		{
			name:     "directory packed on request",
			pack:     packInput{Root: "/packs/mine", Name: "mine"},
			output:   "/dist",
			expected: filepath.Join("/dist", "mine.zip"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pack.destination(tt.output, "out"); got != tt.expected {
				t.Errorf("destination(%q) = %q, expected %q", tt.output, got, tt.expected)
			}
		})
	}
}
