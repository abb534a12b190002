package xfile

import (
	"errors"
	"path/filepath"
	"testing"
)

func TestSanitizePath(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr error
	}{
		{"相对路径", "logs/app.log", filepath.Clean("logs/app.log"), nil},
		{"绝对路径", "/var/log/app.log", "/var/log/app.log", nil},
		{"冗余分隔符", "/var//log/./app.log", "/var/log/app.log", nil},
		{"空路径", "", "", ErrEmptyPath},
		{"空字节", "app\x00.log", "", ErrNullByte},
		{"目录路径", "/var/log/", "", ErrInvalidPath},
		{"路径穿越", "../etc/passwd", "", ErrPathTraversal},
		{"根目录", "/", "", ErrInvalidPath},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SanitizePath(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SanitizePath(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SanitizePath(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("SanitizePath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSafeJoin(t *testing.T) {
	tests := []struct {
		name    string
		base    string
		elems   []string
		want    string
		wantErr error
	}{
		{"单段", "/data", []string{"buckets"}, "/data/buckets", nil},
		{"多段", "/data", []string{"buckets", "3", "key"}, "/data/buckets/3/key", nil},
		{"双点前缀合法", "/data", []string{"..config"}, "/data/..config", nil},
		{"空base", "", []string{"a"}, "", ErrEmptyPath},
		{"相对base", "data", []string{"a"}, "", ErrInvalidPath},
		{"无元素", "/data", nil, "", ErrEmptyPath},
		{"空元素", "/data", []string{"a", ""}, "", ErrEmptyPath},
		{"绝对元素", "/data", []string{"/etc/passwd"}, "", ErrInvalidPath},
		{"穿越", "/data", []string{"../etc/passwd"}, "", ErrPathTraversal},
		{"中间穿越", "/data", []string{"a/../../etc"}, "", ErrPathTraversal},
		{"元素空字节", "/data", []string{"a\x00"}, "", ErrNullByte},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SafeJoin(tt.base, tt.elems...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("SafeJoin(%q, %q) error = %v, want %v", tt.base, tt.elems, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("SafeJoin(%q, %q) unexpected error: %v", tt.base, tt.elems, err)
			}
			if got != filepath.FromSlash(tt.want) {
				t.Errorf("SafeJoin(%q, %q) = %q, want %q", tt.base, tt.elems, got, tt.want)
			}
		})
	}
}

func TestHasDotDotSegment(t *testing.T) {
	cases := map[string]bool{
		"..":         true,
		"../a":       true,
		"a/..":       true,
		`a\..\b`:     true,
		"..a":        false,
		"a..":        false,
		"a/...":      false,
		"":           false,
		"/data/file": false,
	}
	for in, want := range cases {
		if got := hasDotDotSegment(in); got != want {
			t.Errorf("hasDotDotSegment(%q) = %v, want %v", in, got, want)
		}
	}
}
