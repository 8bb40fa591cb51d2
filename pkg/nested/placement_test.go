package nested

import (
	"path/filepath"
	"slices"
	"testing"

	"unnest/pkg/logger"

	"github.com/spf13/afero"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		in, stem, ext string
	}{
		{"data.bin", "data", ".bin"},
		{"a.tar.gz", "a.tar", ".gz"},
		{"README", "README", ""},
		{".env", ".env", ""},
		{"trailing.", "trailing.", ""},
	}
	for _, tt := range tests {
		stem, ext := splitName(tt.in)
		if stem != tt.stem || ext != tt.ext {
			t.Errorf("splitName(%q) = %q, %q; want %q, %q", tt.in, stem, ext, tt.stem, tt.ext)
		}
	}
}

func TestPlacerUniqueNames(t *testing.T) {
	logger.Init("DEBUG")
	fs := afero.NewMemMapFs()
	src, out := "/scratch", "/out"
	for _, dir := range []string{"/scratch/a", "/scratch/b", "/scratch/c", out} {
		if err := fs.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
	}

	var sources []string
	for _, dir := range []string{"a", "b", "c"} {
		for _, name := range []string{"data.bin", "a.tar.gz", ".env"} {
			path := filepath.Join(src, dir, name)
			if err := afero.WriteFile(fs, path, []byte(dir), 0644); err != nil {
				t.Fatal(err)
			}
			sources = append(sources, path)
		}
	}

	var called []string
	p := &placer{fs: fs, onExtract: func(path string) { called = append(called, path) }}

	var got []string
	for _, source := range sources {
		dest, res := p.place(source, out)
		if res != placed {
			t.Fatalf("%s: expected placed, got %d", source, res)
		}
		got = append(got, filepath.Base(dest))
	}

	want := []string{
		"data.bin", "a.tar.gz", ".env",
		"data_1.bin", "a.tar_1.gz", ".env_1",
		"data_2.bin", "a.tar_2.gz", ".env_2",
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if len(called) != len(sources) {
		t.Errorf("expected %d callbacks, got %d", len(sources), len(called))
	}

	data, err := afero.ReadFile(fs, "/out/data_2.bin")
	if err != nil || string(data) != "c" {
		t.Errorf("data_2.bin: got %q, %v", data, err)
	}
	if exists, _ := afero.Exists(fs, sources[0]); exists {
		t.Error("source should be gone after the move")
	}
}

func TestPlacerFilter(t *testing.T) {
	logger.Init("DEBUG")
	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/scratch/skip.log", []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	p := &placer{
		fs:            fs,
		shouldExtract: MatchPatterns([]string{"*.txt"}, nil),
		onExtract:     func(string) { t.Error("callback must not run for filtered files") },
	}
	if _, out := p.place("/scratch/skip.log", "/out"); out != filtered {
		t.Errorf("expected filtered, got %d", out)
	}
	if exists, _ := afero.Exists(fs, "/scratch/skip.log"); !exists {
		t.Error("filtered file should stay in scratch")
	}
}

func TestMatchPatterns(t *testing.T) {
	if MatchPatterns(nil, nil) != nil {
		t.Error("expected nil filter without patterns")
	}

	tests := []struct {
		include, exclude []string
		path             string
		want             bool
	}{
		{[]string{"*.txt"}, nil, "/x/a.txt", true},
		{[]string{"*.txt"}, nil, "/x/a.csv", false},
		{nil, []string{"*.tmp"}, "/x/a.tmp", false},
		{nil, []string{"*.tmp"}, "/x/a.txt", true},
		{[]string{"*.txt", "*.md"}, []string{"secret*"}, "/x/secret.txt", false},
		{[]string{"*.txt", "*.md"}, []string{"secret*"}, "/x/guide.md", true},
		{[]string{"[bad"}, nil, "/x/a.txt", false},
	}
	for _, tt := range tests {
		if got := MatchPatterns(tt.include, tt.exclude)(tt.path); got != tt.want {
			t.Errorf("include %v exclude %v path %s: got %v, want %v", tt.include, tt.exclude, tt.path, got, tt.want)
		}
	}
}
