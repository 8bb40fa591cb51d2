package unpack

import "testing"

func TestVolumeNaming(t *testing.T) {
	tests := []struct {
		name      string
		middleRar bool
		split7z   bool
		middle7z  bool
	}{
		{"movie.rar", false, false, false},
		{"movie.part1.rar", false, false, false},
		{"movie.part01.rar", false, false, false},
		{"movie.part001.rar", false, false, false},
		{"movie.part02.rar", true, false, false},
		{"movie.part10.rar", true, false, false},
		{"MOVIE.PART3.RAR", true, false, false},
		{"my.party.rar", false, false, false},
		{"movie.r00", true, false, false},
		{"movie.r15", true, false, false},
		{"movie.7z", false, false, false},
		{"movie.7z.001", false, true, false},
		{"movie.7z.002", false, true, true},
		{"movie.zip.001", false, false, false},
		{"movie.7z.01", false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsMiddleRarVolume(tt.name); got != tt.middleRar {
				t.Errorf("IsMiddleRarVolume = %v, want %v", got, tt.middleRar)
			}
			if got := IsSplit7z(tt.name); got != tt.split7z {
				t.Errorf("IsSplit7z = %v, want %v", got, tt.split7z)
			}
			if got := IsMiddle7zVolume(tt.name); got != tt.middle7z {
				t.Errorf("IsMiddle7zVolume = %v, want %v", got, tt.middle7z)
			}
		})
	}
}

func TestDecompressedName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"notes.txt.gz", "notes.txt"},
		{"/tmp/x/site.tgz", "site.tar"},
		{"data.tar.zst", "data.tar"},
		{"dump.sql.xz", "dump.sql"},
		{"blob", "blob.out"},
		{".gz", ".gz.out"},
		{"page.html.br", "page.html"},
	}

	for _, tt := range tests {
		if got := DecompressedName(tt.in); got != tt.want {
			t.Errorf("DecompressedName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
