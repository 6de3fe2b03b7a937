package search

import "testing"

func TestIsNonVideo(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"Frieren Manga Volume 3", true},
		{"Frieren Chapitre 12 [Scans FR]", true},
		{"Frieren - Artbook.zip", true},
		{"Frieren.v01.cbz", true},
		{"[SubsPlease] Frieren - 07 (1080p).mkv", false},
		{"Frieren Light Novel 2", true},
	}
	for _, c := range cases {
		if got := IsNonVideo(c.name); got != c.want {
			t.Errorf("IsNonVideo(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsBatch(t *testing.T) {
	cases := []struct {
		name string
		want bool
	}{
		{"[Judas] Frieren (Season 1) [BD 1080p] Batch", true},
		{"Frieren - Intégrale VOSTFR", true},
		{"Frieren 01-28 (1080p)", true},
		{"Frieren E01~E12 720p", true},
		{"Frieren S01 1080p WEB", true},
		{"Frieren Saison 1 VF", true},
		// An episode marker next to the season tag means a single episode.
		{"Frieren S01E05 1080p", false},
		{"[SubsPlease] Frieren - 07 (1080p)", false},
	}
	for _, c := range cases {
		if got := IsBatch(c.name); got != c.want {
			t.Errorf("IsBatch(%q) = %v, want %v", c.name, got, c.want)
		}
	}
}

func TestIsRemux(t *testing.T) {
	if !IsRemux("Frieren S01 BDRemux 2160p") {
		t.Error("BDRemux not detected")
	}
	if IsRemux("Frieren 1080p BluRay x265") {
		t.Error("plain encode flagged as remux")
	}
}

func TestLocalizationHints(t *testing.T) {
	cases := []struct {
		name   string
		french bool
		subbed bool
	}{
		{"Frieren 07 VOSTFR 1080p", true, true},
		{"Frieren 07 Multi-Subs", true, true},
		{"Frieren 07 [English Subbed]", false, true},
		{"Frieren 07 RAW", false, false},
	}
	for _, c := range cases {
		if got := HasFrenchHint(c.name); got != c.french {
			t.Errorf("HasFrenchHint(%q) = %v, want %v", c.name, got, c.french)
		}
		if got := HasSubHint(c.name); got != c.subbed {
			t.Errorf("HasSubHint(%q) = %v, want %v", c.name, got, c.subbed)
		}
	}
}

func TestIsTrustedGroup(t *testing.T) {
	if !IsTrustedGroup("[SubsPlease] Frieren - 07") {
		t.Error("SubsPlease not trusted")
	}
	if !IsTrustedGroup("[Erai-raws] Frieren - 07") {
		t.Error("Erai-raws not trusted")
	}
	if IsTrustedGroup("[RandomRip] Frieren - 07") {
		t.Error("unknown group trusted")
	}
}

func TestResolution(t *testing.T) {
	cases := []struct {
		name string
		want int
	}{
		{"Frieren 07 2160p", 2160},
		{"Frieren 07 4K HDR", 2160},
		{"Frieren 07 (1080p)", 1080},
		{"Frieren 07 [720p]", 720},
		{"Frieren 07 480p", 480},
		{"Frieren 07", 0},
	}
	for _, c := range cases {
		if got := Resolution(c.name); got != c.want {
			t.Errorf("Resolution(%q) = %d, want %d", c.name, got, c.want)
		}
	}
}

func TestMatchesEpisode(t *testing.T) {
	cases := []struct {
		name    string
		episode int
		want    bool
	}{
		{"[SubsPlease] Frieren - 07 (1080p)", 7, true},
		{"Frieren E07 VOSTFR", 7, true},
		{"Frieren S01E07 1080p", 7, true},
		{"Frieren Episode 7", 7, true},
		{"Frieren - 07v2 (1080p)", 7, true},
		{"Frieren - 27 (1080p)", 7, false},
		// Resolution digits must not read as episode numbers.
		{"Frieren 1080p", 10, false},
		{"Frieren - 08 (1080p)", 7, false},
		{"Frieren", 0, false},
	}
	for _, c := range cases {
		if got := MatchesEpisode(c.name, c.episode); got != c.want {
			t.Errorf("MatchesEpisode(%q, %d) = %v, want %v", c.name, c.episode, got, c.want)
		}
	}
}

func TestParseSize(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1.4 GiB", 1503238553},
		{"702 MiB", 702 << 20},
		{"1.5 GB", 1_500_000_000},
		{"512 KiB", 512 << 10},
		{"2 TiB", 2 << 40},
		{"", 0},
		{"unknown", 0},
	}
	for _, c := range cases {
		if got := ParseSize(c.in); got != c.want {
			t.Errorf("ParseSize(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}
