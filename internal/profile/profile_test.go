package profile

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/r-lib/rig/internal/rigerr"
)

const sampleRepositoriesTSV = `# managed by rig, do not edit by hand
menu_name	URL	default	source	win.binary	mac.binary
CRAN	CRAN	https://cran.r-project.org	TRUE	TRUE	TRUE	TRUE

"CRAN (extras)"	Extra packages	https://cran.example.org/extras	FALSE	TRUE	FALSE	FALSE
`

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(contents), 0o666); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestReadRepositoriesFileParsesCommentsAndRows(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "repositories", sampleRepositoriesTSV)

	f, err := ReadRepositoriesFile(path)
	if err != nil {
		t.Fatalf("ReadRepositoriesFile: %v", err)
	}

	if len(f.Entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(f.Entries))
	}
	if f.Entries[0].Name != "CRAN" || !f.Entries[0].Default {
		t.Errorf("first entry = %+v", f.Entries[0])
	}
	if f.Entries[1].Name != "CRAN (extras)" || f.Entries[1].Default {
		t.Errorf("second entry = %+v", f.Entries[1])
	}

	foundCommentLine, foundBlankLine := false, false
	for _, c := range f.Comments {
		if strings.HasPrefix(c.Text, "#") {
			foundCommentLine = true
		}
		if c.Text == "" {
			foundBlankLine = true
		}
	}
	if !foundCommentLine || !foundBlankLine {
		t.Errorf("expected both a comment line and a blank line preserved, got %+v", f.Comments)
	}
}

func TestWriteRepositoriesFileRoundTripsUnmodified(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "repositories", sampleRepositoriesTSV)

	f, err := ReadRepositoriesFile(path)
	if err != nil {
		t.Fatalf("ReadRepositoriesFile: %v", err)
	}

	outPath := filepath.Join(dir, "repositories.out")
	if err := f.Write(outPath); err != nil {
		t.Fatalf("Write: %v", err)
	}

	reread, err := ReadRepositoriesFile(outPath)
	if err != nil {
		t.Fatalf("ReadRepositoriesFile(round trip): %v", err)
	}
	if len(reread.Entries) != len(f.Entries) {
		t.Fatalf("round trip entry count = %d, want %d", len(reread.Entries), len(f.Entries))
	}
	for i := range f.Entries {
		if reread.Entries[i] != f.Entries[i] {
			t.Errorf("entry %d round trip = %+v, want %+v", i, reread.Entries[i], f.Entries[i])
		}
	}
}

func TestWriteQuotesFieldsWithSpaces(t *testing.T) {
	f := &RepositoriesFile{
		Entries: []RepoFileEntry{
			{Name: "CRAN (extras)", Description: "Extra packages", URL: "https://example.org", Default: true, Source: true},
		},
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "repositories")
	if err := f.Write(path); err != nil {
		t.Fatalf("Write: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(contents), `"CRAN (extras)"`) {
		t.Errorf("expected quoted field with embedded space, got:\n%s", contents)
	}
}

func TestCommentOutAndAddPreservesOldRowAsComment(t *testing.T) {
	f := &RepositoriesFile{
		Entries: []RepoFileEntry{
			{Name: "CRAN", URL: "https://cran.r-project.org", Default: true, Source: true},
		},
	}

	CommentOutAndAdd(f, RepoFileEntry{Name: "CRAN", URL: "https://cran.example.org/mirror", Default: true, Source: true})

	if len(f.Entries) != 1 {
		t.Fatalf("got %d entries after CommentOutAndAdd, want 1 (old row commented, new row appended)", len(f.Entries))
	}
	if f.Entries[0].URL != "https://cran.example.org/mirror" {
		t.Errorf("new entry URL = %q, want the mirror URL", f.Entries[0].URL)
	}

	foundOldAsComment := false
	for _, c := range f.Comments {
		if strings.HasPrefix(c.Text, "## ") && strings.Contains(c.Text, "cran.r-project.org") {
			foundOldAsComment = true
		}
	}
	if !foundOldAsComment {
		t.Errorf("expected the old CRAN row to survive as a ## comment, got %+v", f.Comments)
	}
}

func TestRewriteSiteProfileAppendsWhenMarkersAbsent(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "Rprofile.site", "options(foo = 1)\n")

	if err := RewriteSiteProfile(path, RLibsUserBlock, []byte(`Sys.setenv(R_LIBS_USER = "/opt/r-libs")`)); err != nil {
		t.Fatalf("RewriteSiteProfile: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(contents)
	if !strings.Contains(got, "## rig R_LIBS_USER start") || !strings.Contains(got, "## rig R_LIBS_USER end") {
		t.Errorf("expected sentinel markers in output:\n%s", got)
	}
	if !strings.Contains(got, "options(foo = 1)") {
		t.Errorf("expected prior content preserved:\n%s", got)
	}
}

func TestRewriteSiteProfileReplacesExistingBlock(t *testing.T) {
	dir := t.TempDir()
	original := "options(foo = 1)\n## rig R_LIBS_USER start\nSys.setenv(R_LIBS_USER = \"/old/path\")\n## rig R_LIBS_USER end\noptions(bar = 2)\n"
	path := writeTemp(t, dir, "Rprofile.site", original)

	if err := RewriteSiteProfile(path, RLibsUserBlock, []byte(`Sys.setenv(R_LIBS_USER = "/new/path")`)); err != nil {
		t.Fatalf("RewriteSiteProfile: %v", err)
	}

	contents, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	got := string(contents)
	if strings.Contains(got, "/old/path") {
		t.Errorf("old block contents should have been replaced:\n%s", got)
	}
	if !strings.Contains(got, "/new/path") {
		t.Errorf("expected new block contents:\n%s", got)
	}
	if !strings.Contains(got, "options(bar = 2)") || !strings.Contains(got, "options(foo = 1)") {
		t.Errorf("expected content outside the managed block preserved:\n%s", got)
	}
}

func TestRewriteSiteProfileRefusesSingleMarker(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "Rprofile.site", "## rig R_LIBS_USER start\nSys.setenv(R_LIBS_USER = \"/old/path\")\n")

	err := RewriteSiteProfile(path, RLibsUserBlock, []byte("x"))
	if err == nil {
		t.Fatal("expected an error for a profile with only one sentinel marker")
	}
	var rerr *rigerr.Error
	if !errors.As(err, &rerr) || rerr.Kind != rigerr.ConfigInvariant {
		t.Errorf("got %v, want a rigerr.ConfigInvariant error", err)
	}
}
