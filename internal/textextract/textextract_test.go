package textextract

import "testing"

func TestDetect(t *testing.T) {
	cases := []struct {
		name        string
		contentType string
		want        Format
	}{
		{name: "cv.PDF", want: FormatPDF},
		{name: "cv.docx", contentType: "text/plain", want: FormatDOCX},
		{name: "page.htm", want: FormatHTML},
		{name: "notes.md", contentType: "text/html", want: FormatText},
		{name: "upload", contentType: "application/pdf", want: FormatPDF},
		{name: "upload", contentType: "text/html; charset=utf-8", want: FormatHTML},
		{name: "upload", want: FormatText},
	}

	for _, tc := range cases {
		t.Run(tc.name+"/"+tc.contentType, func(t *testing.T) {
			if got := Detect(tc.name, tc.contentType); got != tc.want {
				t.Fatalf("expected %s, got %s", tc.want, got)
			}
		})
	}
}

func TestExtractHTML(t *testing.T) {
	html := `<html><head><style>p{}</style></head><body><nav>Menu</nav>
<main><h1>Jane Doe</h1><p>Senior&nbsp;engineer.</p><script>track()</script><ul><li>Go</li><li>Rust</li></ul></main>
<footer>Copyright</footer></body></html>`

	got, err := New().Extract("cv.html", "", []byte(html))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := "Jane Doe\nSenior engineer.\nGo\nRust"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestExtractText(t *testing.T) {
	got, err := New().Extract("cv.txt", "", []byte("  Line one \r\n\r\n\r\n\tLine   two  "))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := "Line one\n\nLine two"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	if _, err := New().Extract("bin.txt", "", []byte{0xff, 0xfe, 0x00}); err == nil {
		t.Fatal("expected error for invalid utf-8")
	}
}

func TestExtractBrokenBinary(t *testing.T) {
	for _, name := range []string{"cv.pdf", "cv.docx"} {
		if _, err := New().Extract(name, "", []byte("not really a binary document")); err == nil {
			t.Fatalf("expected error for %s", name)
		}
	}
}
