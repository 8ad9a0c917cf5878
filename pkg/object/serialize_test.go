package object

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

const (
	blob123ID   = ID("d800886d9c86731ae5c4a62b0b77c437015e00d2")
	blob789ID   = ID("be2fb0a390d694f75a1e5957254c29d7957fa3a2")
	hostsTreeID = ID("c2b1cf11f2abf788bfef75bbdf0263c84c3eb058")
	emptyTreeID = ID("4b825dc642cb6eb9a060e54bf8d69288fbee4904")
)

func TestBlobKnownVectors(t *testing.T) {
	tests := []struct {
		content string
		want    ID
	}{
		{"123", blob123ID},
		{"789", blob789ID},
	}
	for _, tc := range tests {
		got := IDOf(&Blob{Data: []byte(tc.content)})
		if got != tc.want {
			t.Errorf("Blob(%q) id = %s, want %s", tc.content, got, tc.want)
		}
	}
}

func TestSerializeEnvelope(t *testing.T) {
	raw := Serialize(&Blob{Data: []byte("123")})
	if string(raw) != "blob 3\x00123" {
		t.Errorf("Serialize = %q, want %q", raw, "blob 3\x00123")
	}
}

func TestTreeKnownVector(t *testing.T) {
	entries := []TreeEntry{
		{Mode: ModeFile, Name: "host1", Target: blob123ID},
		{Mode: ModeFile, Name: "host2", Target: blob789ID},
	}
	tr, err := NewTree(entries)
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if got := IDOf(tr); got != hostsTreeID {
		t.Errorf("tree id = %s, want %s", got, hostsTreeID)
	}

	// Supplying the entries in the opposite order must not change the id.
	reversed := []TreeEntry{entries[1], entries[0]}
	tr2, err := NewTree(reversed)
	if err != nil {
		t.Fatalf("NewTree reversed: %v", err)
	}
	if got := IDOf(tr2); got != hostsTreeID {
		t.Errorf("tree id from reversed entries = %s, want %s", got, hostsTreeID)
	}
}

func TestEmptyTreeKnownVector(t *testing.T) {
	tr, err := NewTree(nil)
	if err != nil {
		t.Fatalf("NewTree(nil): %v", err)
	}
	if len(tr.Encode()) != 0 {
		t.Errorf("empty tree payload = %q, want empty", tr.Encode())
	}
	if got := IDOf(tr); got != emptyTreeID {
		t.Errorf("empty tree id = %s, want %s", got, emptyTreeID)
	}
}

// A subtree entry sorts as though its name carried a trailing path
// separator, so "ab.c" ('.' = 0x2e) precedes a subtree named "ab"
// ("ab/" with '/' = 0x2f). A plain name sort would flip them.
func TestTreeSortSubtreeAsTrailingSlash(t *testing.T) {
	tr, err := NewTree([]TreeEntry{
		{Mode: ModeDir, Name: "ab", Target: emptyTreeID},
		{Mode: ModeFile, Name: "ab.c", Target: blob123ID},
	})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if tr.Entries[0].Name != "ab.c" || tr.Entries[1].Name != "ab" {
		t.Errorf("sorted names = [%s, %s], want [ab.c, ab]", tr.Entries[0].Name, tr.Entries[1].Name)
	}

	// With both entries as regular content, the plain byte order applies.
	tr2, err := NewTree([]TreeEntry{
		{Mode: ModeFile, Name: "ab.c", Target: blob123ID},
		{Mode: ModeFile, Name: "ab", Target: blob789ID},
	})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	if tr2.Entries[0].Name != "ab" || tr2.Entries[1].Name != "ab.c" {
		t.Errorf("sorted names = [%s, %s], want [ab, ab.c]", tr2.Entries[0].Name, tr2.Entries[1].Name)
	}
}

func TestNewTreeRejectsBadEntries(t *testing.T) {
	tests := []struct {
		name    string
		entries []TreeEntry
	}{
		{
			name: "duplicate name",
			entries: []TreeEntry{
				{Mode: ModeFile, Name: "a", Target: blob123ID},
				{Mode: ModeFile, Name: "a", Target: blob789ID},
			},
		},
		{
			name:    "empty name",
			entries: []TreeEntry{{Mode: ModeFile, Name: "", Target: blob123ID}},
		},
		{
			name:    "path separator in name",
			entries: []TreeEntry{{Mode: ModeFile, Name: "a/b", Target: blob123ID}},
		},
		{
			name:    "unknown mode",
			entries: []TreeEntry{{Mode: "100755", Name: "a", Target: blob123ID}},
		},
		{
			name:    "malformed target",
			entries: []TreeEntry{{Mode: ModeFile, Name: "a", Target: "nothex"}},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewTree(tc.entries); !errors.Is(err, ErrInvalidInput) {
				t.Errorf("NewTree error = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestTreeRoundTrip(t *testing.T) {
	tr, err := NewTree([]TreeEntry{
		{Mode: ModeFile, Name: "host1", Target: blob123ID},
		{Mode: ModeDir, Name: "sub", Target: emptyTreeID},
		{Mode: ModeFile, Name: "host2", Target: blob789ID},
	})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}

	decoded, err := decodeTree(tr.Encode())
	if err != nil {
		t.Fatalf("decodeTree: %v", err)
	}
	if !bytes.Equal(decoded.Encode(), tr.Encode()) {
		t.Error("tree round-trip changed serialization")
	}
	if len(decoded.Entries) != 3 {
		t.Fatalf("decoded entries = %d, want 3", len(decoded.Entries))
	}
	if decoded.Entries[2].Mode != ModeDir || decoded.Entries[2].Name != "sub" {
		t.Errorf("decoded entry 2 = %+v, want subtree 'sub'", decoded.Entries[2])
	}
}

func TestDecodeTreeCorrupt(t *testing.T) {
	good, err := NewTree([]TreeEntry{{Mode: ModeFile, Name: "a", Target: blob123ID}})
	if err != nil {
		t.Fatalf("NewTree: %v", err)
	}
	payload := good.Encode()

	tests := []struct {
		name    string
		payload []byte
	}{
		{"truncated id", payload[:len(payload)-5]},
		{"no mode separator", []byte("100644")},
		{"unknown mode", bytes.Replace(payload, []byte("100644"), []byte("120000"), 1)},
		{"unterminated name", []byte("100644 a")},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeTree(tc.payload); !errors.Is(err, ErrCorrupt) {
				t.Errorf("decodeTree error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestDecodeTreeUnsortedCorrupt(t *testing.T) {
	// Hand-build a payload with entries out of canonical order.
	var buf bytes.Buffer
	for _, name := range []string{"b", "a"} {
		buf.WriteString("100644 " + name)
		buf.WriteByte(0)
		raw, _ := blob123ID.Raw()
		buf.Write(raw)
	}
	if _, err := decodeTree(buf.Bytes()); !errors.Is(err, ErrCorrupt) {
		t.Errorf("decodeTree error = %v, want ErrCorrupt", err)
	}
}

func TestCommitCanonicalForm(t *testing.T) {
	c := &Commit{
		Tree:       hostsTreeID,
		Parents:    []ID{blob123ID},
		Author:     Actor{Name: "Ada Lovelace", Email: "ada@example.com"},
		AuthorTime: Timestamp{Unix: 1700000000, Offset: 90},
		Committer:  Actor{Name: "Charles Babbage", Email: "charles@example.com"},
		CommitTime: Timestamp{Unix: 1700000100, Offset: -300},
		Message:    "store hosts\n",
	}
	want := "tree " + string(hostsTreeID) + "\n" +
		"parent " + string(blob123ID) + "\n" +
		"author Ada Lovelace <ada@example.com> 1700000000 +0130\n" +
		"committer Charles Babbage <charles@example.com> 1700000100 -0500\n" +
		"\n" +
		"store hosts\n"
	if got := string(c.Encode()); got != want {
		t.Errorf("commit payload:\ngot  %q\nwant %q", got, want)
	}
}

func TestCommitRoundTrip(t *testing.T) {
	c := &Commit{
		Tree:       hostsTreeID,
		Parents:    []ID{blob123ID, blob789ID},
		Author:     Actor{Name: "Ada Lovelace", Email: "ada@example.com"},
		AuthorTime: Timestamp{Unix: 1700000000, Offset: 0},
		Committer:  Actor{Name: "Ada Lovelace", Email: "ada@example.com"},
		CommitTime: Timestamp{Unix: 1700000000, Offset: 0},
		Message:    "first line\n\nbody with blank line\n",
	}
	decoded, err := decodeCommit(c.Encode())
	if err != nil {
		t.Fatalf("decodeCommit: %v", err)
	}
	if decoded.Tree != c.Tree {
		t.Errorf("Tree = %s, want %s", decoded.Tree, c.Tree)
	}
	if len(decoded.Parents) != 2 || decoded.Parents[0] != blob123ID || decoded.Parents[1] != blob789ID {
		t.Errorf("Parents = %v, want %v", decoded.Parents, c.Parents)
	}
	if decoded.Author != c.Author || decoded.AuthorTime != c.AuthorTime {
		t.Errorf("Author = %+v %+v, want %+v %+v", decoded.Author, decoded.AuthorTime, c.Author, c.AuthorTime)
	}
	if decoded.Message != c.Message {
		t.Errorf("Message = %q, want %q", decoded.Message, c.Message)
	}
	if !bytes.Equal(decoded.Encode(), c.Encode()) {
		t.Error("commit round-trip changed serialization")
	}
}

func TestCommitNoParents(t *testing.T) {
	c := &Commit{
		Tree:       hostsTreeID,
		Author:     Actor{Name: "Ada", Email: "ada@example.com"},
		AuthorTime: Timestamp{Unix: 1, Offset: 0},
		Committer:  Actor{Name: "Ada", Email: "ada@example.com"},
		CommitTime: Timestamp{Unix: 1, Offset: 0},
		Message:    "root",
	}
	if strings.Contains(string(c.Encode()), "parent") {
		t.Error("parentless commit must omit parent lines")
	}
	decoded, err := decodeCommit(c.Encode())
	if err != nil {
		t.Fatalf("decodeCommit: %v", err)
	}
	if len(decoded.Parents) != 0 {
		t.Errorf("Parents = %v, want none", decoded.Parents)
	}
}

func TestDecodeCommitCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"no separator", "tree " + string(hostsTreeID) + "\n"},
		{"missing tree", "author Ada <a@b> 1 +0000\ncommitter Ada <a@b> 1 +0000\n\nmsg"},
		{"bad tree id", "tree zzzz\nauthor Ada <a@b> 1 +0000\ncommitter Ada <a@b> 1 +0000\n\nmsg"},
		{"unknown header", "tree " + string(hostsTreeID) + "\nsigned yes\nauthor Ada <a@b> 1 +0000\ncommitter Ada <a@b> 1 +0000\n\nmsg"},
		{"bad zone", "tree " + string(hostsTreeID) + "\nauthor Ada <a@b> 1 +00\ncommitter Ada <a@b> 1 +0000\n\nmsg"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := decodeCommit([]byte(tc.payload)); !errors.Is(err, ErrCorrupt) {
				t.Errorf("decodeCommit error = %v, want ErrCorrupt", err)
			}
		})
	}
}

func TestOffsetFormatting(t *testing.T) {
	tests := []struct {
		minutes int
		want    string
	}{
		{0, "+0000"},
		{60, "+0100"},
		{90, "+0130"},
		{-300, "-0500"},
		{-345, "-0545"},
		{780, "+1300"},
	}
	for _, tc := range tests {
		got := formatOffset(tc.minutes)
		if got != tc.want {
			t.Errorf("formatOffset(%d) = %q, want %q", tc.minutes, got, tc.want)
		}
		back, err := parseOffset(got)
		if err != nil {
			t.Errorf("parseOffset(%q): %v", got, err)
		}
		if back != tc.minutes {
			t.Errorf("parseOffset(%q) = %d, want %d", got, back, tc.minutes)
		}
	}
}

func TestParseID(t *testing.T) {
	if _, err := ParseID(string(blob123ID)); err != nil {
		t.Errorf("ParseID(valid): %v", err)
	}
	for _, bad := range []string{"", "abc", strings.ToUpper(string(blob123ID)), string(blob123ID[:39]) + "g"} {
		if _, err := ParseID(bad); err == nil {
			t.Errorf("ParseID(%q) succeeded, want error", bad)
		}
	}
}

func TestHashBytesDeterminism(t *testing.T) {
	h1 := HashBytes([]byte("hello world"))
	h2 := HashBytes([]byte("hello world"))
	if h1 != h2 {
		t.Errorf("HashBytes not deterministic: %q != %q", h1, h2)
	}
	if len(h1) != HexIDLen {
		t.Errorf("id length = %d, want %d", len(h1), HexIDLen)
	}
	for _, c := range string(h1) {
		if !((c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')) {
			t.Errorf("id contains non-lowercase-hex character %q", c)
		}
	}
}

func TestHashObjectTypeDistinguishes(t *testing.T) {
	data := []byte("same payload")
	if HashObject(TypeBlob, data) == HashObject(TypeTree, data) {
		t.Error("same payload under different types must hash differently")
	}
}
