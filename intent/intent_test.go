package intent

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

const sample = `{
  "intents": [
    {"tag": "greeting", "patterns": ["hi", "hello"], "responses": ["Hello!", "Hi there!"]},
    {"tag": "goodbye", "patterns": ["see you"], "responses": ["Bye!"]}
  ]
}`

func writeSample(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "intents.json")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	return path
}

func TestLoad_NotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if !errors.Is(err, ErrDatasetNotFound) {
		t.Fatalf("Load(missing) err = %v, want ErrDatasetNotFound", err)
	}
}

func TestDecode_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data string
		is   error
	}{
		{name: "malformed", data: `{"intents": [`},
		{name: "empty tag", data: `{"intents": [{"tag": " ", "patterns": [], "responses": []}]}`, is: ErrInvalidIntent},
		{name: "duplicate tag", data: `{"intents": [{"tag": "a"}, {"tag": "a"}]}`, is: ErrInvalidIntent},
		{name: "null entry", data: `{"intents": [null]}`, is: ErrInvalidIntent},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode([]byte(tc.data))
			if err == nil {
				t.Fatalf("expected error")
			}
			if tc.is != nil && !errors.Is(err, tc.is) {
				t.Fatalf("err = %v, want %v", err, tc.is)
			}
		})
	}
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	path := writeSample(t)
	ds, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	ds.Learn("weather", "apakah hujan?", "Mungkin <nanti> & besok")
	if err := ds.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if !strings.Contains(string(raw), "<nanti> & besok") {
		t.Fatalf("saved file escaped HTML characters:\n%s", raw)
	}
	if !strings.Contains(string(raw), "\n  \"intents\"") {
		t.Fatalf("saved file not indented with two spaces:\n%s", raw)
	}
	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load after Save failed: %v", err)
	}
	if !reflect.DeepEqual(ds, again) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", again, ds)
	}
	entries, err := os.ReadDir(filepath.Dir(path))
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %v", entries)
	}
}

func TestLearn(t *testing.T) {
	ds, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	ds.Learn("greeting", "hey", "Hey!")
	g := ds.Find("greeting")
	if !reflect.DeepEqual(g.Patterns, []string{"hi", "hello", "hey"}) {
		t.Fatalf("patterns = %v", g.Patterns)
	}
	if !reflect.DeepEqual(g.Responses, []string{"Hello!", "Hi there!", "Hey!"}) {
		t.Fatalf("responses = %v", g.Responses)
	}

	ds.Learn("thanks", "thank you", "")
	th := ds.Find("thanks")
	if th == nil {
		t.Fatalf("new intent not created")
	}
	if len(th.Responses) != 0 || !reflect.DeepEqual(th.Patterns, []string{"thank you"}) {
		t.Fatalf("new intent = %+v", th)
	}
	if got := ds.Tags(); !reflect.DeepEqual(got, []string{"greeting", "goodbye", "thanks"}) {
		t.Fatalf("Tags = %v", got)
	}
}

func TestFlatten(t *testing.T) {
	ds, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	patterns, tags := ds.Flatten()
	if !reflect.DeepEqual(patterns, []string{"hi", "hello", "see you"}) {
		t.Fatalf("patterns = %v", patterns)
	}
	if !reflect.DeepEqual(tags, []string{"greeting", "greeting", "goodbye"}) {
		t.Fatalf("tags = %v", tags)
	}
	responses := ds.Responses()
	if len(responses) != 2 || responses["goodbye"][0] != "Bye!" {
		t.Fatalf("Responses = %v", responses)
	}
}

func TestAdminMutations(t *testing.T) {
	ds, err := Decode([]byte(sample))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	if err := ds.AddResponse("goodbye", "Take care!"); err != nil {
		t.Fatalf("AddResponse failed: %v", err)
	}
	if err := ds.AddResponse("missing", "x"); !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("AddResponse(missing) err = %v", err)
	}
	if err := ds.RemovePattern("greeting", "hi"); err != nil {
		t.Fatalf("RemovePattern failed: %v", err)
	}
	if err := ds.RemovePattern("greeting", "hi"); !errors.Is(err, ErrPatternNotFound) {
		t.Fatalf("RemovePattern twice err = %v", err)
	}
	if err := ds.RemoveIntent("goodbye"); err != nil {
		t.Fatalf("RemoveIntent failed: %v", err)
	}
	if err := ds.RemoveIntent("goodbye"); !errors.Is(err, ErrIntentNotFound) {
		t.Fatalf("RemoveIntent twice err = %v", err)
	}
	patterns, _ := ds.Flatten()
	if !reflect.DeepEqual(patterns, []string{"hello"}) {
		t.Fatalf("patterns after removal = %v", patterns)
	}
}
