package docstore

import (
	"encoding/json"
	"errors"
	"reflect"
	"testing"
)

func TestApply(t *testing.T) {
	base := Document{
		"userName":   "alice",
		"numFriends": 1,
		"friends":    []any{"bob"},
		"label":      "x",
	}

	tests := []struct {
		name    string
		update  Update
		field   string
		want    any
		wantErr error
	}{
		{name: "push appends", update: Push("friends", "carol"), field: "friends", want: []any{"bob", "carol"}},
		{name: "push creates missing array", update: Push("playlists", "mix"), field: "playlists", want: []any{"mix"}},
		{name: "pull removes", update: Pull("friends", "bob"), field: "friends", want: []any{}},
		{name: "pull absent value is a no-op", update: Pull("friends", "zed"), field: "friends", want: []any{"bob"}},
		{name: "pull on missing field is a no-op", update: Pull("likes", "bob"), field: "likes", want: nil},
		{name: "inc adds", update: Inc("numFriends", 2), field: "numFriends", want: json.Number("3")},
		{name: "inc decrements", update: Inc("numFriends", -1), field: "numFriends", want: json.Number("0")},
		{name: "inc treats missing as zero", update: Inc("numPlaylists", 1), field: "numPlaylists", want: json.Number("1")},
		{name: "push to non-array", update: Push("label", "y"), wantErr: ErrInvalidUpdate},
		{name: "pull from non-array", update: Pull("label", "y"), wantErr: ErrInvalidUpdate},
		{name: "inc on non-number", update: Inc("label", 1), wantErr: ErrInvalidUpdate},
		{name: "empty update", update: Update{}, wantErr: ErrInvalidUpdate},
		{name: "operator field name", update: Push("$where", "x"), wantErr: ErrInvalidUpdate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(base, tt.update)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !reflect.DeepEqual(got[tt.field], tt.want) {
				t.Errorf("expected %s = %#v, got %#v", tt.field, tt.want, got[tt.field])
			}
		})
	}

	t.Run("does not modify input", func(t *testing.T) {
		doc := Document{"friends": []any{"bob"}}
		if _, err := Apply(doc, Push("friends", "carol")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(doc["friends"].([]any)) != 1 {
			t.Errorf("input document was modified: %v", doc)
		}
	})

	t.Run("pull removes every equal element", func(t *testing.T) {
		doc := Document{"likes": []any{"a", "b", "a"}}
		got, err := Apply(doc, Pull("likes", "a"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got["likes"], []any{"b"}) {
			t.Errorf("expected [b], got %v", got["likes"])
		}
	})

	t.Run("pull runs before push", func(t *testing.T) {
		doc := Document{"likes": []any{"a"}}
		got, err := Apply(doc, Update{Push: map[string]any{"likes": "a"}, Pull: map[string]any{"likes": "a"}})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !reflect.DeepEqual(got["likes"], []any{"a"}) {
			t.Errorf("expected [a], got %v", got["likes"])
		}
	})
}

func TestMatches(t *testing.T) {
	doc := Document{"userName": "alice", "numFriends": json.Number("2")}

	tests := []struct {
		name    string
		filters Filter
		want    bool
	}{
		{"empty filter", Filter{}, true},
		{"string equality", Filter{"userName": "alice"}, true},
		{"number across types", Filter{"numFriends": 2}, true},
		{"mismatch", Filter{"userName": "bob"}, false},
		{"missing field", Filter{"playlistName": "alice"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Matches(doc, tt.filters); got != tt.want {
				t.Errorf("Matches(%v) = %v, want %v", tt.filters, got, tt.want)
			}
		})
	}
}

func TestEncodeDecode(t *testing.T) {
	type record struct {
		Name  string   `json:"name"`
		Count int      `json:"count"`
		Tags  []string `json:"tags"`
	}

	doc, err := Encode(record{Name: "mix", Count: 3, Tags: []string{"a"}})
	if err != nil {
		t.Fatalf("failed to encode: %v", err)
	}
	if doc["count"] != json.Number("3") {
		t.Errorf("expected count as json.Number, got %#v", doc["count"])
	}

	var out record
	if err := Decode(doc, &out); err != nil {
		t.Fatalf("failed to decode: %v", err)
	}
	if out.Name != "mix" || out.Count != 3 || len(out.Tags) != 1 {
		t.Errorf("unexpected decoded value: %+v", out)
	}
}

func TestUpdateString(t *testing.T) {
	u := Update{Push: map[string]any{"friends": "bob"}, Inc: map[string]int64{"numFriends": 1}}

	want := `{"$inc":{"numFriends":1},"$push":{"friends":"bob"}}`
	if got := u.String(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}

	if fields := u.Fields(); !reflect.DeepEqual(fields, []string{"friends", "numFriends"}) {
		t.Errorf("unexpected fields: %v", fields)
	}
}
