package formatter

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/tasks"
	th "github.com/desertthunder/playgraph/internal/testing"
)

func sampleUsers() map[string]*models.User {
	return map[string]*models.User{
		"bob": {
			UserName:     "bob",
			NumFriends:   1,
			Friends:      []string{"alice"},
			NumPlaylists: 0,
			Playlists:    []string{},
		},
		"alice": {
			UserName:     "alice",
			NumFriends:   1,
			Friends:      []string{"bob"},
			NumPlaylists: 2,
			Playlists:    []string{"Road Trip", "Focus|Deep"},
		},
	}
}

func samplePlaylists() map[string]*models.Playlist {
	return map[string]*models.Playlist{
		"Road Trip":  {PlaylistName: "Road Trip", Likes: []string{"alice"}},
		"Focus|Deep": {PlaylistName: "Focus|Deep", Likes: []string{"alice"}},
		"Empty":      {PlaylistName: "Empty", Likes: []string{}},
	}
}

func TestUserFormatters(t *testing.T) {
	t.Run("UsersToCSV", func(t *testing.T) {
		data, err := UsersToCSV(sampleUsers())
		if err != nil {
			t.Fatalf("UsersToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("Expected 3 lines, got %d: %q", len(lines), data)
		}
		if lines[0] != "User,Friends,NumFriends,Playlists,NumPlaylists" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if lines[1] != "alice,bob,1,Road Trip;Focus|Deep,2" {
			t.Errorf("Unexpected alice row: %s", lines[1])
		}
		if !strings.HasPrefix(lines[2], "bob,alice,1,,0") {
			t.Errorf("Unexpected bob row: %s", lines[2])
		}
	})

	t.Run("UsersToMarkdown", func(t *testing.T) {
		data, err := UsersToMarkdown(sampleUsers())
		if err != nil {
			t.Fatalf("UsersToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Users") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, "**Total**: 2") {
			t.Errorf("Markdown missing total")
		}
		if !strings.Contains(output, `| alice | bob | Road Trip, Focus\|Deep |`) {
			t.Errorf("Markdown missing escaped alice row, got: %s", output)
		}
		if !strings.Contains(output, "| bob | alice | - |") {
			t.Errorf("Markdown missing bob row")
		}
	})

	t.Run("UsersToText", func(t *testing.T) {
		data, err := UsersToText(sampleUsers())
		if err != nil {
			t.Fatalf("UsersToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Users: 2") {
			t.Errorf("Text missing user count")
		}
		if !strings.Contains(output, "1. alice (1 friends, 2 playlists)") {
			t.Errorf("Text missing alice")
		}
		if !strings.Contains(output, "2. bob (1 friends, 0 playlists)") {
			t.Errorf("Text missing bob")
		}
	})

	t.Run("UserToText", func(t *testing.T) {
		data, err := UserToText(sampleUsers()["bob"])
		if err != nil {
			t.Fatalf("UserToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "User: bob") {
			t.Errorf("Text missing user name")
		}
		if !strings.Contains(output, "Friends (1): alice") {
			t.Errorf("Text missing friends")
		}
		if !strings.Contains(output, "Playlists (0): -") {
			t.Errorf("Text missing empty playlists marker")
		}
	})

	t.Run("Empty", func(t *testing.T) {
		data, err := UsersToCSV(map[string]*models.User{})
		if err != nil {
			t.Fatalf("UsersToCSV failed: %v", err)
		}
		if strings.TrimSpace(string(data)) != "User,Friends,NumFriends,Playlists,NumPlaylists" {
			t.Errorf("Expected only headers, got: %s", data)
		}
	})
}

func TestPlaylistFormatters(t *testing.T) {
	t.Run("PlaylistsToCSV", func(t *testing.T) {
		data, err := PlaylistsToCSV(samplePlaylists())
		if err != nil {
			t.Fatalf("PlaylistsToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Playlist,Likes,NumLikes\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, "Empty,,0") {
			t.Errorf("CSV missing empty playlist")
		}
		if !strings.Contains(output, "Road Trip,alice,1") {
			t.Errorf("CSV missing Road Trip")
		}
		if strings.Index(output, "Empty") > strings.Index(output, "Road Trip") {
			t.Errorf("Expected rows sorted by name")
		}
	})

	t.Run("PlaylistsToMarkdown", func(t *testing.T) {
		data, err := PlaylistsToMarkdown(samplePlaylists())
		if err != nil {
			t.Fatalf("PlaylistsToMarkdown failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "# Playlists") {
			t.Errorf("Markdown missing title")
		}
		if !strings.Contains(output, `| Focus\|Deep | alice |`) {
			t.Errorf("Markdown should escape pipes, got: %s", output)
		}
		if !strings.Contains(output, "| Empty | - |") {
			t.Errorf("Markdown missing empty row")
		}
	})

	t.Run("PlaylistsToText", func(t *testing.T) {
		data, err := PlaylistsToText(samplePlaylists())
		if err != nil {
			t.Fatalf("PlaylistsToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Playlists: 3") {
			t.Errorf("Text missing playlist count")
		}
		if !strings.Contains(output, "1. Empty (0 likes)") {
			t.Errorf("Text missing Empty")
		}
	})

	t.Run("PlaylistToText", func(t *testing.T) {
		data, err := PlaylistToText(samplePlaylists()["Road Trip"])
		if err != nil {
			t.Fatalf("PlaylistToText failed: %v", err)
		}
		if !strings.Contains(string(data), "Likes (1): alice") {
			t.Errorf("Text missing likes, got: %s", data)
		}
	})
}

func TestCSVWriterErrors(t *testing.T) {
	t.Run("FailingWriter", func(t *testing.T) {
		if err := WriteUsersCSV(&th.FWriter{}, sampleUsers()); err == nil {
			t.Error("Expected error from failing writer")
		}
		if err := WritePlaylistsCSV(&th.FWriter{}, samplePlaylists()); err == nil {
			t.Error("Expected error from failing writer")
		}
	})

	t.Run("LimitedWriter", func(t *testing.T) {
		var buf bytes.Buffer
		limited := th.NewLimitedWriter(0, 0, &buf)

		err := WriteUsersCSV(&limited, sampleUsers())
		if err == nil || !strings.Contains(err.Error(), "CSV writer error") {
			t.Errorf("Expected CSV writer error, got %v", err)
		}
		if buf.Len() != 0 {
			t.Errorf("Expected nothing written, got %q", buf.String())
		}
	})
}

func TestReportFormatters(t *testing.T) {
	t.Run("Clean", func(t *testing.T) {
		data, err := ReportToText(&tasks.Report{Users: 3, Playlists: 2})
		if err != nil {
			t.Fatalf("ReportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Checked 3 users and 2 playlists") {
			t.Errorf("Text missing totals")
		}
		if !strings.Contains(output, "No issues found") {
			t.Errorf("Text missing clean marker")
		}
	})

	t.Run("WithIssues", func(t *testing.T) {
		report := &tasks.Report{
			Users: 2,
			Issues: []tasks.Issue{
				{Kind: tasks.SelfFriend, Message: "alice lists itself as a friend"},
				{Kind: tasks.CountMismatch, Message: "alice has numFriends 2, expected 1"},
			},
		}

		data, err := ReportToText(report)
		if err != nil {
			t.Fatalf("ReportToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Issues: 2") {
			t.Errorf("Text missing issue count")
		}
		if !strings.Contains(output, "[self_friend] alice lists itself as a friend") {
			t.Errorf("Text missing self friend issue, got: %s", output)
		}
	})

	t.Run("RepairToText", func(t *testing.T) {
		result := &tasks.RepairResult{
			Documents: 2,
			Repaired:  1,
			Failed:    1,
			Updates:   3,
			Errors:    []tasks.RepairError{{Collection: "users", Entity: "bob", Err: errors.New("boom")}},
		}

		data, err := RepairToText(result)
		if err != nil {
			t.Fatalf("RepairToText failed: %v", err)
		}

		output := string(data)
		if !strings.Contains(output, "Repaired 1 of 2 documents (3 updates)") {
			t.Errorf("Text missing summary, got: %s", output)
		}
		if !strings.Contains(output, "users bob: boom") {
			t.Errorf("Text missing failure")
		}
	})
}

func TestDispatch(t *testing.T) {
	for _, format := range []string{"", FormatText, FormatCSV, FormatMarkdown, FormatJSON} {
		t.Run("Users/"+format, func(t *testing.T) {
			data, err := Users(format, sampleUsers())
			if err != nil {
				t.Fatalf("Users(%q) failed: %v", format, err)
			}
			if !strings.Contains(string(data), "alice") {
				t.Errorf("Output missing alice")
			}
		})
		t.Run("Playlists/"+format, func(t *testing.T) {
			data, err := Playlists(format, samplePlaylists())
			if err != nil {
				t.Fatalf("Playlists(%q) failed: %v", format, err)
			}
			if !strings.Contains(string(data), "Road Trip") {
				t.Errorf("Output missing Road Trip")
			}
		})
	}

	t.Run("JSON uses document field names", func(t *testing.T) {
		data, err := Users(FormatJSON, sampleUsers())
		if err != nil {
			t.Fatalf("Users failed: %v", err)
		}

		var decoded map[string]map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("Invalid JSON: %v", err)
		}
		if decoded["alice"]["userName"] != "alice" {
			t.Errorf("Expected userName field, got %v", decoded["alice"])
		}
		if decoded["alice"]["numPlaylists"] != float64(2) {
			t.Errorf("Expected numPlaylists 2, got %v", decoded["alice"]["numPlaylists"])
		}
	})

	t.Run("Unknown", func(t *testing.T) {
		if _, err := Users("yaml", sampleUsers()); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("Expected ErrInvalidFlag, got %v", err)
		}
		if _, err := Playlists("xml", samplePlaylists()); !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("Expected ErrInvalidFlag, got %v", err)
		}
	})
}

func TestWriteExport(t *testing.T) {
	t.Run("WithRelativePath", func(t *testing.T) {
		tempDir := t.TempDir()
		originalDir := th.MustGetwd(t)
		th.MustChdir(t, tempDir)
		defer th.MustChdir(t, originalDir)

		data, err := UsersToMarkdown(sampleUsers())
		if err != nil {
			t.Fatalf("UsersToMarkdown failed: %v", err)
		}

		if err := WriteExport("users.md", data); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}

		th.AssertFileExists(t, "users.md")
		if content := th.MustReadFile(t, "users.md"); content != string(data) {
			t.Errorf("File content mismatch: %s", content)
		}
	})

	t.Run("Overwrites", func(t *testing.T) {
		path := t.TempDir() + "/out.csv"
		if err := WriteExport(path, []byte("first")); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if err := WriteExport(path, []byte("second")); err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if content := th.MustReadFile(t, path); content != "second" {
			t.Errorf("Expected overwritten content, got %q", content)
		}
	})

	t.Run("EmptyPath", func(t *testing.T) {
		if err := WriteExport("", []byte("x")); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("Expected ErrInvalidArgument, got %v", err)
		}
	})

	t.Run("MissingDirectory", func(t *testing.T) {
		if err := WriteExport(t.TempDir()+"/missing/out.txt", []byte("x")); err == nil {
			t.Error("Expected error for missing directory")
		}
	})
}
