// package formatter renders users, playlists and audit reports in various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/desertthunder/playgraph/internal/models"
	"github.com/desertthunder/playgraph/internal/shared"
	"github.com/desertthunder/playgraph/internal/tasks"
)

// Supported output formats
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// UsersToCSV renders users sorted by name with columns: User, Friends, NumFriends, Playlists, NumPlaylists.
//
// List columns are joined with semicolons.
func UsersToCSV(users map[string]*models.User) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteUsersCSV(&buf, users); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteUsersCSV streams the [UsersToCSV] rendering to w
func WriteUsersCSV(w io.Writer, users map[string]*models.User) error {
	writer := csv.NewWriter(w)

	headers := []string{"User", "Friends", "NumFriends", "Playlists", "NumPlaylists"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, name := range models.SortedNames(users) {
		u := users[name]
		record := []string{
			u.UserName,
			strings.Join(u.Friends, ";"),
			strconv.Itoa(u.NumFriends),
			strings.Join(u.Playlists, ";"),
			strconv.Itoa(u.NumPlaylists),
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// PlaylistsToCSV renders playlists sorted by name with columns: Playlist, Likes, NumLikes
func PlaylistsToCSV(playlists map[string]*models.Playlist) ([]byte, error) {
	var buf bytes.Buffer
	if err := WritePlaylistsCSV(&buf, playlists); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WritePlaylistsCSV streams the [PlaylistsToCSV] rendering to w
func WritePlaylistsCSV(w io.Writer, playlists map[string]*models.Playlist) error {
	writer := csv.NewWriter(w)

	if err := writer.Write([]string{"Playlist", "Likes", "NumLikes"}); err != nil {
		return fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, name := range models.SortedNames(playlists) {
		p := playlists[name]
		record := []string{p.PlaylistName, strings.Join(p.Likes, ";"), strconv.Itoa(len(p.Likes))}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// UsersToMarkdown renders users as a Markdown table
func UsersToMarkdown(users map[string]*models.User) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Users\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(users)))
	buf.WriteString("| User | Friends | Liked playlists |\n")
	buf.WriteString("|------|---------|-----------------|\n")

	for _, name := range models.SortedNames(users) {
		u := users[name]
		buf.WriteString(fmt.Sprintf("| %s | %s | %s |\n", mdCell(u.UserName), mdList(u.Friends), mdList(u.Playlists)))
	}

	return buf.Bytes(), nil
}

// PlaylistsToMarkdown renders playlists as a Markdown table
func PlaylistsToMarkdown(playlists map[string]*models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Playlists\n\n")
	buf.WriteString(fmt.Sprintf("**Total**: %d\n\n", len(playlists)))
	buf.WriteString("| Playlist | Likes |\n")
	buf.WriteString("|----------|-------|\n")

	for _, name := range models.SortedNames(playlists) {
		p := playlists[name]
		buf.WriteString(fmt.Sprintf("| %s | %s |\n", mdCell(p.PlaylistName), mdList(p.Likes)))
	}

	return buf.Bytes(), nil
}

// UsersToText renders one line per user
func UsersToText(users map[string]*models.User) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Users: %d\n\n", len(users)))
	for i, name := range models.SortedNames(users) {
		u := users[name]
		buf.WriteString(fmt.Sprintf("%d. %s (%d friends, %d playlists)\n", i+1, u.UserName, u.NumFriends, u.NumPlaylists))
	}

	return buf.Bytes(), nil
}

// PlaylistsToText renders one line per playlist
func PlaylistsToText(playlists map[string]*models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlists: %d\n\n", len(playlists)))
	for i, name := range models.SortedNames(playlists) {
		p := playlists[name]
		buf.WriteString(fmt.Sprintf("%d. %s (%d likes)\n", i+1, p.PlaylistName, len(p.Likes)))
	}

	return buf.Bytes(), nil
}

// UserToText renders a single user with its lists
func UserToText(u *models.User) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("User: %s\n", u.UserName))
	buf.WriteString(fmt.Sprintf("Friends (%d): %s\n", u.NumFriends, textList(u.Friends)))
	buf.WriteString(fmt.Sprintf("Playlists (%d): %s\n", u.NumPlaylists, textList(u.Playlists)))

	return buf.Bytes(), nil
}

// PlaylistToText renders a single playlist with its likes
func PlaylistToText(p *models.Playlist) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", p.PlaylistName))
	buf.WriteString(fmt.Sprintf("Likes (%d): %s\n", len(p.Likes), textList(p.Likes)))

	return buf.Bytes(), nil
}

// ReportToText renders an audit report grouped by issue kind
func ReportToText(report *tasks.Report) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Checked %d users and %d playlists\n", report.Users, report.Playlists))
	if report.OK() {
		buf.WriteString("No issues found\n")
		return buf.Bytes(), nil
	}

	buf.WriteString(fmt.Sprintf("Issues: %d\n", len(report.Issues)))
	for _, issue := range report.Issues {
		buf.WriteString(fmt.Sprintf("  [%s] %s\n", issue.Kind, issue.Message))
	}

	return buf.Bytes(), nil
}

// RepairToText summarizes a repair run
func RepairToText(result *tasks.RepairResult) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Repaired %d of %d documents (%d updates)\n", result.Repaired, result.Documents, result.Updates))
	if result.Failed > 0 {
		buf.WriteString(fmt.Sprintf("Failed: %d\n", result.Failed))
		for _, e := range result.Errors {
			buf.WriteString(fmt.Sprintf("  %s\n", e.Error()))
		}
	}

	return buf.Bytes(), nil
}

// ToJSON renders any value as indented JSON
func ToJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// Users renders users in the named format
func Users(format string, users map[string]*models.User) ([]byte, error) {
	switch format {
	case FormatText, "":
		return UsersToText(users)
	case FormatCSV:
		return UsersToCSV(users)
	case FormatMarkdown:
		return UsersToMarkdown(users)
	case FormatJSON:
		return ToJSON(users)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// Playlists renders playlists in the named format
func Playlists(format string, playlists map[string]*models.Playlist) ([]byte, error) {
	switch format {
	case FormatText, "":
		return PlaylistsToText(playlists)
	case FormatCSV:
		return PlaylistsToCSV(playlists)
	case FormatMarkdown:
		return PlaylistsToMarkdown(playlists)
	case FormatJSON:
		return ToJSON(playlists)
	default:
		return nil, fmt.Errorf("%w: unknown format %q", shared.ErrInvalidFlag, format)
	}
}

// WriteExport writes rendered data to path, creating or truncating it
func WriteExport(path string, data []byte) error {
	if path == "" {
		return fmt.Errorf("%w: empty output path", shared.ErrInvalidArgument)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}

func textList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	return strings.Join(values, ", ")
}

func mdList(values []string) string {
	if len(values) == 0 {
		return "-"
	}
	cells := make([]string, len(values))
	for i, v := range values {
		cells[i] = mdCell(v)
	}
	return strings.Join(cells, ", ")
}

func mdCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
