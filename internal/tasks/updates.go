package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	FetchUsers Phase = iota
	FetchPlaylists
	CheckUsers
	CheckPlaylists
	RepairDocuments
)

func (p Phase) String() string {
	switch p {
	case FetchUsers:
		return "fetch_users"
	case FetchPlaylists:
		return "fetch_playlists"
	case CheckUsers:
		return "check_users"
	case CheckPlaylists:
		return "check_playlists"
	case RepairDocuments:
		return "repair_documents"
	default:
		return ""
	}
}

// sendProgress sends a progress update through the channel without blocking.
func sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
		// Channel full, skip this update
	}
}

func fetchUsersUpdate() ProgressUpdate {
	return ProgressUpdate{Phase: FetchUsers, Step: 1, Total: 1, Message: "Fetching users..."}
}

func fetchPlaylistsUpdate(users int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Fetched %d users, fetching playlists...", users),
	}
}

func checkUserUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckUsers,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking user %s", step, total, name),
	}
}

func checkPlaylistUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   CheckPlaylists,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Checking playlist %s", step, total, name),
	}
}

func repairCompletedUpdate(step, total int, job repairJob) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RepairDocuments,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s %s (%d updates)", step, total, job.collection, job.entity, len(job.updates)),
		Data:    job.issues,
	}
}

func repairFailedUpdate(step, total int, job repairJob, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RepairDocuments,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s %s: %v", step, total, job.collection, job.entity, err),
	}
}
