package papershelf

import (
	"encoding/json"
	"time"
)

// Snapshot is the persisted input state of the library view.
// The merged view itself is never stored; it is recomputed from these inputs.
type Snapshot struct {
	IsAuthenticated bool
	Documents       []*DocumentRecord
	WorkspaceFiles  []*WorkspaceFile
	Uploads         []UploadEntry
}

// uploadState is the value half of a persisted [path, state] upload pair.
type uploadState struct {
	ID        string  `json:"id"`
	Progress  float64 `json:"progress"`
	StartTime int64   `json:"startTime"`
}

type snapshotJSON struct {
	IsAuthenticated bool              `json:"isAuthenticated"`
	Documents       []*DocumentRecord `json:"documents"`
	WorkspaceFiles  []*WorkspaceFile  `json:"workspaceFiles"`
	Uploads         [][2]any          `json:"uploads"`
}

// MarshalJSON encodes uploads as an ordered list of [path, state] pairs.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	out := snapshotJSON{
		IsAuthenticated: s.IsAuthenticated,
		Documents:       s.Documents,
		WorkspaceFiles:  s.WorkspaceFiles,
		Uploads:         make([][2]any, 0, len(s.Uploads)),
	}
	if out.Documents == nil {
		out.Documents = []*DocumentRecord{}
	}
	if out.WorkspaceFiles == nil {
		out.WorkspaceFiles = []*WorkspaceFile{}
	}
	for _, u := range s.Uploads {
		out.Uploads = append(out.Uploads, [2]any{u.Path, uploadState{
			ID:        u.ID,
			Progress:  u.Progress,
			StartTime: u.StartTime.UnixMilli(),
		}})
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a snapshot leniently. See DecodeSnapshot.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	*s = *DecodeSnapshot(data)
	return nil
}

// DecodeSnapshot decodes a persisted snapshot field by field. Missing or
// malformed fields, documents, files and upload pairs are replaced by empty
// defaults so a partially corrupt record still restores what it can.
// It never returns nil.
func DecodeSnapshot(data []byte) *Snapshot {
	snap := &Snapshot{}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return snap
	}

	if raw, ok := fields["isAuthenticated"]; ok {
		var v bool
		if err := json.Unmarshal(raw, &v); err == nil {
			snap.IsAuthenticated = v
		}
	}

	for _, raw := range rawList(fields["documents"]) {
		var doc DocumentRecord
		if err := json.Unmarshal(raw, &doc); err != nil || doc.ID == "" {
			continue
		}
		snap.Documents = append(snap.Documents, &doc)
	}

	for _, raw := range rawList(fields["workspaceFiles"]) {
		var f WorkspaceFile
		if err := json.Unmarshal(raw, &f); err != nil || f.Path == "" {
			continue
		}
		snap.WorkspaceFiles = append(snap.WorkspaceFiles, &f)
	}

	for _, raw := range rawList(fields["uploads"]) {
		if u, ok := decodeUploadPair(raw); ok {
			snap.Uploads = append(snap.Uploads, u)
		}
	}

	return snap
}

// decodeUploadPair decodes a single [path, {id, progress, startTime}] pair.
func decodeUploadPair(raw json.RawMessage) (UploadEntry, bool) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return UploadEntry{}, false
	}

	var path string
	if err := json.Unmarshal(pair[0], &path); err != nil || path == "" {
		return UploadEntry{}, false
	}

	var state uploadState
	if err := json.Unmarshal(pair[1], &state); err != nil {
		return UploadEntry{}, false
	}

	return UploadEntry{
		Path:      path,
		ID:        state.ID,
		Progress:  min(max(state.Progress, 0), MaxUploadProgress),
		StartTime: time.UnixMilli(state.StartTime),
	}, true
}

// rawList decodes raw as a JSON array, returning nil for anything else.
func rawList(raw json.RawMessage) []json.RawMessage {
	if raw == nil {
		return nil
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
