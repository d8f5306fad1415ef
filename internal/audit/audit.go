// Copyright 2026 The ConveyAI Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package audit

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/conveyai/conveyai/internal/tenant"
	"github.com/google/uuid"
)

// Action is the closed set of auditable matter mutations
type Action string

const (
	ActionCreateMatter       Action = "CREATE_MATTER"
	ActionUpdateMatterStatus Action = "UPDATE_MATTER_STATUS"
	ActionArchiveMatter      Action = "ARCHIVE_MATTER"
	ActionCreateContract     Action = "CREATE_CONTRACT"
	ActionUploadDocument     Action = "UPLOAD_DOCUMENT"
	ActionUpdateDocument     Action = "UPDATE_DOCUMENT"
	ActionDeleteDocument     Action = "DELETE_DOCUMENT"
)

// Details is a structured, schema-less payload attached to an entry. It is
// treated as opaque JSON; callers redact sensitive content before recording.
type Details map[string]any

// JSON marshals the payload for persistence
func (d Details) JSON() ([]byte, error) {
	if d == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d)
}

// Entry is one append-only audit record. Entries are never updated or
// deleted through any API.
type Entry struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	MatterID    string    `json:"matter_id"`
	PrincipalID string    `json:"principal_id"`
	Action      Action    `json:"action"`
	Details     Details   `json:"details"`
	CreatedAt   time.Time `json:"created_at"`
}

// Repository persists entries. Implementations must write within any
// transaction carried by ctx so the entry shares the durability unit of the
// mutation it documents.
type Repository interface {
	Insert(ctx context.Context, entry *Entry) error
	ListByMatter(ctx context.Context, tenantID, matterID string) ([]*Entry, error)
}

// Recorder is the write interface handed to services
type Recorder interface {
	Record(ctx context.Context, tc tenant.Context, matterID string, action Action, details Details) (*Entry, error)
}

// Trail implements Recorder backed by a repository, mirroring every entry to
// the structured log.
type Trail struct {
	repo Repository
}

// NewTrail creates an audit trail
func NewTrail(repo Repository) *Trail {
	return &Trail{repo: repo}
}

// Record appends an entry tied to the given tenant context and matter. The
// insert happens in the caller's transaction when one is in flight; if the
// transaction rolls back, so does the entry.
func (t *Trail) Record(ctx context.Context, tc tenant.Context, matterID string, action Action, details Details) (*Entry, error) {
	entry := &Entry{
		ID:          uuid.NewString(),
		TenantID:    tc.TenantID(),
		MatterID:    matterID,
		PrincipalID: tc.PrincipalID(),
		Action:      action,
		Details:     details,
		CreatedAt:   time.Now(),
	}

	if err := t.repo.Insert(ctx, entry); err != nil {
		return nil, err
	}

	t.mirror(ctx, entry)
	return entry, nil
}

// ListByMatter returns the trail for a matter, oldest first
func (t *Trail) ListByMatter(ctx context.Context, tc tenant.Context, matterID string) ([]*Entry, error) {
	return t.repo.ListByMatter(ctx, tc.TenantID(), matterID)
}

// mirror writes the entry to the structured log for operators
func (t *Trail) mirror(ctx context.Context, entry *Entry) {
	attrs := []any{
		slog.String("audit_action", string(entry.Action)),
		slog.String("tenant_id", entry.TenantID),
		slog.String("matter_id", entry.MatterID),
		slog.String("principal_id", entry.PrincipalID),
		slog.Time("timestamp", entry.CreatedAt),
	}

	if len(entry.Details) > 0 {
		group := []any{}
		for k, v := range entry.Details {
			if isSecret(k) {
				v = "[REDACTED]"
			}
			group = append(group, slog.Any(k, v))
		}
		attrs = append(attrs, slog.Group("details", group...))
	}

	slog.InfoContext(ctx, "AUDIT_EVENT", append(attrs, slog.String("component", "audit"))...)
}

// isSecret checks if a key likely contains a secret
func isSecret(key string) bool {
	secrets := []string{"password", "secret", "token", "key", "authorization"}
	for _, s := range secrets {
		if key == s {
			return true
		}
	}
	return false
}
