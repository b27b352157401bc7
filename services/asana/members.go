// Copyright (C) 2025 NIA Insight Group (dev@niainsight.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package asana

import (
	"context"
	"sync"
	"time"
)

// MemberTTL is how long a workspace member list is served from cache.
// The list is non-authoritative; staleness up to this bound is fine.
const MemberTTL = 10 * time.Minute

type memberEntry struct {
	members   []Member
	fetchedAt time.Time
}

// MemberCache caches workspace member lists in memory, keyed by
// workspace gid. Safe for concurrent use.
type MemberCache struct {
	mu      sync.Mutex
	entries map[string]memberEntry
	now     func() time.Time
}

func NewMemberCache() *MemberCache {
	return &MemberCache{
		entries: make(map[string]memberEntry),
		now:     time.Now,
	}
}

// Members returns the member list for a workspace, fetching through the
// client only when the cached copy is missing or older than MemberTTL.
func (m *MemberCache) Members(ctx context.Context, c *Client, workspaceGID string) ([]Member, error) {
	m.mu.Lock()
	entry, ok := m.entries[workspaceGID]
	fresh := ok && m.now().Sub(entry.fetchedAt) < MemberTTL
	m.mu.Unlock()
	if fresh {
		return entry.members, nil
	}

	members, err := c.workspaceMembers(ctx, workspaceGID)
	if err != nil {
		// Serve a stale copy over an error when we have one.
		if ok {
			return entry.members, nil
		}
		return nil, err
	}

	m.mu.Lock()
	m.entries[workspaceGID] = memberEntry{members: members, fetchedAt: m.now()}
	m.mu.Unlock()
	return members, nil
}

// Invalidate drops one workspace from the cache.
func (m *MemberCache) Invalidate(workspaceGID string) {
	m.mu.Lock()
	delete(m.entries, workspaceGID)
	m.mu.Unlock()
}
