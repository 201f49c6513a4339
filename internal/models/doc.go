// Package models defines the core domain models for Wichtelbot.
//
// # Models
//
//   - Group: a named Secret Santa exchange with an owner and ordered participants
//   - Participant: a user who joined a group, identified by their chat user ID
//   - Restrictions: owner-declared exclusions (giver ID -> forbidden recipient IDs)
//   - Snapshot: the complete persisted state (groups and wishes), saved as one unit
//   - Pairing: one giver -> recipient link of a computed assignment (never persisted)
//
// # Design Principles
//
// 1. **ID keying**: participants, restrictions and wishes are keyed by user ID;
// display names are for presentation only, so renames never break restrictions
// 2. **Value copies**: the coordinator hands out deep copies, never its own maps
// 3. **One snapshot**: every store persists groups and wishes together to avoid
// cross-store inconsistency after a crash
package models
