package roomstore

import (
	"sync"
)

// Room is the authoritative state of one collaborative session.
type Room struct {
	Content  string
	Language Language
	Output   []string
}

// Snapshot is a copy of a room's state, safe to hand out after the store
// mutex is released.
type Snapshot struct {
	Content  string   `json:"content"`
	Language Language `json:"language"`
	Output   []string `json:"output"`
}

// Store maps room keys to their current document state. It is the single
// owner of room state: every mutation goes through its methods, and the
// mutex serializes concurrent writers so updates land in call order.
//
// Room keys are opaque client-supplied strings. Operations on unknown keys
// are no-ops, never errors.
type Store struct {
	mu    sync.Mutex
	rooms map[string]*Room
}

func New() *Store {
	return &Store{rooms: make(map[string]*Room)}
}

// GetOrCreate returns the room's snapshot, creating the room with the
// default-language starter template if the key is unseen.
func (s *Store) GetOrCreate(key string) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key]
	if !ok {
		r = &Room{
			Content:  DefaultLanguage.Template(),
			Language: DefaultLanguage,
			Output:   []string{},
		}
		s.rooms[key] = r
	}
	return snapshotLocked(r)
}

// Snapshot returns the room's current state without creating it.
func (s *Store) Snapshot(key string) (Snapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.rooms[key]
	if !ok {
		return Snapshot{}, false
	}
	return snapshotLocked(r), true
}

// SetContent overwrites the room's authoritative content. Unknown keys are
// ignored.
func (s *Store) SetContent(key, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[key]; ok {
		r.Content = content
	}
}

// SetLanguage overwrites the room's language. Unknown keys and unsupported
// language values are ignored.
func (s *Store) SetLanguage(key string, lang Language) {
	if !lang.Valid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[key]; ok {
		r.Language = lang
	}
}

// SetOutput overwrites the room's output lines. Unknown keys are ignored.
func (s *Store) SetOutput(key string, output []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r, ok := s.rooms[key]; ok {
		r.Output = append([]string(nil), output...)
	}
}

// Remove deletes the room's state. Safe to call on a nonexistent key.
func (s *Store) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.rooms, key)
}

func snapshotLocked(r *Room) Snapshot {
	return Snapshot{
		Content:  r.Content,
		Language: r.Language,
		Output:   append([]string(nil), r.Output...),
	}
}
