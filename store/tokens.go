package store

import (
	"sort"
	"sync"
)

// Token kinds, as persisted in the tokens table
const (
	KindLabel            = "label"
	KindRelationshipType = "relationship_type"
	KindPropertyKey      = "property_key"
)

// Token is one name and its id
type Token struct {
	ID   int32  `yaml:"id" json:"id"`
	Name string `yaml:"name" json:"name"`
}

// TokenRepository hands out dense int32 ids for names
type TokenRepository struct {
	kind string

	mu    sync.RWMutex
	ids   map[string]int32
	names []string
}

// NewTokenRepository creates an empty repository of the given kind
func NewTokenRepository(kind string) *TokenRepository {
	return &TokenRepository{kind: kind, ids: map[string]int32{}}
}

// Kind of tokens held
func (r *TokenRepository) Kind() string { return r.kind }

// GetOrCreate returns the id for name, creating it on first use
func (r *TokenRepository) GetOrCreate(name string) int32 {
	r.mu.RLock()
	id, ok := r.ids[name]
	r.mu.RUnlock()
	if ok {
		return id
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if id, ok := r.ids[name]; ok {
		return id
	}
	id = int32(len(r.names))
	r.ids[name] = id
	r.names = append(r.names, name)
	return id
}

// GetOrCreateAll maps names to ids in order
func (r *TokenRepository) GetOrCreateAll(names []string) []int32 {
	if len(names) == 0 {
		return nil
	}
	ids := make([]int32, len(names))
	for i, name := range names {
		ids[i] = r.GetOrCreate(name)
	}
	return ids
}

// ID looks up an existing token
func (r *TokenRepository) ID(name string) (int32, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.ids[name]
	return id, ok
}

// Name looks up the name of id
func (r *TokenRepository) Name(id int32) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id < 0 || int(id) >= len(r.names) {
		return "", false
	}
	return r.names[id], true
}

// HighID is the number of tokens created
func (r *TokenRepository) HighID() int32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int32(len(r.names))
}

// Tokens returns all tokens ordered by id
func (r *TokenRepository) Tokens() []Token {
	r.mu.RLock()
	defer r.mu.RUnlock()
	tokens := make([]Token, len(r.names))
	for i, name := range r.names {
		tokens[i] = Token{ID: int32(i), Name: name}
	}
	return tokens
}

// load replaces the repository content with persisted tokens
func (r *TokenRepository) load(tokens []Token) {
	sort.Slice(tokens, func(i, j int) bool { return tokens[i].ID < tokens[j].ID })

	r.mu.Lock()
	defer r.mu.Unlock()
	r.ids = make(map[string]int32, len(tokens))
	r.names = r.names[:0]
	for _, t := range tokens {
		for int32(len(r.names)) < t.ID {
			r.names = append(r.names, "")
		}
		r.names = append(r.names, t.Name)
		r.ids[t.Name] = t.ID
	}
}
