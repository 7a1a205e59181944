package memory

import (
	"strings"
	"time"
)

// Type classifies a memory.
type Type string

const (
	TypeQuestion    Type = "question"
	TypeRequest     Type = "request"
	TypeInformation Type = "information"
)

// Label is the display form of the type.
func (t Type) Label() string {
	switch t {
	case TypeQuestion:
		return "Question"
	case TypeRequest:
		return "Request"
	default:
		return "Information"
	}
}

// Metadata is the nested metadata block of a memory as the server sends it.
type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	CreatedBy string    `json:"createdBy"`
	Tags      []string  `json:"tags,omitempty"`
}

// RawMemory is a memory in wire form.
type RawMemory struct {
	ID       string   `json:"id"`
	Content  string   `json:"content"`
	Type     Type     `json:"type,omitempty"`
	Metadata Metadata `json:"metadata"`
}

// Memory is the flattened form used by the UI.
type Memory struct {
	ID        string    `json:"id"`
	Content   string    `json:"content"`
	Type      Type      `json:"type"`
	CreatedAt time.Time `json:"created_at"`
	CreatedBy string    `json:"created_by"`
	Tags      []string  `json:"tags"`
}

// Flatten converts a wire memory. A missing or unknown type becomes
// information.
func (r RawMemory) Flatten() Memory {
	t := Type(strings.ToLower(string(r.Type)))
	switch t {
	case TypeQuestion, TypeRequest, TypeInformation:
	default:
		t = TypeInformation
	}
	tags := r.Metadata.Tags
	if tags == nil {
		tags = []string{}
	}
	return Memory{
		ID:        r.ID,
		Content:   r.Content,
		Type:      t,
		CreatedAt: r.Metadata.CreatedAt,
		CreatedBy: r.Metadata.CreatedBy,
		Tags:      tags,
	}
}

// SearchRequest is the body of a search call. AsActor scopes the search to
// one persona.
type SearchRequest struct {
	Query   string   `json:"query"`
	AsActor string   `json:"asActor"`
	Limit   int      `json:"limit,omitempty"`
	Tags    []string `json:"tags,omitempty"`
	Type    Type     `json:"type,omitempty"`
}

type searchResponse struct {
	Success bool        `json:"success"`
	Data    []RawMemory `json:"data"`
}

type getMemoryResponse struct {
	Memory RawMemory `json:"memory"`
}
