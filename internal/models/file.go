// Package models defines the types shared between storage and the graph builder.
package models

import "time"

// FileMeta describes one corpus file. Path is relative to the corpus root and
// always uses forward slashes.
type FileMeta struct {
	Path      string    `json:"path"`
	Size      int64     `json:"size"`
	UpdatedAt time.Time `json:"updated_at"`
}
