package leaderboard

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// StatsKey 本地统计数据的固定存储键
const StatsKey = "pokerPlayerStats"

// SchemaVersion of the persisted stats document.
const SchemaVersion = 1

// Record 单个用户名的历史统计
type Record struct {
	Avatar       string `json:"avatar"`
	HighestChips int64  `json:"highestChips"`
	GamesPlayed  int    `json:"gamesPlayed"`
}

// Document is the whole persisted value stored under StatsKey.
type Document struct {
	Version int               `json:"version"`
	Players map[string]Record `json:"players"`
}

func NewDocument() Document {
	return Document{Version: SchemaVersion, Players: make(map[string]Record)}
}

// Store 持久化接口：整个文档一次读写（last-write-wins）
type Store interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}

// ErrCorrupt is returned by DecodeDocument when the stored bytes cannot be
// read as either the versioned or the legacy format.
var ErrCorrupt = errors.New("stats document corrupt")

// DecodeDocument accepts the versioned document and the legacy unversioned
// map of username -> record. Empty input is an empty document.
func DecodeDocument(data []byte) (Document, error) {
	if len(data) == 0 {
		return NewDocument(), nil
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return NewDocument(), fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	if _, ok := probe["version"]; ok {
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			return NewDocument(), fmt.Errorf("%w: %v", ErrCorrupt, err)
		}
		if doc.Version > SchemaVersion {
			return NewDocument(), fmt.Errorf("%w: unsupported version %d", ErrCorrupt, doc.Version)
		}
		if doc.Players == nil {
			doc.Players = make(map[string]Record)
		}
		doc.Version = SchemaVersion
		return sanitize(doc), nil
	}

	// 旧格式：{username: {avatar, highestChips, gamesPlayed}}
	legacy := make(map[string]Record, len(probe))
	for name, raw := range probe {
		var r Record
		if err := json.Unmarshal(raw, &r); err != nil {
			return NewDocument(), fmt.Errorf("%w: record %q: %v", ErrCorrupt, name, err)
		}
		legacy[name] = r
	}
	return sanitize(Document{Version: SchemaVersion, Players: legacy}), nil
}

func EncodeDocument(doc Document) ([]byte, error) {
	doc.Version = SchemaVersion
	if doc.Players == nil {
		doc.Players = make(map[string]Record)
	}
	return json.Marshal(doc)
}

func sanitize(doc Document) Document {
	for name, r := range doc.Players {
		if r.HighestChips < 0 {
			r.HighestChips = 0
		}
		if r.GamesPlayed < 1 {
			r.GamesPlayed = 1
		}
		doc.Players[name] = r
	}
	return doc
}

func (d Document) clone() Document {
	out := Document{Version: d.Version, Players: make(map[string]Record, len(d.Players))}
	for k, v := range d.Players {
		out.Players[k] = v
	}
	return out
}
